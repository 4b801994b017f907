package fonts

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"budgeting/internal/log"
)

// BundledProvisioner reads fonts shipped with the application.
type BundledProvisioner struct {
	dir    string
	logger *log.Logger
}

func NewBundledProvisioner(dir string, logger *log.Logger) *BundledProvisioner {
	if logger == nil {
		logger = log.Discard()
	}
	return &BundledProvisioner{dir: dir, logger: logger.WithComponent(log.ComponentFonts)}
}

func (p *BundledProvisioner) Mode() Mode { return ModeBundled }

func (p *BundledProvisioner) Provision(ctx context.Context) (Set, error) {
	regular, err := p.read(RegularFile)
	if err != nil {
		return Set{}, err
	}
	bold, err := p.read(BoldFile)
	if err != nil {
		return Set{}, err
	}
	p.logger.DebugContext(ctx, "bundled fonts loaded", log.FieldFontMode, ModeBundled, log.FieldBytes, len(regular)+len(bold))
	return Set{Family: Family, Regular: regular, Bold: bold}, nil
}

func (p *BundledProvisioner) Ready() error {
	for _, name := range []string{RegularFile, BoldFile} {
		path := filepath.Join(p.dir, name)
		if _, err := os.Stat(path); err != nil {
			return &MissingFontAssetError{Path: path, Err: err}
		}
	}
	return nil
}

func (p *BundledProvisioner) read(name string) ([]byte, error) {
	path := filepath.Join(p.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		p.logger.Error("bundled font missing", log.FieldFontPath, path, log.FieldError, err)
		return nil, &MissingFontAssetError{Path: path, Err: err}
	}
	if !looksLikeFont(data) {
		p.logger.Error("bundled font is not a TrueType file", log.FieldFontPath, path)
		return nil, &MissingFontAssetError{Path: path, Err: fs.ErrInvalid}
	}
	return data, nil
}

// IsMissing reports whether err is a bundled-mode missing asset failure.
func IsMissing(err error) bool {
	var missing *MissingFontAssetError
	return errors.As(err, &missing)
}
