// Package fonts makes a Unicode TrueType font available before a report is drawn.
//
// Two strategies exist. Bundled expects DejaVuSans.ttf and DejaVuSans-Bold.ttf
// next to the application and never touches the network. Fetch downloads
// DejaVuSans.ttf on first use and keeps it on disk for later calls.
package fonts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"budgeting/internal/log"
)

const (
	ModeBundled Mode = "bundled"
	ModeFetch   Mode = "fetch"
)

// File names and the family name registered with the PDF and chart renderers.
const (
	Family      = "DejaVu"
	RegularFile = "DejaVuSans.ttf"
	BoldFile    = "DejaVuSans-Bold.ttf"
)

type Mode string

// Set holds the raw TTF bytes for one family. The fetch strategy only has a
// regular face, so Bold aliases Regular there.
type Set struct {
	Family  string
	Regular []byte
	Bold    []byte
}

// IsZero reports whether the set carries no font data.
func (s Set) IsZero() bool {
	return len(s.Regular) == 0
}

// Provisioner guarantees a usable font set.
type Provisioner interface {
	Provision(ctx context.Context) (Set, error)
	Mode() Mode
	// Ready reports whether Provision can be expected to succeed without user action.
	Ready() error
}

// Options configures New.
type Options struct {
	Dir     string
	URL     string
	Timeout time.Duration
	Logger  *log.Logger
}

// ParseMode accepts "bundled" or "fetch", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBundled:
		return ModeBundled, nil
	case ModeFetch:
		return ModeFetch, nil
	}
	return "", fmt.Errorf("unknown font mode %q", s)
}

// New returns the provisioner for mode.
func New(mode Mode, opts Options) (Provisioner, error) {
	switch mode {
	case ModeBundled:
		return NewBundledProvisioner(opts.Dir, opts.Logger), nil
	case ModeFetch:
		return NewFetchProvisioner(opts), nil
	}
	return nil, fmt.Errorf("unknown font mode %q", mode)
}

// ErrFontUnavailable matches every provisioning failure via errors.Is.
var ErrFontUnavailable = errors.New("font unavailable")

// MissingFontAssetError is returned in bundled mode when a font file is absent.
type MissingFontAssetError struct {
	Path string
	Err  error
}

func (e *MissingFontAssetError) Error() string {
	return fmt.Sprintf("font file %s is missing: place %s and %s next to the application", e.Path, RegularFile, BoldFile)
}

func (e *MissingFontAssetError) Unwrap() error { return e.Err }

func (e *MissingFontAssetError) Is(target error) bool { return target == ErrFontUnavailable }

// FontFetchError is returned when an on-demand download fails.
// StatusCode is zero for transport errors and timeouts.
type FontFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FontFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("font download from %s failed with HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("font download from %s failed: %v", e.URL, e.Err)
}

func (e *FontFetchError) Unwrap() error { return e.Err }

func (e *FontFetchError) Is(target error) bool { return target == ErrFontUnavailable }

// looksLikeFont checks the sfnt version tag of a TrueType or OpenType file.
func looksLikeFont(b []byte) bool {
	if len(b) < 12 {
		return false
	}
	switch string(b[:4]) {
	case "\x00\x01\x00\x00", "true", "OTTO":
		return true
	}
	return false
}
