package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Artifact is a finished PDF stored under a unique name. Filename is the
// user-facing name, applied only by Publish or at download time.
type Artifact struct {
	Path     string
	Filename string
	Size     int64
}

func (a *Artifact) Open() (*os.File, error) {
	return os.Open(a.Path)
}

// Remove deletes the stored file. Removing twice is not an error.
func (a *Artifact) Remove() error {
	if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Publish moves the artifact into dir under its user-facing filename,
// replacing any previous file of the same name, and returns the new path.
func (a *Artifact) Publish(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create publish dir: %w", err)
	}
	dest := filepath.Join(dir, a.Filename)
	if err := os.Rename(a.Path, dest); err != nil {
		// Rename fails across filesystems; copy through a temp file instead.
		if err := copyFile(a.Path, dest); err != nil {
			return "", fmt.Errorf("publish %s: %w", a.Filename, err)
		}
		os.Remove(a.Path)
	}
	a.Path = dest
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".publish-*.part")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
