package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Bios-Marcel/wastebasket/v2"
	"github.com/google/uuid"
)

// Trash moves files to a recoverable location instead of deleting them.
// By default that is the platform trash (freedesktop.org trash, the macOS
// Trash or the Windows recycle bin). When the platform trash fails the file
// goes to a ".trash" directory next to it.
type Trash struct {
	// Dir replaces the platform trash with a plain directory.
	Dir string

	system func(paths ...string) error
}

// NewTrash returns a trash backed by the platform trash.
func NewTrash() *Trash {
	return &Trash{system: wastebasket.Trash}
}

// Trash moves path to the trash.
func (t *Trash) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if _, err := os.Lstat(abs); err != nil {
		return fmt.Errorf("failed to trash %s: %w", path, err)
	}

	var primary error
	switch {
	case t.Dir != "":
		_, primary = moveInto(abs, t.Dir)
	case t.system != nil:
		primary = t.system(abs)
	default:
		primary = errors.New("no trash configured")
	}
	if primary == nil {
		return nil
	}

	if _, err := moveInto(abs, filepath.Join(filepath.Dir(abs), ".trash")); err != nil {
		return fmt.Errorf("failed to trash %s: %w", path, errors.Join(primary, err))
	}
	return nil
}

// moveInto renames abs into dir, picking a fresh name when the base name is
// taken, and returns the new location.
func moveInto(abs, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	base := filepath.Base(abs)
	ext := filepath.Ext(base)
	name := base
	for {
		dest := filepath.Join(dir, name)
		if _, err := os.Lstat(dest); err == nil {
			name = strings.TrimSuffix(base, ext) + "_" + uuid.NewString()[:8] + ext
			continue
		}
		if err := os.Rename(abs, dest); err != nil {
			return "", err
		}
		return dest, nil
	}
}
