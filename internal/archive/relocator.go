package archive

import (
	"fmt"
	"os"
	"path/filepath"
)

// Relocator moves a processed file into its archive location. The move is a
// rename, never a copy+delete, so a crash mid-move cannot leave a duplicate.
type Relocator struct{}

func NewRelocator() Relocator {
	return Relocator{}
}

func (Relocator) Relocate(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("move %s to %s: %w", src, dest, err)
	}
	return nil
}
