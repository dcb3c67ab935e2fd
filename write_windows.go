//go:build windows

package envgen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// writeFile replaces path with text through a temp file and rename.
// The parent directory must already exist.
func writeFile(logger zerolog.Logger, path, text string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".envgen-*.tmp")
	if err != nil {
		return fmt.Errorf("create pending file %s: %w", path, err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			if err := os.Remove(tmpPath); err != nil {
				logger.Debug().Err(err).Str("path", path).Msg("cleanup pending file")
			}
		}
	}()

	if _, err := tmpFile.WriteString(text); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	// Windows refuses to rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close pending file %s: %w", path, err)
	}
	tmpFile = nil

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}
