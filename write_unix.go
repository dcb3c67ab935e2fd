//go:build !windows

package envgen

import (
	"fmt"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// writeFile atomically replaces path with text.
// The parent directory must already exist.
func writeFile(logger zerolog.Logger, path, text string) error {
	pendingFile, err := renameio.NewPendingFile(path,
		renameio.WithPermissions(0o644),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return fmt.Errorf("create pending file %s: %w", path, err)
	}
	defer func() {
		// No-op once the file has been committed
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Str("path", path).Msg("cleanup pending file")
		}
	}()

	if _, err := pendingFile.WriteString(text); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}

	return nil
}
