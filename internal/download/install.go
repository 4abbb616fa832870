package download

import (
	"context"
	"fmt"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog/log"
)

// Install makes sure a yt-dlp binary is available, downloading or updating
// the cached copy when needed.
func Install(ctx context.Context) error {
	resolved, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	log.Info().
		Str("path", resolved.Executable).
		Str("version", resolved.Version).
		Msg("yt-dlp ready")
	return nil
}
