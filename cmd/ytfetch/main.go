// Command ytfetch runs the media fetcher for one URL without Telegram.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ytget/pixel-bot/internal/compress"
	"github.com/ytget/pixel-bot/internal/download"
	"github.com/ytget/pixel-bot/internal/logging"
	"github.com/ytget/pixel-bot/internal/model"
	"github.com/ytget/pixel-bot/internal/platform"
)

// CLI flags
var (
	audioFlag    bool
	qualityFlag  string
	outputFlag   string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "ytfetch <url>",
	Short: "Download a YouTube link the way the bot does",
	Example: `  ytfetch --audio https://youtu.be/dQw4w9WgXcQ
  ytfetch --quality 1080p -o ./out https://www.youtube.com/watch?v=dQw4w9WgXcQ`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().BoolVar(&audioFlag, "audio", false, "Extract mp3 audio instead of video")
	rootCmd.Flags().StringVar(&qualityFlag, "quality", string(model.Quality720p), "Video quality (480p, 720p, 1080p)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "downloads", "Output directory")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "info", "Log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logging.Init(logLevelFlag)

	format := model.FormatVideo
	quality := model.QualityNone
	if audioFlag {
		format = model.FormatAudio
	} else {
		q, err := model.ParseQuality(qualityFlag)
		if err != nil {
			return err
		}
		quality = q
	}

	if err := platform.CreateDirectoryIfNotExists(outputFlag); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := download.NewService(outputFlag, compress.NewService())
	task, err := svc.AddTask(0, args[0], format, quality)
	if err != nil {
		return err
	}

	result, err := svc.Run(ctx, task, func(t model.DownloadTask) {
		if t.Status == model.TaskStatusDownloading && t.Percent > 0 {
			log.Info().Int("percent", t.Percent).Str("speed", t.Speed).Str("eta", t.GetETAString()).Msg("Downloading")
		}
	})
	if err != nil {
		return err
	}

	fmt.Printf("File:      %s\n", result.FilePath)
	if finished, ok := svc.GetTask(task.ID); ok {
		fmt.Printf("Elapsed:   %s\n", finished.FinishedAt.Sub(finished.StartedAt).Round(time.Second))
	}
	fmt.Printf("Title:     %s\n", result.DisplayTitle())
	fmt.Printf("Size:      %d bytes\n", result.Size)
	fmt.Printf("Duration:  %s\n", model.FormatClock(result.Duration))
	if res := result.Resolution(); res != "" {
		fmt.Printf("Resolution: %s\n", res)
	}
	if result.ThumbnailPath != "" {
		fmt.Printf("Thumbnail: %s\n", result.ThumbnailPath)
	}
	return nil
}
