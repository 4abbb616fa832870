package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/pixel-bot/internal/bot"
	"github.com/ytget/pixel-bot/internal/compress"
	"github.com/ytget/pixel-bot/internal/config"
	"github.com/ytget/pixel-bot/internal/download"
	"github.com/ytget/pixel-bot/internal/logging"
	"github.com/ytget/pixel-bot/internal/metrics"
	"github.com/ytget/pixel-bot/internal/platform"
	"github.com/ytget/pixel-bot/internal/session"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

// CLI flags
var (
	envFileFlag  string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "pixel",
	Short: "Telegram bot that turns YouTube links into audio and video files",
	Long: `pixel listens for YouTube links in private chats, asks whether the user
wants audio (mp3) or video (480p, 720p, 1080p) and uploads the result.

Configuration comes from the environment or a .env file:
  BOT_TOKEN, REDIS_HOST and REDIS_PORT are required.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&envFileFlag, "env-file", ".env", "Optional .env file to load")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(envFileFlag)
	if err != nil {
		logging.Init(logLevelFlag)
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}
	if logLevelFlag != "" {
		settings.Set(config.KeyLogLevel, logLevelFlag)
	}
	logging.Init(settings.GetLogLevel())
	log.Info().Str("version", version).Msg("pixel starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.GetYTDLPInstall() {
		if err := download.Install(ctx); err != nil {
			return err
		}
	}

	downloadDir := settings.GetDownloadDirectory()
	if err := platform.CreateDirectoryIfNotExists(downloadDir); err != nil {
		log.Error().Err(err).Str("dir", downloadDir).Msg("Failed to create download directory")
		return err
	}

	store := openStore(ctx, settings)

	api, err := bot.NewAPI(settings.GetBotToken(), settings.GetBotAPIEndpoint())
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to Telegram")
		return err
	}

	compressSvc := compress.NewService()
	downloadSvc := download.NewService(downloadDir, compressSvc)

	var m *metrics.Metrics
	if settings.GetMetricsAddr() != "" {
		m = metrics.New()
	}

	b := bot.New(api, store, downloadSvc, bot.Options{
		PrivateOnly:      settings.GetPrivateOnly(),
		PlaylistLimit:    settings.GetPlaylistLimit(),
		MaxUploadBytes:   settings.GetMaxUploadBytes(),
		ProgressInterval: settings.GetProgressInterval(),
		Compressor:       compressSvc,
		Playlists:        platform.NewPlaylistService(),
		Metrics:          m,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Run(gctx)
	})
	if m != nil {
		g.Go(func() error {
			return m.Serve(gctx, settings.GetMetricsAddr())
		})
	}

	err = g.Wait()
	closeStore(store)
	log.Info().Msg("pixel stopped")
	return err
}

// openStore connects to Redis, falling back to an in-process store when the
// server is unreachable at startup.
func openStore(ctx context.Context, settings *config.Settings) session.Store {
	ttl := settings.GetSessionTTL()
	store, err := session.NewRedisStore(ctx, &redis.Options{
		Addr:     settings.GetRedisAddr(),
		Password: settings.GetRedisPassword(),
		DB:       settings.GetRedisDB(),
	}, ttl)
	if err != nil {
		log.Warn().Err(err).Str("addr", settings.GetRedisAddr()).Msg("Redis unavailable, keeping selections in memory")
		return session.NewMemoryStore(ttl)
	}
	log.Info().Str("addr", settings.GetRedisAddr()).Dur("ttl", ttl).Msg("Session store ready")
	return store
}

// closeStore releases the store's connection, if it holds one
func closeStore(store session.Store) {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close session store")
	}
}
