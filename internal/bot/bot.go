package bot

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"github.com/ytget/pixel-bot/internal/compress"
	"github.com/ytget/pixel-bot/internal/download"
	"github.com/ytget/pixel-bot/internal/metrics"
	"github.com/ytget/pixel-bot/internal/model"
	"github.com/ytget/pixel-bot/internal/session"
)

// Long polling timeout in seconds
const UpdateTimeout = 60

// PlaylistParser lists the entries of a playlist page
type PlaylistParser interface {
	ParsePlaylist(ctx context.Context, url string, limit int) (*model.Playlist, error)
}

// Options tunes the bot. Compressor, Playlists and Metrics are optional.
type Options struct {
	PrivateOnly      bool
	PlaylistLimit    int
	MaxUploadBytes   int64
	ProgressInterval time.Duration

	Compressor compress.Compressor
	Playlists  PlaylistParser
	Metrics    *metrics.Metrics
}

// Bot wires Telegram updates to the session store and the downloader
type Bot struct {
	api        API
	store      session.Store
	downloader download.Downloader
	opts       Options

	wg sync.WaitGroup
}

// New creates a bot
func New(api API, store session.Store, downloader download.Downloader, opts Options) *Bot {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 3 * time.Second
	}
	return &Bot{
		api:        api,
		store:      store,
		downloader: downloader,
		opts:       opts,
	}
}

// Run polls for updates until ctx is cancelled, handling each update on its
// own goroutine. It waits for in-flight handlers before returning.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = UpdateTimeout
	updates := b.api.GetUpdatesChan(u)

	log.Info().Msg("Bot is listening for updates")
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// handleUpdate dispatches one update and never lets a panic escape
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Int("update_id", update.UpdateID).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in update handler")
		}
	}()

	route := Classify(update, b.opts.PrivateOnly)
	b.opts.Metrics.ObserveRequest(route.String())

	switch route {
	case RouteURL:
		b.handleURL(ctx, update.Message)
	case RouteFormat:
		b.handleFormat(ctx, update.CallbackQuery)
	case RouteQuality:
		b.handleQuality(ctx, update.CallbackQuery)
	case RoutePick:
		b.handlePick(ctx, update.CallbackQuery)
	case RouteCommand:
		b.handleCommand(ctx, update.Message)
	default:
		if update.CallbackQuery != nil {
			b.answer(update.CallbackQuery, "")
		}
	}
}
