package bot

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/ytget/pixel-bot/internal/model"
	"golang.org/x/time/rate"
)

// statusMessage is the single bot message edited as the pipeline advances.
// Progress edits are rate limited; final texts always go through.
type statusMessage struct {
	api       API
	chatID    int64
	messageID int
	limiter   *rate.Limiter
	logger    zerolog.Logger

	mu   sync.Mutex
	last string
}

func newStatusMessage(api API, chatID int64, messageID int, interval time.Duration, logger zerolog.Logger) *statusMessage {
	return &statusMessage{
		api:       api,
		chatID:    chatID,
		messageID: messageID,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		logger:    logger,
	}
}

// Set replaces the text and drops any inline keyboard
func (s *statusMessage) Set(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Telegram rejects edits that change nothing
	if text == s.last {
		return
	}
	if _, err := s.api.Send(tgbotapi.NewEditMessageText(s.chatID, s.messageID, text)); err != nil {
		s.logger.Warn().Err(err).Str("text", text).Msg("Failed to edit status message")
		return
	}
	s.last = text
}

// Progress is Set limited to one edit per interval
func (s *statusMessage) Progress(text string) {
	if !s.limiter.Allow() {
		return
	}
	s.Set(text)
}

// Delete removes the status message
func (s *statusMessage) Delete() {
	if _, err := s.api.Request(tgbotapi.NewDeleteMessage(s.chatID, s.messageID)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to delete status message")
	}
}

// progressText renders "Downloading... 42% · 1.2MB/s · ETA 00:31"
func progressText(task model.DownloadTask) string {
	parts := []string{fmt.Sprintf("Downloading... %d%%", task.Percent)}
	if task.Speed != "" {
		parts = append(parts, task.Speed)
	}
	if task.ETASec > 0 {
		parts = append(parts, "ETA "+task.GetETAString())
	}
	return strings.Join(parts, " · ")
}

func compressText(percent int) string {
	return fmt.Sprintf("%s %d%%", MsgCompressing, percent)
}
