package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// API is the part of *tgbotapi.BotAPI the bot relies on
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// NewAPI authorizes against the Bot API. An empty endpoint uses the official one.
func NewAPI(token, endpoint string) (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(botLogger{}); err != nil {
		return nil, fmt.Errorf("failed to set bot logger: %w", err)
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create new Bot API: %w", err)
	}
	log.Info().Str("username", api.Self.UserName).Msg("Authorized on Telegram")
	return api, nil
}

// botLogger routes the library's log lines into zerolog
type botLogger struct{}

func (botLogger) Println(v ...interface{}) {
	log.Debug().Str("component", "tgbotapi").Msg(fmt.Sprint(v...))
}

func (botLogger) Printf(format string, v ...interface{}) {
	log.Debug().Str("component", "tgbotapi").Msgf(format, v...)
}
