package bot

import (
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ytget/pixel-bot/internal/model"
)

// Route is the handler an update is dispatched to
type Route int

const (
	RouteIgnore Route = iota
	RouteURL
	RouteFormat
	RouteQuality
	RoutePick
	RouteCommand
)

// Supported commands
const (
	CommandStart  = "start"
	CommandHelp   = "help"
	CommandCancel = "cancel"
)

// Accepts the same hosts as platform.IsPlaylistURL
var urlPattern = regexp.MustCompile(`^(https?://)?((www|m|music)\.)?(youtube\.com|youtu\.be)/.+$`)

func (r Route) String() string {
	switch r {
	case RouteURL:
		return "url"
	case RouteFormat:
		return "format"
	case RouteQuality:
		return "quality"
	case RoutePick:
		return "pick"
	case RouteCommand:
		return "command"
	default:
		return "ignore"
	}
}

// IsVideoURL reports whether text is a link the bot accepts
func IsVideoURL(text string) bool {
	return urlPattern.MatchString(strings.TrimSpace(text))
}

// Classify picks the route for an update. With privateOnly set, messages
// from groups and channels are ignored.
func Classify(update tgbotapi.Update, privateOnly bool) Route {
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return RouteIgnore
		}
		switch {
		case strings.HasPrefix(cb.Data, model.FormatCallbackPrefix):
			return RouteFormat
		case strings.HasPrefix(cb.Data, model.QualityCallbackPrefix):
			return RouteQuality
		case strings.HasPrefix(cb.Data, model.PickCallbackPrefix):
			return RoutePick
		default:
			return RouteIgnore
		}
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return RouteIgnore
	}
	if privateOnly && !msg.Chat.IsPrivate() {
		return RouteIgnore
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case CommandStart, CommandHelp, CommandCancel:
			return RouteCommand
		}
		return RouteIgnore
	}

	if IsVideoURL(msg.Text) {
		return RouteURL
	}
	return RouteIgnore
}
