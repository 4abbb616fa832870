package bot

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ytget/pixel-bot/internal/model"
)

// Button labels
const (
	LabelAudio = "Audio"
	LabelVideo = "Video"

	maxPickLabel = 48
)

func formatKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(LabelAudio, model.FormatAudio.CallbackData()),
			tgbotapi.NewInlineKeyboardButtonData(LabelVideo, model.FormatVideo.CallbackData()),
		),
	)
}

func qualityKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(model.Qualities()))
	for _, q := range model.Qualities() {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(string(q), q.CallbackData()))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// pickKeyboard lists playlist entries one per row
func pickKeyboard(videos []*model.PlaylistVideo) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(videos))
	for i, v := range videos {
		label := fmt.Sprintf("%d. %s", i+1, truncate(v.Title, maxPickLabel))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, model.PickCallbackPrefix+strconv.Itoa(i)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

// pickText heads the pick list with the playlist title when one is known
func pickText(title string) string {
	if title == "" {
		return MsgPickVideo
	}
	return title + "\n\n" + MsgPickVideo
}
