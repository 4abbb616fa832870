package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ytget/pixel-bot/internal/download"
	"github.com/ytget/pixel-bot/internal/logging"
	"github.com/ytget/pixel-bot/internal/model"
	"github.com/ytget/pixel-bot/internal/platform"
	"github.com/ytget/pixel-bot/internal/session"
)

// handleURL stores the link and offers the format keyboard
func (b *Bot) handleURL(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	logger := logging.ForChat(chatID)
	text := strings.TrimSpace(msg.Text)

	if b.opts.Playlists != nil && platform.IsPlaylistURL(text) {
		b.handlePlaylist(ctx, chatID, text)
		return
	}

	if err := b.store.Put(ctx, chatID, model.NewSelection(text)); err != nil {
		logger.Error().Err(err).Msg("Failed to store selection")
		b.reply(chatID, MsgTryAgain, nil)
		return
	}

	logger.Debug().Str("url", text).Msg("Link received")
	b.reply(chatID, MsgSelectFormat, formatKeyboard())
}

// handlePlaylist lists a playlist page and lets the user pick one entry
func (b *Bot) handlePlaylist(ctx context.Context, chatID int64, url string) {
	logger := logging.ForChat(chatID)

	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, MsgFetchingPlaylist))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to send playlist status")
		return
	}

	playlist, err := b.opts.Playlists.ParsePlaylist(ctx, url, b.opts.PlaylistLimit)
	if err != nil || len(playlist.Videos) == 0 {
		logger.Warn().Err(err).Str("url", url).Msg("Failed to list playlist")
		b.edit(chatID, sent.MessageID, MsgPlaylistFailed, nil)
		return
	}

	videos := playlist.Head(b.opts.PlaylistLimit)
	sel := model.NewSelection(url)
	sel.Candidates = playlist.URLs(b.opts.PlaylistLimit)
	if err := b.store.Put(ctx, chatID, sel); err != nil {
		logger.Error().Err(err).Msg("Failed to store selection")
		b.edit(chatID, sent.MessageID, MsgTryAgain, nil)
		return
	}

	keyboard := pickKeyboard(videos)
	b.edit(chatID, sent.MessageID, pickText(playlist.Title), &keyboard)
}

// handlePick narrows a playlist selection to one entry
func (b *Bot) handlePick(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	sel, ok := b.loadSelection(ctx, chatID)
	if !ok || len(sel.Candidates) == 0 {
		b.answer(cb, MsgLinkExpired)
		return
	}

	index, err := strconv.Atoi(strings.TrimPrefix(cb.Data, model.PickCallbackPrefix))
	if err != nil || index < 0 || index >= len(sel.Candidates) {
		b.answer(cb, MsgInvalidPick)
		return
	}

	picked := model.NewSelection(sel.Candidates[index])
	if err := b.store.Put(ctx, chatID, picked); err != nil {
		logging.ForChat(chatID).Error().Err(err).Msg("Failed to store selection")
		b.answer(cb, MsgTryAgain)
		return
	}

	b.answer(cb, "")
	keyboard := formatKeyboard()
	b.edit(chatID, cb.Message.MessageID, MsgSelectFormat, &keyboard)
}

// handleFormat applies the audio/video choice
func (b *Bot) handleFormat(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	sel, ok := b.loadSelection(ctx, chatID)
	if !ok {
		b.answer(cb, MsgLinkExpired)
		return
	}

	format, err := model.ParseFormat(cb.Data)
	if err != nil {
		b.answer(cb, MsgInvalidFormat)
		return
	}

	sel.Format = format
	sel.Candidates = nil
	if err := b.store.Put(ctx, chatID, sel); err != nil {
		logging.ForChat(chatID).Error().Err(err).Msg("Failed to store selection")
		b.answer(cb, MsgTryAgain)
		return
	}

	if format == model.FormatVideo {
		b.answer(cb, "")
		keyboard := qualityKeyboard()
		b.edit(chatID, cb.Message.MessageID, MsgSelectQuality, &keyboard)
		return
	}

	b.runPipeline(ctx, cb, sel, model.QualityNone)
}

// handleQuality starts the video pipeline for the chosen tier
func (b *Bot) handleQuality(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	sel, ok := b.loadSelection(ctx, chatID)
	if !ok || !sel.IsVideo() {
		b.answer(cb, MsgSelectionExpired)
		return
	}

	quality, err := model.ParseQuality(cb.Data)
	if err != nil {
		b.answer(cb, MsgInvalidQuality)
		return
	}

	b.runPipeline(ctx, cb, sel, quality)
}

// handleCommand serves /start, /help and /cancel
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case CommandCancel:
		err := b.downloader.StopTask(chatID)
		switch {
		case err == nil:
			b.reply(chatID, MsgCancelling, nil)
		case errors.Is(err, download.ErrNoActiveTask):
			if _, ok := b.loadSelection(ctx, chatID); ok {
				if err := b.store.Delete(ctx, chatID); err != nil {
					logging.ForChat(chatID).Error().Err(err).Msg("Failed to delete selection")
				}
				b.reply(chatID, MsgSelectionCleared, nil)
				return
			}
			b.reply(chatID, MsgNothingToCancel, nil)
		default:
			logging.ForChat(chatID).Error().Err(err).Msg("Failed to stop download")
			b.reply(chatID, MsgTryAgain, nil)
		}
	default:
		b.reply(chatID, MsgHelp, nil)
	}
}

// loadSelection returns the chat's live selection. Missing, expired and
// URL-less records all report false.
func (b *Bot) loadSelection(ctx context.Context, chatID int64) (*model.Selection, bool) {
	sel, err := b.store.Get(ctx, chatID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			logging.ForChat(chatID).Error().Err(err).Msg("Failed to load selection")
		}
		return nil, false
	}
	if !sel.HasURL() {
		return nil, false
	}
	return sel, true
}

func (b *Bot) reply(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		logging.ForChat(chatID).Warn().Err(err).Msg("Failed to send message")
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = markup
	if _, err := b.api.Send(edit); err != nil {
		logging.ForChat(chatID).Warn().Err(err).Msg("Failed to edit message")
	}
}

// answer acknowledges a callback, optionally with a toast
func (b *Bot) answer(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		var chatID int64
		if cb.Message != nil && cb.Message.Chat != nil {
			chatID = cb.Message.Chat.ID
		}
		logging.ForChat(chatID).Warn().Err(err).Msg("Failed to answer callback")
	}
}
