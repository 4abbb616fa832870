package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ytget/pixel-bot/internal/compress"
	"github.com/ytget/pixel-bot/internal/download"
	"github.com/ytget/pixel-bot/internal/logging"
	"github.com/ytget/pixel-bot/internal/metrics"
	"github.com/ytget/pixel-bot/internal/model"
	"github.com/ytget/pixel-bot/internal/platform"
)

// runPipeline downloads the selection, uploads the result and cleans up.
// The callback is answered here; its keyboard message becomes the status
// message once a task is registered. A chat that already has a download
// running only gets a toast so the running status is left alone.
func (b *Bot) runPipeline(ctx context.Context, cb *tgbotapi.CallbackQuery, sel *model.Selection, quality model.Quality) {
	chatID := cb.Message.Chat.ID
	logger := logging.ForChat(chatID)

	task, err := b.downloader.AddTask(chatID, sel.URL, sel.Format, quality)
	if err != nil {
		if errors.Is(err, download.ErrTaskActive) {
			b.answer(cb, MsgAlreadyRunning)
			return
		}
		logger.Error().Err(err).Msg("Failed to add download task")
		b.answer(cb, MsgTryAgain)
		return
	}
	b.answer(cb, "")
	logger = logger.With().Str("task_id", task.ID).Logger()

	status := newStatusMessage(b.api, chatID, cb.Message.MessageID, b.opts.ProgressInterval, logger)
	status.Set(MsgDownloadStarted)

	done := b.opts.Metrics.DownloadStarted(string(sel.Format))
	result, err := b.downloader.Run(ctx, task, func(t model.DownloadTask) {
		if t.Status == model.TaskStatusDownloading && t.Percent > 0 {
			status.Progress(progressText(t))
		}
	})
	if rmErr := b.downloader.RemoveTask(task.ID); rmErr != nil {
		logger.Debug().Err(rmErr).Msg("Failed to remove task")
	}

	switch {
	case errors.Is(err, download.ErrStopped):
		done(metrics.ResultCancelled)
		status.Set(MsgDownloadCancelled)
		return
	case err != nil:
		done(metrics.ResultFailure)
		status.Set(MsgDownloadFailed)
		return
	}
	done(metrics.ResultSuccess)

	files := result.Files()
	workDir := result.Dir
	defer func() {
		if err := platform.RemoveFiles(files...); err != nil {
			logger.Warn().Err(err).Msg("Failed to clean up files")
		}
		if err := platform.RemoveDirectory(workDir); err != nil {
			logger.Warn().Err(err).Msg("Failed to clean up task directory")
		}
	}()

	if b.opts.MaxUploadBytes > 0 && result.Size > b.opts.MaxUploadBytes {
		shrunk, ok := b.shrink(ctx, status, result, sel.Format)
		if !ok {
			b.opts.Metrics.ObserveUpload(string(sel.Format), metrics.ResultTooLarge)
			status.Set(MsgTooLarge)
			return
		}
		files = append(files, shrunk.FilePath)
		result = shrunk
	}

	var thumb string
	if result.ThumbnailPath != "" {
		prepared, err := platform.PrepareThumbnail(result.ThumbnailPath)
		if err != nil {
			logger.Debug().Err(err).Msg("Skipping thumbnail")
		} else {
			thumb = prepared
			files = append(files, prepared)
		}
	}

	status.Set(MsgUploading)
	if _, err := b.api.Send(uploadConfig(chatID, result, sel.Format, thumb)); err != nil {
		logger.Error().Err(err).Msg("Upload failed")
		b.opts.Metrics.ObserveUpload(string(sel.Format), metrics.ResultFailure)
		status.Set(MsgUploadFailed)
		return
	}

	b.opts.Metrics.ObserveUpload(string(sel.Format), metrics.ResultSuccess)
	logger.Info().Str("title", result.DisplayTitle()).Int64("size", result.Size).Msg("Media delivered")
	status.Delete()
}

// shrink re-encodes an oversize video once. Audio is never re-encoded.
func (b *Bot) shrink(ctx context.Context, status *statusMessage, result *model.MediaResult, format model.Format) (*model.MediaResult, bool) {
	if format != model.FormatVideo || b.opts.Compressor == nil {
		return nil, false
	}

	logger := logging.ForChat(status.chatID)
	status.Set(MsgCompressing)

	out, err := b.opts.Compressor.Shrink(ctx, result.FilePath, b.opts.MaxUploadBytes, func(percent int) {
		status.Progress(compressText(percent))
	})
	if err != nil {
		if !errors.Is(err, compress.ErrStillTooLarge) {
			logger.Error().Err(err).Msg("Compression failed")
		}
		return nil, false
	}

	size, err := platform.FileSize(out)
	if err != nil {
		logger.Error().Err(err).Msg("Compressed file missing")
		return nil, false
	}

	shrunk := *result
	shrunk.FilePath = out
	shrunk.Size = size
	return &shrunk, true
}

// uploadConfig builds sendAudio or sendVideo for the result
func uploadConfig(chatID int64, result *model.MediaResult, format model.Format, thumb string) tgbotapi.Chattable {
	if format == model.FormatAudio {
		audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(result.FilePath))
		audio.Title = result.DisplayTitle()
		audio.Performer = result.Uploader
		audio.Duration = result.Duration
		if thumb != "" {
			audio.Thumb = tgbotapi.FilePath(thumb)
		}
		return audio
	}

	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(result.FilePath))
	video.Duration = result.Duration
	video.SupportsStreaming = true
	video.Caption = videoCaption(result)
	if thumb != "" {
		video.Thumb = tgbotapi.FilePath(thumb)
	}
	return video
}

// videoCaption is the title followed by the resolution when known
func videoCaption(result *model.MediaResult) string {
	parts := []string{result.DisplayTitle()}
	if res := result.Resolution(); res != "" {
		parts = append(parts, res)
	}
	return strings.Join(parts, " · ")
}
