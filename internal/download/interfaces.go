package download

import (
	"context"

	"github.com/ytget/pixel-bot/internal/compress"
	"github.com/ytget/pixel-bot/internal/model"
)

// Downloader defines the interface for the download service.
type Downloader interface {
	AddTask(chatID int64, url string, format model.Format, quality model.Quality) (*model.DownloadTask, error)
	Run(ctx context.Context, task *model.DownloadTask, onUpdate func(model.DownloadTask)) (*model.MediaResult, error)
	StopTask(chatID int64) error
	RemoveTask(id string) error
}

// Prober reads duration and dimensions of a fetched file.
type Prober interface {
	Probe(ctx context.Context, path string) (*compress.MediaInfo, error)
}
