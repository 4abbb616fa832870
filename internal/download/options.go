package download

import (
	"context"
	"path/filepath"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/ytget/pixel-bot/internal/model"
)

// yt-dlp option values
const (
	OutputTemplate     = "%(title)s.%(ext)s"
	AudioCodec         = "mp3"
	AudioBitrate       = "256K"
	VideoContainer     = "mp4"
	ThumbnailFormat    = "jpg"
	ProgressUpdateRate = 500 * time.Millisecond
)

// Options is the yt-dlp configuration for one task
type Options struct {
	Format            string
	Output            string
	ExtractAudio      bool
	AudioFormat       string
	AudioQuality      string
	RecodeVideo       string
	WriteThumbnail    bool
	ConvertThumbnails string
	NoPlaylist        bool
}

// Progress is a single progress report from yt-dlp
type Progress struct {
	DownloadedBytes int
	TotalBytes      int
	Started         time.Time
	ETA             time.Duration
	Title           string
}

// Fetched is what yt-dlp reported about the finished download
type Fetched struct {
	Filename string
	Title    string
	Uploader string
}

// Executor runs yt-dlp with opts for url and reports progress through onProgress
type Executor func(ctx context.Context, opts Options, url string, onProgress func(Progress)) (*Fetched, error)

// optionsFor maps a task's format and quality onto yt-dlp options
func optionsFor(task *model.DownloadTask, downloadDir string) Options {
	opts := Options{
		Format:            task.Selector(),
		Output:            filepath.Join(downloadDir, OutputTemplate),
		WriteThumbnail:    true,
		ConvertThumbnails: ThumbnailFormat,
		NoPlaylist:        true,
	}

	if task.Format == model.FormatAudio {
		opts.ExtractAudio = true
		opts.AudioFormat = AudioCodec
		opts.AudioQuality = AudioBitrate
	} else {
		opts.RecodeVideo = VideoContainer
	}

	return opts
}

// command builds the go-ytdlp command for opts
func command(opts Options) *ytdlp.Command {
	dl := ytdlp.New().
		ForceOverwrites().
		RestrictFilenames().
		PrintJSON().
		Format(opts.Format).
		Output(opts.Output)

	if opts.NoPlaylist {
		dl = dl.NoPlaylist()
	}
	if opts.ExtractAudio {
		dl = dl.ExtractAudio().AudioFormat(opts.AudioFormat).AudioQuality(opts.AudioQuality)
	}
	if opts.RecodeVideo != "" {
		dl = dl.RecodeVideo(opts.RecodeVideo)
	}
	if opts.WriteThumbnail {
		dl = dl.WriteThumbnail()
		if opts.ConvertThumbnails != "" {
			dl = dl.ConvertThumbnails(opts.ConvertThumbnails)
		}
	}

	return dl
}

// runYTDLP is the Executor backed by the yt-dlp binary
func runYTDLP(ctx context.Context, opts Options, url string, onProgress func(Progress)) (*Fetched, error) {
	dl := command(opts)

	dl.ProgressFunc(ProgressUpdateRate, func(update ytdlp.ProgressUpdate) {
		p := Progress{
			DownloadedBytes: update.DownloadedBytes,
			TotalBytes:      update.TotalBytes,
			Started:         update.Started,
			ETA:             update.ETA(),
		}
		if update.Info != nil && update.Info.Title != nil {
			p.Title = *update.Info.Title
		}
		onProgress(p)
	})

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, err
	}

	fetched := &Fetched{}
	info, err := result.GetExtractedInfo()
	if err != nil || len(info) == 0 {
		return fetched, nil
	}

	first := info[0]
	if first.Filename != nil {
		fetched.Filename = *first.Filename
	}
	if first.Title != nil {
		fetched.Title = *first.Title
	}
	if first.Uploader != nil {
		fetched.Uploader = *first.Uploader
	}
	return fetched, nil
}
