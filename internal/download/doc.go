package download

// Package download implements the media fetcher built on top of yt-dlp
// (via github.com/lrstanley/go-ytdlp). It tracks one task per chat, maps the
// audio/video choice onto yt-dlp options, propagates progress and resolves the
// files yt-dlp left on disk into a model.MediaResult.
