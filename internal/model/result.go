package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MediaResult describes a fetched file ready for upload
type MediaResult struct {
	FilePath      string
	ThumbnailPath string // empty when the extractor wrote no thumbnail
	Title         string
	Uploader      string
	Duration      int // seconds
	Width         int
	Height        int
	Size          int64 // bytes
	Dir           string // task work directory, removed with the files
}

// Files returns every local file owned by the result, for cleanup
func (r *MediaResult) Files() []string {
	files := make([]string, 0, 2)
	if r.FilePath != "" {
		files = append(files, r.FilePath)
	}
	if r.ThumbnailPath != "" {
		files = append(files, r.ThumbnailPath)
	}
	return files
}

// DisplayTitle returns the title or the file base name
func (r *MediaResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	base := filepath.Base(r.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Resolution returns "WxH" or an empty string when unknown
func (r *MediaResult) Resolution() string {
	if r.Width <= 0 || r.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}
