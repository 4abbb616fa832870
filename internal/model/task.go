package model

import (
	"fmt"
	"time"
)

// DownloadTask represents a single fetch requested from a chat
type DownloadTask struct {
	ID         string
	ChatID     int64
	URL        string
	Format     Format
	Quality    Quality
	Status     TaskStatus
	Progress   float64   // 0.0 to 1.0
	Percent    int       // 0 to 100
	Speed      string    // human readable speed (e.g., "1.2MB/s")
	ETASec     int       // ETA in seconds, -1 if unknown
	LastError  string    // last error message if any
	WorkDir    string    // per-task directory holding every file yt-dlp writes
	OutputPath string    // path to downloaded file
	StartedAt  time.Time // when download started
	FinishedAt time.Time // when download finished
	Title      string    // video title
}

// Selector returns the yt-dlp format selector for the task
func (dt *DownloadTask) Selector() string {
	if dt.Format == FormatAudio {
		return AudioSelector
	}
	return dt.Quality.Selector()
}

// GetETAString returns ETA formatted as hh:mm:ss, or "—" if unknown
func (dt *DownloadTask) GetETAString() string {
	if dt.ETASec <= 0 {
		return "—"
	}
	return FormatClock(dt.ETASec)
}

// FormatClock renders seconds as mm:ss, or hh:mm:ss past one hour
func FormatClock(total int) string {
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
