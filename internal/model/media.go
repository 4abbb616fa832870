package model

import (
	"fmt"
	"strings"
)

// Format is the output kind the user picked for a link
type Format string

const (
	FormatNone  Format = ""
	FormatAudio Format = "audio"
	FormatVideo Format = "video"
)

// Callback data prefixes shared by keyboards and the router
const (
	FormatCallbackPrefix  = "format_"
	QualityCallbackPrefix = "quality_"
	PickCallbackPrefix    = "pick_"
)

// ParseFormat maps callback data such as "format_audio" to a Format
func ParseFormat(data string) (Format, error) {
	switch Format(strings.TrimPrefix(data, FormatCallbackPrefix)) {
	case FormatAudio:
		return FormatAudio, nil
	case FormatVideo:
		return FormatVideo, nil
	default:
		return FormatNone, fmt.Errorf("unknown format: %q", data)
	}
}

// CallbackData returns the inline button payload for the format
func (f Format) CallbackData() string {
	return FormatCallbackPrefix + string(f)
}

// Extension returns the container the post-processor produces for the format
func (f Format) Extension() string {
	if f == FormatAudio {
		return ".mp3"
	}
	return ".mp4"
}

// Quality is a video resolution tier
type Quality string

const (
	QualityNone  Quality = ""
	Quality480p  Quality = "480p"
	Quality720p  Quality = "720p"
	Quality1080p Quality = "1080p"
)

// Format selectors passed to yt-dlp
const (
	AudioSelector = "bestaudio/best"

	selector480p  = "bestvideo[height<=480][width<=854]+bestaudio/best"
	selector720p  = "bestvideo[height<=720][width<=1280]+bestaudio/best"
	selector1080p = "bestvideo[height<=1080][width<=1920]+bestaudio/best"
)

var qualitySelectors = map[Quality]string{
	Quality480p:  selector480p,
	Quality720p:  selector720p,
	Quality1080p: selector1080p,
}

// Qualities returns the tiers in keyboard order
func Qualities() []Quality {
	return []Quality{Quality480p, Quality720p, Quality1080p}
}

// ParseQuality maps callback data such as "quality_720p" (or a bare "720p") to a tier
func ParseQuality(data string) (Quality, error) {
	q := Quality(strings.TrimPrefix(data, QualityCallbackPrefix))
	if _, ok := qualitySelectors[q]; !ok {
		return QualityNone, fmt.Errorf("unknown quality: %q", data)
	}
	return q, nil
}

// Selector returns the yt-dlp format selector for the tier
func (q Quality) Selector() string {
	return qualitySelectors[q]
}

// CallbackData returns the inline button payload for the tier
func (q Quality) CallbackData() string {
	return QualityCallbackPrefix + string(q)
}
