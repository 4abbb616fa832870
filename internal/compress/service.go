package compress

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// FFmpeg constants for compression settings
const (
	// Video codec settings
	VideoCodec  = "libx264"
	VideoPreset = "medium"
	VideoCRF    = "23"

	// Audio codec settings
	AudioCodec   = "aac"
	AudioBitrate = "128k"

	// Container flags
	FastStartFlag = "+faststart"

	// Output suffix
	CompressedSuffix = "-compressed"

	// Executable and I/O constants
	FFmpegCommand      = "ffmpeg"
	FFprobeCommand     = "ffprobe"
	FFprobeLogLevel    = "error"
	FFprobeShowEntries = "stream=width,height:format=duration"
	FFprobeOutputJSON  = "json"
	ProgressPipeTarget = "pipe:2"
	ProgressTimePrefix = "out_time_us="
	OutputExtensionMP4 = ".mp4"
)

// ErrStillTooLarge is returned when re-encoding did not bring the file under the ceiling
var ErrStillTooLarge = errors.New("file is still too large after compression")

// MediaInfo is what ffprobe reports about a fetched file
type MediaInfo struct {
	Duration float64 // seconds
	Width    int
	Height   int
}

// Seconds returns the duration rounded to whole seconds
func (m *MediaInfo) Seconds() int {
	return int(math.Round(m.Duration))
}

// Service wraps the ffmpeg and ffprobe executables
type Service struct {
	ffmpeg  string
	ffprobe string
}

// NewService creates a new compression service
func NewService() *Service {
	return &Service{
		ffmpeg:  FFmpegCommand,
		ffprobe: FFprobeCommand,
	}
}

// Probe reads duration and the first video stream's dimensions with ffprobe.
// Audio-only files report zero dimensions.
func (s *Service) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, s.ffprobe,
		"-v", FFprobeLogLevel,
		"-select_streams", "v:0",
		"-show_entries", FFprobeShowEntries,
		"-of", FFprobeOutputJSON,
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run ffprobe: %w", err)
	}
	return parseProbeOutput(output)
}

// Shrink re-encodes inputPath once with the H.264/AAC profile. It returns the
// new path, or ErrStillTooLarge (with the new file removed) when the result
// still exceeds maxBytes. The caller owns the returned file.
func (s *Service) Shrink(ctx context.Context, inputPath string, maxBytes int64, onProgress func(percent int)) (string, error) {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return "", fmt.Errorf("input file does not exist: %s", inputPath)
	}

	// Duration only drives progress reporting
	var duration float64
	if info, err := s.Probe(ctx, inputPath); err == nil {
		duration = info.Duration
	} else {
		log.Warn().Err(err).Str("path", inputPath).Msg("Failed to probe duration before compression")
	}

	outputPath := generateOutputPath(inputPath)
	cmd := exec.CommandContext(ctx, s.ffmpeg, s.BuildFFmpegArgs(inputPath, outputPath)...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		monitorProgress(stderr, duration, onProgress)
	}()

	<-done
	if err := cmd.Wait(); err != nil {
		os.Remove(outputPath)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %w", err)
	}

	stat, err := os.Stat(outputPath)
	if err != nil {
		return "", fmt.Errorf("compressed output missing: %w", err)
	}
	if maxBytes > 0 && stat.Size() > maxBytes {
		os.Remove(outputPath)
		return "", ErrStillTooLarge
	}

	return outputPath, nil
}

// BuildFFmpegArgs builds the ffmpeg command arguments
func (s *Service) BuildFFmpegArgs(inputPath, outputPath string) []string {
	return []string{
		"-y",            // Overwrite output file
		"-i", inputPath, // Input file
		"-c:v", VideoCodec, // Video codec
		"-preset", VideoPreset, // Encoding preset
		"-crf", VideoCRF, // Constant rate factor
		"-c:a", AudioCodec, // Audio codec
		"-b:a", AudioBitrate, // Audio bitrate
		"-movflags", FastStartFlag, // MP4 optimization
		"-progress", ProgressPipeTarget, // Progress to stderr
		"-nostats", // No stats output
		outputPath, // Output file
	}
}

type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// parseProbeOutput decodes ffprobe's JSON writer output
func parseProbeOutput(output []byte) (*MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &MediaInfo{}
	if d := strings.TrimSpace(out.Format.Duration); d != "" {
		duration, err := strconv.ParseFloat(d, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse duration: %w", err)
		}
		info.Duration = duration
	}
	if len(out.Streams) > 0 {
		info.Width = out.Streams[0].Width
		info.Height = out.Streams[0].Height
	}
	return info, nil
}

// monitorProgress turns ffmpeg -progress lines into percentages
func monitorProgress(stderr io.Reader, totalDuration float64, onProgress func(percent int)) {
	scanner := bufio.NewScanner(stderr)
	last := -1

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Parse progress line: out_time_us=123456
		if !strings.HasPrefix(line, ProgressTimePrefix) {
			continue
		}
		timeMicroseconds, err := strconv.ParseInt(strings.TrimPrefix(line, ProgressTimePrefix), 10, 64)
		if err != nil || totalDuration <= 0 {
			continue
		}

		progress := float64(timeMicroseconds) / 1000000.0 / totalDuration
		if progress > 1.0 {
			progress = 1.0
		}
		percent := int(progress * 100)
		if percent != last && onProgress != nil {
			last = percent
			onProgress(percent)
		}
	}
}

// generateOutputPath generates the output path for compressed file
func generateOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	baseName := strings.TrimSuffix(inputPath, ext)
	return baseName + CompressedSuffix + OutputExtensionMP4
}
