package platform

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// Telegram accepts JPEG thumbnails up to 320px on each side and 200 kB
const (
	ThumbnailMaxDimension = 320
	ThumbnailMaxBytes     = 200 * 1024
	ThumbnailSuffix       = "-thumb.jpg"
)

var thumbnailQualities = []int{90, 75, 60, 45}

// PrepareThumbnail converts an image written by yt-dlp into a Telegram-ready
// JPEG next to it and returns the new path. The caller owns the new file.
func PrepareThumbnail(srcPath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(srcPath))

	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open thumbnail: %w", err)
	}
	defer f.Close()

	var img image.Image
	switch ext {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	case ".png":
		img, err = png.Decode(f)
	case ".webp":
		img, err = webp.Decode(f)
	default:
		return "", fmt.Errorf("unsupported thumbnail format: %s", ext)
	}
	if err != nil {
		return "", fmt.Errorf("failed to decode thumbnail: %w", err)
	}

	bounds := img.Bounds()
	newWidth, newHeight := calculateThumbnailDimensions(bounds.Dx(), bounds.Dy(), ThumbnailMaxDimension)
	if newWidth != bounds.Dx() || newHeight != bounds.Dy() {
		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	}

	var buf bytes.Buffer
	for _, quality := range thumbnailQualities {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", fmt.Errorf("failed to encode thumbnail: %w", err)
		}
		if buf.Len() <= ThumbnailMaxBytes {
			break
		}
	}

	dstPath := strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + ThumbnailSuffix
	if err := os.WriteFile(dstPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write thumbnail: %w", err)
	}

	log.Debug().
		Str("path", srcPath).
		Int("orig_width", bounds.Dx()).
		Int("orig_height", bounds.Dy()).
		Int("new_width", newWidth).
		Int("new_height", newHeight).
		Int("output_size", buf.Len()).
		Msg("Thumbnail prepared")

	return dstPath, nil
}

// calculateThumbnailDimensions fits width x height into a maxDimension square keeping the aspect ratio
func calculateThumbnailDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}
	if width >= height {
		h := height * maxDimension / width
		return maxDimension, max(h, 1)
	}
	w := width * maxDimension / height
	return max(w, 1), maxDimension
}
