package platform

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
}

func TestPrepareThumbnail(t *testing.T) {
	tests := []struct {
		name           string
		width, height  int
		expectedWidth  int
		expectedHeight int
	}{
		{"landscape", 640, 360, 320, 180},
		{"portrait", 360, 640, 180, 320},
		{"small", 100, 50, 100, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "Clip.png")
			writePNG(t, src, tt.width, tt.height)

			dst, err := PrepareThumbnail(src)
			if err != nil {
				t.Fatalf("PrepareThumbnail failed: %v", err)
			}

			expectedPath := filepath.Join(filepath.Dir(src), "Clip"+ThumbnailSuffix)
			if dst != expectedPath {
				t.Errorf("Expected path %s, got %s", expectedPath, dst)
			}

			f, err := os.Open(dst)
			if err != nil {
				t.Fatalf("Failed to open thumbnail: %v", err)
			}
			defer f.Close()

			img, err := jpeg.Decode(f)
			if err != nil {
				t.Fatalf("Thumbnail is not a JPEG: %v", err)
			}
			if img.Bounds().Dx() != tt.expectedWidth || img.Bounds().Dy() != tt.expectedHeight {
				t.Errorf("Expected %dx%d, got %dx%d", tt.expectedWidth, tt.expectedHeight, img.Bounds().Dx(), img.Bounds().Dy())
			}

			size, err := FileSize(dst)
			if err != nil {
				t.Fatalf("FileSize failed: %v", err)
			}
			if size > ThumbnailMaxBytes {
				t.Errorf("Expected thumbnail under %d bytes, got %d", ThumbnailMaxBytes, size)
			}
		})
	}
}

func TestPrepareThumbnail_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := PrepareThumbnail(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}

	gif := filepath.Join(dir, "anim.gif")
	if err := os.WriteFile(gif, []byte("GIF89a"), 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if _, err := PrepareThumbnail(gif); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}

	broken := filepath.Join(dir, "broken.webp")
	if err := os.WriteFile(broken, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if _, err := PrepareThumbnail(broken); err == nil {
		t.Error("Expected error for undecodable image, got nil")
	}
}

func TestCalculateThumbnailDimensions(t *testing.T) {
	tests := []struct {
		w, h, max        int
		expectW, expectH int
	}{
		{1280, 720, 320, 320, 180},
		{720, 1280, 320, 180, 320},
		{320, 320, 320, 320, 320},
		{2000, 1, 320, 320, 1},
	}

	for _, tt := range tests {
		w, h := calculateThumbnailDimensions(tt.w, tt.h, tt.max)
		if w != tt.expectW || h != tt.expectH {
			t.Errorf("calculateThumbnailDimensions(%d, %d, %d) = %dx%d, expected %dx%d",
				tt.w, tt.h, tt.max, w, h, tt.expectW, tt.expectH)
		}
	}
}
