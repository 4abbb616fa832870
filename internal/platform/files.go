package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// File length thresholds
const (
	MinFileNameLength    = 10
	MediumFileNameLength = 15
	LongFileNameLength   = 20
	MaxNameDifference    = 10
)

// Scoring system constants
const (
	ScoreForLongName     = 3
	ScoreForMediumName   = 2
	ScoreForShortName    = 1
	ScoreForSpaces       = 2
	ScoreForUnderscores  = 1
	ScoreForHyphens      = 1
	ScoreForMediaWords   = 2
	PenaltyForTimestamps = 1
)

// Media-related words for file detection
var (
	MediaRelatedWords = []string{"video", "music", "song", "track", "mix", "official", "audio", "live", "remix", "cover"}
)

// Timestamp years for penalty
var (
	TimestampYears = []string{"2026", "2025", "2024"}
)

// File extensions to skip
var (
	SkippedExtensions = []string{".part", ".ytdl", ".temp"}
)

// ThumbnailExtensions lists the image files yt-dlp may write next to a media file, in preference order
var (
	ThumbnailExtensions = []string{".jpg", ".jpeg", ".webp", ".png"}
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// ReplaceExtension swaps the extension of path for ext (".mp3", ".mp4")
func ReplaceExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// FindSibling returns the first existing file that shares path's base name and
// has one of exts. It returns "" when none exists.
func FindSibling(path string, exts []string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range exts {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// FileSize returns the size of the file at path in bytes
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// RemoveFiles deletes every given path. Empty and already missing paths are skipped.
func RemoveFiles(paths ...string) error {
	var errs []error
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// RemoveDirectory deletes dir and everything in it. An empty dir is a no-op.
func RemoveDirectory(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", dir, err)
	}
	return nil
}

// FindFileWithFallback tries to find a file by its original path, and if not found,
// searches for files with similar names in the same directory
func FindFileWithFallback(filePath string) (string, error) {
	// Validate input path
	if filePath == "" {
		return "", fmt.Errorf("file path is empty")
	}

	// Check if this looks like a URL instead of a file path
	if strings.HasPrefix(filePath, "http") {
		return "", fmt.Errorf("file path appears to be a URL: %s", filePath)
	}

	// Check if path contains proper separators
	if !strings.Contains(filePath, "/") && !strings.Contains(filePath, "\\") {
		return "", fmt.Errorf("file path does not contain path separators: %s", filePath)
	}

	// First, try the original path
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil
	}

	dir := filepath.Dir(filePath)
	originalName := filepath.Base(filePath)
	originalExt := filepath.Ext(originalName)
	baseName := strings.TrimSuffix(originalName, originalExt)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var candidates []string
	var fallbackCandidates []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		entryName := entry.Name()
		entryExt := filepath.Ext(entryName)
		entryBase := strings.TrimSuffix(entryName, entryExt)

		if isSimilarFileName(entryBase, baseName) && entryExt == originalExt {
			candidates = append(candidates, filepath.Join(dir, entryName))
		}

		// Only files with the exact same extension qualify as a fallback
		if entryExt == originalExt && isLikelyDownloadedFile(entryName) {
			fallbackCandidates = append(fallbackCandidates, filepath.Join(dir, entryName))
		}
	}

	if len(candidates) > 0 {
		sort.Strings(candidates)
		return candidates[0], nil
	}

	if len(fallbackCandidates) > 0 {
		// Most descriptive first, then most recent
		sort.Slice(fallbackCandidates, func(i, j int) bool {
			scoreI := getDescriptiveScore(filepath.Base(fallbackCandidates[i]))
			scoreJ := getDescriptiveScore(filepath.Base(fallbackCandidates[j]))
			if scoreI != scoreJ {
				return scoreI > scoreJ
			}

			infoI, _ := os.Stat(fallbackCandidates[i])
			infoJ, _ := os.Stat(fallbackCandidates[j])
			if infoI == nil || infoJ == nil {
				return false
			}
			return infoI.ModTime().After(infoJ.ModTime())
		})
		return fallbackCandidates[0], nil
	}

	return "", fmt.Errorf("file not found: %s", filePath)
}

// isSimilarFileName checks if two file names are similar enough to be considered the same file
func isSimilarFileName(name1, name2 string) bool {
	clean1 := strings.TrimSpace(name1)
	clean2 := strings.TrimSpace(name2)

	if clean1 == clean2 {
		return true
	}

	// yt-dlp restricted filenames swap spaces for underscores
	if strings.ReplaceAll(clean1, " ", "_") == strings.ReplaceAll(clean2, " ", "_") {
		return true
	}

	// Truncated names
	if strings.Contains(clean1, clean2) || strings.Contains(clean2, clean1) {
		diff := len(clean1) - len(clean2)
		if diff < 0 {
			diff = -diff
		}
		if diff <= MaxNameDifference {
			return true
		}
	}

	return false
}

// isLikelyDownloadedFile checks if a filename looks like it could be a downloaded file
func isLikelyDownloadedFile(filename string) bool {
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(filename, ext) {
			return false
		}
	}

	if len(filename) < MinFileNameLength {
		return false
	}

	hasSpaces := strings.Contains(filename, " ")
	hasUnderscores := strings.Contains(filename, "_")
	hasHyphens := strings.Contains(filename, "-")

	return hasSpaces || hasUnderscores || hasHyphens || hasMediaWord(filename)
}

// getDescriptiveScore calculates a score indicating how descriptive a filename is
func getDescriptiveScore(filename string) int {
	score := 0

	if len(filename) > LongFileNameLength {
		score += ScoreForLongName
	} else if len(filename) > MediumFileNameLength {
		score += ScoreForMediumName
	} else if len(filename) > MinFileNameLength {
		score += ScoreForShortName
	}

	if strings.Contains(filename, " ") {
		score += ScoreForSpaces
	}
	if strings.Contains(filename, "_") {
		score += ScoreForUnderscores
	}
	if strings.Contains(filename, "-") {
		score += ScoreForHyphens
	}
	if hasMediaWord(filename) {
		score += ScoreForMediaWords
	}

	for _, year := range TimestampYears {
		if strings.Contains(filename, year) {
			score -= PenaltyForTimestamps
		}
	}

	return score
}

func hasMediaWord(filename string) bool {
	lower := strings.ToLower(filename)
	for _, word := range MediaRelatedWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
