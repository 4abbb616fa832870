package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/ytget/pixel-bot/internal/model"
	"github.com/ytget/ytdlp/v2"
)

// Timeout constants
const (
	DefaultParseTimeout = 60 * time.Second
)

// URL parameters
const (
	PlaylistQueryParam = "list"
	PlaylistPath       = "/playlist"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Playlist title constants
const (
	DefaultPlaylistName = "Unknown Playlist"
	MinPrefixLength     = 10
	PlaylistSuffix      = " Playlist"
)

// PlaylistItem is one entry returned by the playlist lister
type PlaylistItem struct {
	VideoID string
	Title   string
}

// ItemLister fetches the entries of a playlist by its ID
type ItemLister func(ctx context.Context, playlistID string) ([]PlaylistItem, error)

// PlaylistService lists YouTube playlist pages so a single entry can be picked
type PlaylistService struct {
	timeout time.Duration
	list    ItemLister
}

// NewPlaylistService creates a playlist service backed by the ytdlp library
func NewPlaylistService() *PlaylistService {
	return NewPlaylistServiceWithLister(listWithLibrary)
}

// NewPlaylistServiceWithLister creates a playlist service with a custom lister
func NewPlaylistServiceWithLister(list ItemLister) *PlaylistService {
	return &PlaylistService{
		timeout: DefaultParseTimeout,
		list:    list,
	}
}

// ParsePlaylist lists at most limit entries of the playlist page at rawURL
func (p *PlaylistService) ParsePlaylist(ctx context.Context, rawURL string, limit int) (*model.Playlist, error) {
	if !IsPlaylistURL(rawURL) {
		return nil, fmt.Errorf("invalid playlist URL: %s", rawURL)
	}

	playlistID := ExtractPlaylistID(rawURL)
	if playlistID == "" {
		return nil, fmt.Errorf("could not extract playlist ID from URL: %s", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	items, err := p.list(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	playlist := model.NewPlaylist(playlistID, rawURL)
	for _, it := range items {
		if it.VideoID == "" {
			continue
		}
		playlist.AddVideo(&model.PlaylistVideo{
			ID:    it.VideoID,
			Title: it.Title,
			URL:   fmt.Sprintf(YouTubeVideoURLTemplate, it.VideoID),
		})
		if limit > 0 && len(playlist.Videos) >= limit {
			break
		}
	}
	playlist.Title = extractPlaylistTitle(playlist.Videos)

	log.Debug().
		Str("playlist_id", playlistID).
		Int("listed", len(items)).
		Int("kept", len(playlist.Videos)).
		Msg("Playlist parsed")

	return playlist, nil
}

// IsPlaylistURL reports whether rawURL is a YouTube playlist page
// (youtube.com/playlist?list=...). Watch URLs that merely carry a list
// parameter are treated as single videos.
func IsPlaylistURL(rawURL string) bool {
	u, err := parseLooseURL(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	if host != "youtube.com" && host != "music.youtube.com" {
		return false
	}
	return strings.TrimSuffix(u.Path, "/") == PlaylistPath && u.Query().Get(PlaylistQueryParam) != ""
}

// ExtractPlaylistID returns the list parameter of rawURL, or "" if absent
func ExtractPlaylistID(rawURL string) string {
	u, err := parseLooseURL(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(PlaylistQueryParam)
}

// parseLooseURL accepts URLs typed without a scheme
func parseLooseURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	return url.Parse(rawURL)
}

// extractPlaylistTitle generates a title for the playlist based on videos
func extractPlaylistTitle(videos []*model.PlaylistVideo) string {
	if len(videos) == 0 {
		return DefaultPlaylistName
	}
	if len(videos) > 1 {
		commonPrefix := findCommonPrefix(videos[0].Title, videos[1].Title)
		if len(commonPrefix) > MinPrefixLength {
			return strings.TrimSpace(commonPrefix) + PlaylistSuffix
		}
	}
	return videos[0].Title + PlaylistSuffix
}

// findCommonPrefix finds the common prefix between two strings
func findCommonPrefix(s1, s2 string) string {
	minLen := min(len(s1), len(s2))
	for i := 0; i < minLen; i++ {
		if s1[i] != s2[i] {
			return s1[:i]
		}
	}
	return s1[:minLen]
}

func listWithLibrary(ctx context.Context, playlistID string) ([]PlaylistItem, error) {
	items, err := ytdlp.New().GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}
	out := make([]PlaylistItem, 0, len(items))
	for _, it := range items {
		out = append(out, PlaylistItem{VideoID: it.VideoID, Title: it.Title})
	}
	return out, nil
}
