package model

// PlaylistVideo represents a single entry offered from a playlist link
type PlaylistVideo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Playlist represents a YouTube playlist with its entries
type Playlist struct {
	ID     string           `json:"id"`
	Title  string           `json:"title"`
	URL    string           `json:"url"`
	Videos []*PlaylistVideo `json:"videos"`
}

// NewPlaylist creates a new playlist instance
func NewPlaylist(id, url string) *Playlist {
	return &Playlist{
		ID:     id,
		URL:    url,
		Videos: make([]*PlaylistVideo, 0),
	}
}

// AddVideo adds a video to the playlist
func (p *Playlist) AddVideo(video *PlaylistVideo) {
	p.Videos = append(p.Videos, video)
}

// Head returns at most n entries from the start of the playlist
func (p *Playlist) Head(n int) []*PlaylistVideo {
	if n <= 0 || n >= len(p.Videos) {
		return p.Videos
	}
	return p.Videos[:n]
}

// URLs returns entry URLs in playlist order
func (p *Playlist) URLs(n int) []string {
	head := p.Head(n)
	urls := make([]string, 0, len(head))
	for _, v := range head {
		urls = append(urls, v.URL)
	}
	return urls
}
