package model

import (
	"encoding/json"
	"strings"
)

// Selection is the per-chat record kept between the link message and the
// keyboard callbacks. It lives in the session store under a TTL.
type Selection struct {
	URL    string `json:"url"`
	Format Format `json:"format"`
	// Candidates holds playlist entry URLs offered through pick_<n> buttons
	Candidates []string `json:"candidates,omitempty"`
}

// NewSelection creates a selection for a freshly submitted link
func NewSelection(url string) *Selection {
	return &Selection{URL: strings.TrimSpace(url)}
}

// HasURL reports whether the selection still points at a link
func (s *Selection) HasURL() bool {
	return s != nil && s.URL != ""
}

// IsVideo reports whether the user already chose the video branch
func (s *Selection) IsVideo() bool {
	return s.HasURL() && s.Format == FormatVideo
}

// MarshalJSON encodes an unset format as null
func (f Format) MarshalJSON() ([]byte, error) {
	if f == FormatNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(f))
}

// UnmarshalJSON accepts null as an unset format
func (f *Format) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = FormatNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = Format(s)
	return nil
}
