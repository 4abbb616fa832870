package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/ytget/pixel-bot/internal/model"
)

// KeyPrefix namespaces selection records
const KeyPrefix = "user:"

// ErrNotFound is returned when a chat has no live selection
var ErrNotFound = errors.New("selection not found")

// Store holds one selection per chat with a time-to-live
type Store interface {
	Get(ctx context.Context, chatID int64) (*model.Selection, error)
	// Put writes the record and resets its TTL
	Put(ctx context.Context, chatID int64, sel *model.Selection) error
	Delete(ctx context.Context, chatID int64) error
}

// Key builds the storage key for a chat
func Key(chatID int64) string {
	return KeyPrefix + strconv.FormatInt(chatID, 10)
}

func encode(sel *model.Selection) ([]byte, error) {
	if sel == nil {
		return nil, fmt.Errorf("nil selection")
	}
	data, err := json.Marshal(sel)
	if err != nil {
		return nil, fmt.Errorf("failed to encode selection: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*model.Selection, error) {
	var sel model.Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, fmt.Errorf("failed to decode selection: %w", err)
	}
	return &sel, nil
}
