package bot

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ytget/pixel-bot/internal/compress"
	"github.com/ytget/pixel-bot/internal/download"
	"github.com/ytget/pixel-bot/internal/model"
	"github.com/ytget/pixel-bot/internal/session"
)

const testChatID int64 = 42

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	failSend func(tgbotapi.Chattable) bool
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 100, updates: make(chan tgbotapi.Update, 8)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	if f.failSend != nil && f.failSend(c) {
		return tgbotapi.Message{}, errors.New("telegram: request entity too large")
	}
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

// texts lists the text of every sent message and edit in order
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (f *fakeAPI) callbackAnswers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb.Text)
		}
	}
	return out
}

func (f *fakeAPI) deleted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.requests {
		if _, ok := c.(tgbotapi.DeleteMessageConfig); ok {
			return true
		}
	}
	return false
}

func (f *fakeAPI) audio() (tgbotapi.AudioConfig, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.sent {
		if a, ok := c.(tgbotapi.AudioConfig); ok {
			return a, true
		}
	}
	return tgbotapi.AudioConfig{}, false
}

func (f *fakeAPI) video() (tgbotapi.VideoConfig, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.sent {
		if v, ok := c.(tgbotapi.VideoConfig); ok {
			return v, true
		}
	}
	return tgbotapi.VideoConfig{}, false
}

type fakeProber struct {
	info *compress.MediaInfo
}

func (f *fakeProber) Probe(ctx context.Context, path string) (*compress.MediaInfo, error) {
	if f.info == nil {
		return nil, errors.New("no probe")
	}
	return f.info, nil
}

type fakeCompressor struct {
	out  func(input string) (string, error)
	hits int
}

func (f *fakeCompressor) Probe(ctx context.Context, path string) (*compress.MediaInfo, error) {
	return &compress.MediaInfo{}, nil
}

func (f *fakeCompressor) Shrink(ctx context.Context, inputPath string, maxBytes int64, onProgress func(int)) (string, error) {
	f.hits++
	onProgress(100)
	return f.out(inputPath)
}

type fakePlaylists struct {
	playlist *model.Playlist
	err      error
}

func (f *fakePlaylists) ParsePlaylist(ctx context.Context, url string, limit int) (*model.Playlist, error) {
	return f.playlist, f.err
}

type panicStore struct {
	session.Store
}

func (panicStore) Put(context.Context, int64, *model.Selection) error {
	panic("store exploded")
}

type testEnv struct {
	bot   *Bot
	api   *fakeAPI
	store *session.MemoryStore
	dl    *download.Service
	dir   string
}

func newTestEnv(t *testing.T, exec download.Executor, prober download.Prober, opts Options) *testEnv {
	t.Helper()
	dir := t.TempDir()
	api := newFakeAPI()
	store := session.NewMemoryStore(5 * time.Minute)
	dl := download.NewServiceWithExecutor(dir, prober, exec)
	if opts.ProgressInterval == 0 {
		opts.ProgressInterval = time.Hour
	}
	return &testEnv{
		bot:   New(api, store, dl, opts),
		api:   api,
		store: store,
		dl:    dl,
		dir:   dir,
	}
}

func messageUpdate(chatID int64, chatType, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID, Type: chatType},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: chatID, Type: "private"},
		},
	}}
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
}

func writeImage(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 64, 36))); err != nil {
		t.Fatalf("Failed to encode image: %v", err)
	}
}

func assertGone(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("Expected %s to be removed", p)
		}
	}
}

// assertEmptyDir fails when anything is left in dir
func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	for _, e := range entries {
		t.Errorf("Expected %s to be empty, found %s", dir, e.Name())
	}
}

func keyboardData(markup tgbotapi.InlineKeyboardMarkup) []string {
	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			if button.CallbackData != nil {
				data = append(data, *button.CallbackData)
			}
		}
	}
	return data
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
