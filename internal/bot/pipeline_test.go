package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ytget/pixel-bot/internal/compress"
	"github.com/ytget/pixel-bot/internal/download"
	"github.com/ytget/pixel-bot/internal/model"
)

func TestPipeline_Audio(t *testing.T) {
	var workDir string
	exec := func(ctx context.Context, opts download.Options, url string, onProgress func(download.Progress)) (*download.Fetched, error) {
		if !opts.ExtractAudio {
			t.Error("Expected audio extraction")
		}
		workDir = filepath.Dir(opts.Output)
		onProgress(download.Progress{DownloadedBytes: 50, TotalBytes: 100})
		writeFile(t, filepath.Join(workDir, "Song.mp3"), 100)
		writeImage(t, filepath.Join(workDir, "Song.png"))
		return &download.Fetched{Filename: filepath.Join(workDir, "Song.webm"), Title: "Song", Uploader: "Band"}, nil
	}
	env := newTestEnv(t, exec, &fakeProber{info: &compress.MediaInfo{Duration: 61}}, Options{MaxUploadBytes: 1 << 20})
	ctx := context.Background()
	env.store.Put(ctx, testChatID, model.NewSelection("https://youtu.be/abc"))

	env.bot.handleUpdate(ctx, callbackUpdate(testChatID, "format_audio"))

	expectedTexts := []string{MsgDownloadStarted, "Downloading... 50%", MsgUploading}
	if got := env.api.texts(); !equalStrings(got, expectedTexts) {
		t.Errorf("Expected texts %v, got %v", expectedTexts, got)
	}
	if answers := env.api.callbackAnswers(); !equalStrings(answers, []string{""}) {
		t.Errorf("Expected one empty callback answer, got %v", answers)
	}

	if filepath.Dir(workDir) != env.dir {
		t.Errorf("Expected a task directory under %s, got %s", env.dir, workDir)
	}

	audio, ok := env.api.audio()
	if !ok {
		t.Fatal("Expected an audio upload")
	}
	if audio.File != tgbotapi.FilePath(filepath.Join(workDir, "Song.mp3")) {
		t.Errorf("Unexpected file %v", audio.File)
	}
	if audio.Title != "Song" || audio.Performer != "Band" || audio.Duration != 61 {
		t.Errorf("Unexpected audio metadata: title=%q performer=%q duration=%d", audio.Title, audio.Performer, audio.Duration)
	}
	if audio.Thumb != tgbotapi.FilePath(filepath.Join(workDir, "Song-thumb.jpg")) {
		t.Errorf("Unexpected thumbnail %v", audio.Thumb)
	}

	sel, err := env.store.Get(ctx, testChatID)
	if err != nil || sel.Format != model.FormatAudio {
		t.Errorf("Expected stored audio format, got %+v (%v)", sel, err)
	}

	if !env.api.deleted() {
		t.Error("Expected status message to be deleted")
	}
	assertGone(t, workDir)
	assertEmptyDir(t, env.dir)
}

func TestPipeline_VideoCompressed(t *testing.T) {
	var workDir string
	exec := func(ctx context.Context, opts download.Options, url string, onProgress func(download.Progress)) (*download.Fetched, error) {
		if opts.Format != model.Quality720p.Selector() {
			t.Errorf("Expected 720p selector, got %s", opts.Format)
		}
		workDir = filepath.Dir(opts.Output)
		writeFile(t, filepath.Join(workDir, "Clip.mp4"), 200)
		return &download.Fetched{Filename: filepath.Join(workDir, "Clip.webm"), Title: "Clip"}, nil
	}
	compressor := &fakeCompressor{out: func(input string) (string, error) {
		out := filepath.Join(filepath.Dir(input), "Clip-compressed.mp4")
		if err := os.WriteFile(out, make([]byte, 40), 0o644); err != nil {
			return "", err
		}
		return out, nil
	}}
	env := newTestEnv(t, exec, &fakeProber{info: &compress.MediaInfo{Duration: 12.2, Width: 1280, Height: 720}}, Options{
		MaxUploadBytes: 100,
		Compressor:     compressor,
	})
	ctx := context.Background()
	env.store.Put(ctx, testChatID, &model.Selection{URL: "https://youtu.be/abc", Format: model.FormatVideo})

	env.bot.handleUpdate(ctx, callbackUpdate(testChatID, "quality_720p"))

	if compressor.hits != 1 {
		t.Errorf("Expected one compression, got %d", compressor.hits)
	}

	video, ok := env.api.video()
	if !ok {
		t.Fatalf("Expected a video upload, texts: %v", env.api.texts())
	}
	if video.File != tgbotapi.FilePath(filepath.Join(workDir, "Clip-compressed.mp4")) {
		t.Errorf("Expected compressed file, got %v", video.File)
	}
	if video.Caption != "Clip · 1280x720" {
		t.Errorf("Unexpected caption %q", video.Caption)
	}
	if video.Duration != 12 || !video.SupportsStreaming {
		t.Errorf("Unexpected video fields: duration=%d streaming=%v", video.Duration, video.SupportsStreaming)
	}
	if video.Thumb != nil {
		t.Errorf("Expected no thumbnail, got %v", video.Thumb)
	}

	assertGone(t, workDir)
	assertEmptyDir(t, env.dir)
}

func TestPipeline_TooLarge(t *testing.T) {
	tests := []struct {
		name       string
		sel        *model.Selection
		data       string
		media      string
		compressor *fakeCompressor
	}{
		{
			name:  "audio is never compressed",
			sel:   model.NewSelection("https://youtu.be/abc"),
			data:  "format_audio",
			media: "Big.mp3",
		},
		{
			name:  "video still too large",
			sel:   &model.Selection{URL: "https://youtu.be/abc", Format: model.FormatVideo},
			data:  "quality_1080p",
			media: "Big.mp4",
			compressor: &fakeCompressor{out: func(string) (string, error) {
				return "", compress.ErrStillTooLarge
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := func(ctx context.Context, opts download.Options, url string, onProgress func(download.Progress)) (*download.Fetched, error) {
				workDir := filepath.Dir(opts.Output)
				writeFile(t, filepath.Join(workDir, tt.media), 500)
				return &download.Fetched{Filename: filepath.Join(workDir, "Big.webm")}, nil
			}
			opts := Options{MaxUploadBytes: 100}
			if tt.compressor != nil {
				opts.Compressor = tt.compressor
			}
			env := newTestEnv(t, exec, nil, opts)
			ctx := context.Background()
			env.store.Put(ctx, testChatID, tt.sel)

			env.bot.handleUpdate(ctx, callbackUpdate(testChatID, tt.data))

			if env.api.lastText() != MsgTooLarge {
				t.Errorf("Expected %q, got %q", MsgTooLarge, env.api.lastText())
			}
			if _, ok := env.api.audio(); ok {
				t.Error("Expected no upload")
			}
			if env.api.deleted() {
				t.Error("Expected status message to stay")
			}
			assertEmptyDir(t, env.dir)
		})
	}
}

func TestPipeline_DownloadFailed(t *testing.T) {
	exec := func(ctx context.Context, opts download.Options, url string, onProgress func(download.Progress)) (*download.Fetched, error) {
		// yt-dlp writes the thumbnail before the media
		workDir := filepath.Dir(opts.Output)
		writeFile(t, filepath.Join(workDir, "Song.jpg"), 10)
		writeFile(t, filepath.Join(workDir, "Song.webm.part"), 10)
		return nil, errors.New("video unavailable")
	}
	env := newTestEnv(t, exec, nil, Options{})
	ctx := context.Background()
	env.store.Put(ctx, testChatID, model.NewSelection("https://youtu.be/abc"))

	env.bot.handleUpdate(ctx, callbackUpdate(testChatID, "format_audio"))

	if env.api.lastText() != MsgDownloadFailed {
		t.Errorf("Expected %q, got %q", MsgDownloadFailed, env.api.lastText())
	}
	if env.api.deleted() {
		t.Error("Expected failure message to stay visible")
	}
	assertEmptyDir(t, env.dir)

	// The chat is free for another attempt
	if _, err := env.dl.AddTask(testChatID, "https://youtu.be/abc", model.FormatAudio, model.QualityNone); err != nil {
		t.Errorf("Expected chat to be free, got %v", err)
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	exec := func(ctx context.Context, opts download.Options, url string, onProgress func(download.Progress)) (*download.Fetched, error) {
		workDir := filepath.Dir(opts.Output)
		writeFile(t, filepath.Join(workDir, "Song.jpg"), 10)
		writeFile(t, filepath.Join(workDir, "Song.webm.part"), 10)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	env := newTestEnv(t, exec, nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env.store.Put(context.Background(), testChatID, model.NewSelection("https://youtu.be/abc"))

	env.bot.handleUpdate(ctx, callbackUpdate(testChatID, "format_audio"))

	if env.api.lastText() != MsgDownloadCancelled {
		t.Errorf("Expected %q, got %q", MsgDownloadCancelled, env.api.lastText())
	}
	assertEmptyDir(t, env.dir)
}

func TestPipeline_AlreadyRunning(t *testing.T) {
	env := newTestEnv(t, nil, nil, Options{})
	ctx := context.Background()
	env.store.Put(ctx, testChatID, model.NewSelection("https://youtu.be/abc"))
	if _, err := env.dl.AddTask(testChatID, "https://youtu.be/other", model.FormatVideo, model.Quality480p); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	env.bot.handleUpdate(ctx, callbackUpdate(testChatID, "format_audio"))

	// The running download keeps its status message
	if texts := env.api.texts(); len(texts) != 0 {
		t.Errorf("Expected no message edits, got %v", texts)
	}
	answers := env.api.callbackAnswers()
	if !equalStrings(answers, []string{MsgAlreadyRunning}) {
		t.Errorf("Expected toast %q, got %v", MsgAlreadyRunning, answers)
	}
}

func TestPipeline_UploadFailed(t *testing.T) {
	exec := func(ctx context.Context, opts download.Options, url string, onProgress func(download.Progress)) (*download.Fetched, error) {
		workDir := filepath.Dir(opts.Output)
		writeFile(t, filepath.Join(workDir, "Song.mp3"), 10)
		return &download.Fetched{Filename: filepath.Join(workDir, "Song.mp3"), Title: "Song"}, nil
	}
	env := newTestEnv(t, exec, nil, Options{})
	env.api.failSend = func(c tgbotapi.Chattable) bool {
		_, isAudio := c.(tgbotapi.AudioConfig)
		return isAudio
	}
	ctx := context.Background()
	env.store.Put(ctx, testChatID, model.NewSelection("https://youtu.be/abc"))

	env.bot.handleUpdate(ctx, callbackUpdate(testChatID, "format_audio"))

	if env.api.lastText() != MsgUploadFailed {
		t.Errorf("Expected %q, got %q", MsgUploadFailed, env.api.lastText())
	}
	if env.api.deleted() {
		t.Error("Expected status message to stay")
	}
	assertEmptyDir(t, env.dir)
}

func TestProgressText(t *testing.T) {
	tests := []struct {
		task     model.DownloadTask
		expected string
	}{
		{model.DownloadTask{Percent: 42, Speed: "1.2MB/s", ETASec: 31}, "Downloading... 42% · 1.2MB/s · ETA 00:31"},
		{model.DownloadTask{Percent: 7, ETASec: -1}, "Downloading... 7%"},
		{model.DownloadTask{Percent: 99, Speed: "3.0MB/s"}, "Downloading... 99% · 3.0MB/s"},
	}

	for _, tt := range tests {
		if got := progressText(tt.task); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}

func TestVideoCaption(t *testing.T) {
	tests := []struct {
		result   model.MediaResult
		expected string
	}{
		{model.MediaResult{Title: "Clip", Width: 854, Height: 480}, "Clip · 854x480"},
		{model.MediaResult{FilePath: "/d/Some_Clip.mp4"}, "Some_Clip"},
	}

	for _, tt := range tests {
		if got := videoCaption(&tt.result); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}
