package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/ytget/pixel-bot/internal/model"
	"github.com/ytget/pixel-bot/internal/platform"
)

// Task ID prefix
const TaskIDPrefix = "dl-"

var (
	// ErrTaskActive is returned when the chat already has a download in flight
	ErrTaskActive = errors.New("a download is already running for this chat")
	// ErrNoActiveTask is returned by StopTask when the chat has nothing to stop
	ErrNoActiveTask = errors.New("no active download for this chat")
	// ErrStopped is returned by Run when the task was cancelled
	ErrStopped = errors.New("download stopped")
)

// Service handles download operations
type Service struct {
	tasks       map[string]*model.DownloadTask
	active      map[int64]string // chat ID to task ID
	cancels     map[string]context.CancelFunc
	tasksMutex  sync.RWMutex
	downloadDir string
	exec        Executor
	prober      Prober
	now         func() time.Time
}

// NewService creates a new download service backed by the yt-dlp binary.
// prober may be nil, leaving duration and dimensions unset.
func NewService(downloadDir string, prober Prober) *Service {
	return NewServiceWithExecutor(downloadDir, prober, runYTDLP)
}

// NewServiceWithExecutor creates a download service with a custom executor
func NewServiceWithExecutor(downloadDir string, prober Prober, exec Executor) *Service {
	return &Service{
		tasks:       make(map[string]*model.DownloadTask),
		active:      make(map[int64]string),
		cancels:     make(map[string]context.CancelFunc),
		downloadDir: downloadDir,
		exec:        exec,
		prober:      prober,
		now:         time.Now,
	}
}

// AddTask registers a download for chatID. Only one active task per chat is allowed.
func (s *Service) AddTask(chatID int64, url string, format model.Format, quality model.Quality) (*model.DownloadTask, error) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	if id, ok := s.active[chatID]; ok {
		if task, exists := s.tasks[id]; exists && task.Status.IsActive() {
			return nil, ErrTaskActive
		}
	}

	id := generateTaskID()
	task := &model.DownloadTask{
		ID:        id,
		ChatID:    chatID,
		URL:       url,
		Format:    format,
		Quality:   quality,
		Status:    model.TaskStatusPending,
		ETASec:    -1,
		StartedAt: s.now(),
		WorkDir:   filepath.Join(s.downloadDir, id),
	}

	s.tasks[task.ID] = task
	s.active[chatID] = task.ID

	return task, nil
}

// GetTask returns a snapshot of a task by ID
func (s *Service) GetTask(id string) (*model.DownloadTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.tasks[id]
	if !exists {
		return nil, false
	}
	snapshot := *task
	return &snapshot, true
}

// StopTask cancels the chat's active download
func (s *Service) StopTask(chatID int64) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	id, ok := s.active[chatID]
	if !ok {
		return ErrNoActiveTask
	}
	task, exists := s.tasks[id]
	if !exists || !task.Status.IsActive() {
		return ErrNoActiveTask
	}

	task.Status = model.TaskStatusStopping
	if cancel, ok := s.cancels[id]; ok {
		cancel()
	}
	return nil
}

// RemoveTask drops a finished task
func (s *Service) RemoveTask(id string) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("task not found: %s", id)
	}
	if task.Status.IsActive() {
		return fmt.Errorf("task is still active: %s", task.Status)
	}

	delete(s.tasks, id)
	if s.active[task.ChatID] == id {
		delete(s.active, task.ChatID)
	}
	return nil
}

// Run executes the blocking yt-dlp call for task, reporting progress through
// onUpdate, and resolves the produced files. A cancelled run returns ErrStopped.
// Every file is written under task.WorkDir; on error the directory is removed,
// on success the caller owns it through MediaResult.Dir.
func (s *Service) Run(ctx context.Context, task *model.DownloadTask, onUpdate func(model.DownloadTask)) (*model.MediaResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.tasksMutex.Lock()
	if task.Status == model.TaskStatusStopping {
		s.finishLocked(task, ErrStopped)
		s.tasksMutex.Unlock()
		return nil, ErrStopped
	}
	s.cancels[task.ID] = cancel
	task.Status = model.TaskStatusDownloading
	s.tasksMutex.Unlock()
	s.notifyUpdate(task, onUpdate)

	logger := log.With().Int64("chat_id", task.ChatID).Str("task_id", task.ID).Logger()
	logger.Info().Str("url", task.URL).Str("format", string(task.Format)).Str("quality", string(task.Quality)).Msg("Download started")

	var fetched *Fetched
	err := platform.CreateDirectoryIfNotExists(task.WorkDir)
	if err == nil {
		fetched, err = s.exec(ctx, optionsFor(task, task.WorkDir), task.URL, func(p Progress) {
			s.updateTaskProgress(task, p)
			s.notifyUpdate(task, onUpdate)
		})
	}

	var result *model.MediaResult
	if err == nil {
		result, err = s.resolveResult(ctx, task, fetched)
	}
	if err != nil && ctx.Err() != nil {
		err = ErrStopped
	}
	if err != nil {
		// Partial downloads and early thumbnails
		if rmErr := platform.RemoveDirectory(task.WorkDir); rmErr != nil {
			logger.Warn().Err(rmErr).Msg("Failed to clean up task directory")
		}
	}

	s.tasksMutex.Lock()
	s.finishLocked(task, err)
	s.tasksMutex.Unlock()
	s.notifyUpdate(task, onUpdate)

	if err != nil {
		if errors.Is(err, ErrStopped) {
			logger.Info().Msg("Download stopped")
		} else {
			logger.Error().Err(err).Msg("Download failed")
		}
		return nil, err
	}

	logger.Info().Str("file", result.FilePath).Int64("size", result.Size).Msg("Download finished")
	return result, nil
}

// finishLocked moves task to its final status. Callers hold tasksMutex.
func (s *Service) finishLocked(task *model.DownloadTask, err error) {
	switch {
	case err == nil:
		task.Status = model.TaskStatusCompleted
		task.Progress = 1.0
		task.Percent = 100
	case errors.Is(err, ErrStopped):
		task.Status = model.TaskStatusStopped
	default:
		task.Status = model.TaskStatusError
		task.LastError = err.Error()
	}
	task.FinishedAt = s.now()

	delete(s.cancels, task.ID)
	if s.active[task.ChatID] == task.ID {
		delete(s.active, task.ChatID)
	}
}

// resolveResult locates the converted file and its thumbnail on disk
func (s *Service) resolveResult(ctx context.Context, task *model.DownloadTask, fetched *Fetched) (*model.MediaResult, error) {
	if fetched == nil || fetched.Filename == "" {
		return nil, errors.New("yt-dlp reported no output file")
	}

	// Post-processors change the extension after the filename was reported.
	// Only the task's own directory is searched.
	name := filepath.Base(platform.ReplaceExtension(fetched.Filename, task.Format.Extension()))
	expected := filepath.Join(task.WorkDir, name)
	path, err := platform.FindFileWithFallback(expected)
	if err != nil {
		return nil, fmt.Errorf("failed to locate downloaded file: %w", err)
	}

	size, err := platform.FileSize(path)
	if err != nil {
		return nil, err
	}

	thumb := platform.FindSibling(path, platform.ThumbnailExtensions)
	if thumb == "" {
		thumb = platform.FindSibling(filepath.Join(task.WorkDir, filepath.Base(fetched.Filename)), platform.ThumbnailExtensions)
	}

	title := fetched.Title
	if title == "" {
		s.tasksMutex.RLock()
		title = task.Title
		s.tasksMutex.RUnlock()
	}

	result := &model.MediaResult{
		FilePath:      path,
		ThumbnailPath: thumb,
		Title:         title,
		Uploader:      fetched.Uploader,
		Size:          size,
		Dir:           task.WorkDir,
	}
	if result.Title == "" {
		result.Title = result.DisplayTitle()
	}

	if s.prober != nil {
		info, err := s.prober.Probe(ctx, path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Failed to probe media")
		} else {
			result.Duration = info.Seconds()
			result.Width = info.Width
			result.Height = info.Height
		}
	}

	s.tasksMutex.Lock()
	task.OutputPath = path
	if task.Title == "" {
		task.Title = result.Title
	}
	s.tasksMutex.Unlock()

	return result, nil
}

// updateTaskProgress updates task progress from a yt-dlp report
func (s *Service) updateTaskProgress(task *model.DownloadTask, p Progress) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	if p.TotalBytes > 0 {
		percent := float64(p.DownloadedBytes) / float64(p.TotalBytes) * 100
		if percent > 100 {
			percent = 100
		}
		task.Percent = int(percent)
		task.Progress = percent / 100.0
	}

	if !p.Started.IsZero() {
		elapsed := s.now().Sub(p.Started)
		if elapsed.Seconds() > 0 {
			bytesPerSecond := float64(p.DownloadedBytes) / elapsed.Seconds()
			task.Speed = fmt.Sprintf("%.1fMB/s", bytesPerSecond/1024/1024)
		}
	}

	if p.ETA > 0 {
		task.ETASec = int(p.ETA.Seconds())
	}

	if p.Title != "" && task.Title == "" {
		task.Title = p.Title
	}
}

// notifyUpdate passes a snapshot of task to the callback if set
func (s *Service) notifyUpdate(task *model.DownloadTask, onUpdate func(model.DownloadTask)) {
	if onUpdate == nil {
		return
	}
	s.tasksMutex.RLock()
	snapshot := *task
	s.tasksMutex.RUnlock()
	onUpdate(snapshot)
}

// generateTaskID generates a unique, time-ordered task ID
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return TaskIDPrefix + uuid.NewString()
	}
	return TaskIDPrefix + id.String()
}
