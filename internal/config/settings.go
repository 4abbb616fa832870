package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings keys, read from the environment (or a .env file)
const (
	KeyBotToken         = "BOT_TOKEN"
	KeyBotAPIEndpoint   = "BOT_API_ENDPOINT"
	KeyRedisHost        = "REDIS_HOST"
	KeyRedisPort        = "REDIS_PORT"
	KeyRedisPassword    = "REDIS_PASSWORD"
	KeyRedisDB          = "REDIS_DB"
	KeyDownloadDir      = "DOWNLOAD_DIR"
	KeySessionTTL       = "SESSION_TTL"
	KeyMaxUploadMB      = "MAX_UPLOAD_MB"
	KeyProgressInterval = "PROGRESS_INTERVAL"
	KeyPrivateOnly      = "PRIVATE_ONLY"
	KeyPlaylistLimit    = "PLAYLIST_LIMIT"
	KeyMetricsAddr      = "METRICS_ADDR"
	KeyLogLevel         = "LOG_LEVEL"
	KeyYTDLPInstall     = "YTDLP_INSTALL"
)

// Default values
const (
	DefaultDownloadDir      = "downloads"
	DefaultSessionTTL       = 300 * time.Second
	DefaultMaxUploadMB      = 50
	DefaultProgressInterval = 3 * time.Second
	DefaultPrivateOnly      = true
	DefaultPlaylistLimit    = 10
	DefaultLogLevel         = "info"

	MaxUploadMBLimit   = 2000
	MaxPlaylistEntries = 10
	MinProgressPeriod  = time.Second
)

// RequiredKeys must be present and non-blank
var RequiredKeys = []string{KeyBotToken, KeyRedisHost, KeyRedisPort}

// Settings manages application configuration
type Settings struct {
	v *viper.Viper
}

// NewSettings creates a settings manager over the process environment
func NewSettings() *Settings {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(KeyDownloadDir, DefaultDownloadDir)
	v.SetDefault(KeySessionTTL, DefaultSessionTTL)
	v.SetDefault(KeyMaxUploadMB, DefaultMaxUploadMB)
	v.SetDefault(KeyProgressInterval, DefaultProgressInterval)
	v.SetDefault(KeyPrivateOnly, DefaultPrivateOnly)
	v.SetDefault(KeyPlaylistLimit, DefaultPlaylistLimit)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyRedisDB, 0)
	return &Settings{v: v}
}

// Load reads an optional .env file into the environment, then builds and
// validates Settings. A missing env file is not an error.
func Load(envFile string) (*Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	s := NewSettings()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that every required key has a value
func (s *Settings) Validate() error {
	var errs []error
	for _, key := range RequiredKeys {
		if strings.TrimSpace(s.v.GetString(key)) == "" {
			errs = append(errs, fmt.Errorf("%s can't be empty", key))
		}
	}
	return errors.Join(errs...)
}

// Set overrides a key; used by CLI flags
func (s *Settings) Set(key string, value any) {
	s.v.Set(key, value)
}

// GetBotToken returns the Telegram bot token
func (s *Settings) GetBotToken() string {
	return strings.TrimSpace(s.v.GetString(KeyBotToken))
}

// GetBotAPIEndpoint returns a custom Bot API endpoint format, or "" for the official one
func (s *Settings) GetBotAPIEndpoint() string {
	return strings.TrimSpace(s.v.GetString(KeyBotAPIEndpoint))
}

// GetRedisAddr returns host:port of the session store
func (s *Settings) GetRedisAddr() string {
	return net.JoinHostPort(strings.TrimSpace(s.v.GetString(KeyRedisHost)), strings.TrimSpace(s.v.GetString(KeyRedisPort)))
}

// GetRedisPassword returns the Redis password
func (s *Settings) GetRedisPassword() string {
	return s.v.GetString(KeyRedisPassword)
}

// GetRedisDB returns the Redis database index
func (s *Settings) GetRedisDB() int {
	db := s.v.GetInt(KeyRedisDB)
	if db < 0 {
		return 0
	}
	return db
}

// GetDownloadDirectory returns the working directory for fetched media
func (s *Settings) GetDownloadDirectory() string {
	dir := strings.TrimSpace(s.v.GetString(KeyDownloadDir))
	if dir == "" {
		return DefaultDownloadDir
	}
	return dir
}

// GetSessionTTL returns how long a selection survives between clicks
func (s *Settings) GetSessionTTL() time.Duration {
	ttl := s.getSeconds(KeySessionTTL)
	if ttl < time.Second {
		return DefaultSessionTTL
	}
	return ttl
}

// getSeconds reads a duration key. Bare integers are seconds ("300"),
// anything else goes through time.ParseDuration ("5m", "90s").
func (s *Settings) getSeconds(key string) time.Duration {
	if raw, ok := s.v.Get(key).(string); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return s.v.GetDuration(key)
}

// GetMaxUploadBytes returns the upload ceiling in bytes
func (s *Settings) GetMaxUploadBytes() int64 {
	mb := s.v.GetInt(KeyMaxUploadMB)
	if mb < 1 {
		mb = DefaultMaxUploadMB
	}
	if mb > MaxUploadMBLimit {
		mb = MaxUploadMBLimit
	}
	return int64(mb) * 1024 * 1024
}

// GetProgressInterval returns the minimum gap between status message edits
func (s *Settings) GetProgressInterval() time.Duration {
	interval := s.getSeconds(KeyProgressInterval)
	if interval < MinProgressPeriod {
		return MinProgressPeriod
	}
	return interval
}

// GetPrivateOnly reports whether links are only accepted in private chats
func (s *Settings) GetPrivateOnly() bool {
	return s.v.GetBool(KeyPrivateOnly)
}

// GetPlaylistLimit returns how many playlist entries are offered
func (s *Settings) GetPlaylistLimit() int {
	limit := s.v.GetInt(KeyPlaylistLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > MaxPlaylistEntries {
		limit = MaxPlaylistEntries
	}
	return limit
}

// GetMetricsAddr returns the metrics listen address, or "" when disabled
func (s *Settings) GetMetricsAddr() string {
	return strings.TrimSpace(s.v.GetString(KeyMetricsAddr))
}

// GetLogLevel returns the configured log level
func (s *Settings) GetLogLevel() string {
	return strings.ToLower(strings.TrimSpace(s.v.GetString(KeyLogLevel)))
}

// GetYTDLPInstall reports whether the yt-dlp binary should be installed at startup
func (s *Settings) GetYTDLPInstall() bool {
	return s.v.GetBool(KeyYTDLPInstall)
}
