package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir      string `toml:"work_dir"`
	LogDir       string `toml:"log_dir"`
	DatabasePath string `toml:"database_path"`
	APIBind      string `toml:"api_bind"`
	// PublicURL is the externally reachable base URL of the API. The
	// publishing platform fetches media from it when the local storage
	// backend is used.
	PublicURL string `toml:"public_url"`
}

// Auth contains access control for the export stream and API.
type Auth struct {
	AccessKey      string `toml:"access_key"`
	JWTSecret      string `toml:"jwt_secret"`
	LinkTTLMinutes int    `toml:"link_ttl_minutes"`
}

// Audio contains analysis and encoding parameters for the optimizer.
type Audio struct {
	// NoiseTolerance is the silence floor, either in decibels ("-60dB") or as
	// an amplitude ratio ("0.001").
	NoiseTolerance  string  `toml:"noise_tolerance"`
	SilenceDuration float64 `toml:"silence_duration"`
	CropAllowance   float64 `toml:"crop_allowance"`
	BitRate         int     `toml:"bit_rate"`
	SampleRate      int     `toml:"sample_rate"`
	TargetLoudness  float64 `toml:"target_loudness"`
	TruePeak        float64 `toml:"true_peak"`
	LoudnessRange   float64 `toml:"loudness_range"`
	FFmpegBinary    string  `toml:"ffmpeg_binary"`
	FFprobeBinary   string  `toml:"ffprobe_binary"`
}

// Export contains the publishing platform connection and publication policy.
type Export struct {
	BaseURL                 string `toml:"base_url"`
	DomainID                int    `toml:"domain_id"`
	APISecret               string `toml:"api_secret"`
	SessionID               string `toml:"session_id"`
	StreamType              string `toml:"stream_type"`
	AlwaysLinkedShows       []int  `toml:"always_linked_shows"`
	PublicationDelayMinutes int    `toml:"publication_delay_minutes"`
	AvailabilityHours       int    `toml:"availability_hours"`
	TimeZone                string `toml:"time_zone"`
	RequestTimeout          int    `toml:"request_timeout"`
}

// Storage selects where original and derived media files live.
type Storage struct {
	Backend  string `toml:"backend"`
	LocalDir string `toml:"local_dir"`
	MinIO    MinIO  `toml:"minio"`
}

// MinIO contains S3-compatible object storage settings.
type MinIO struct {
	Endpoint         string `toml:"endpoint"`
	AccessKey        string `toml:"access_key"`
	SecretKey        string `toml:"secret_key"`
	Bucket           string `toml:"bucket"`
	UseSSL           bool   `toml:"use_ssl"`
	URLExpiryMinutes int    `toml:"url_expiry_minutes"`
}

// Cache contains the optional redis cache for remote show lookups.
type Cache struct {
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        int    `toml:"redis_db"`
	ShowTTLMinutes int    `toml:"show_ttl_minutes"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyURL        string `toml:"ntfy_url"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Optimization   bool   `toml:"optimization"`
	Export         bool   `toml:"export"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for rafo.
//
// Configuration sections by subsystem:
//   - Paths: directories, database file and API bind address
//   - Auth: export stream access key and signed link secret
//   - Audio: silence analysis, loudness targets and encoder settings
//   - Export: publishing platform credentials and publication policy
//   - Storage: local or MinIO media storage
//   - Cache: redis cache for platform show lookups
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and file rotation
type Config struct {
	Paths         Paths         `toml:"paths"`
	Auth          Auth          `toml:"auth"`
	Audio         Audio         `toml:"audio"`
	Export        Export        `toml:"export"`
	Storage       Storage       `toml:"storage"`
	Cache         Cache         `toml:"cache"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file next to the config file or in the
// working directory is loaded first so secrets can stay out of the TOML file.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(resolvedPath), ".env"), ".env"); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv loads every existing candidate without overriding variables
// that are already set in the environment.
func loadDotEnv(candidates ...string) error {
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load env file %s: %w", abs, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("rafo.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.LogDir, filepath.Dir(c.Paths.DatabasePath)}
	if c.Storage.Backend == StorageLocal {
		dirs = append(dirs, c.Storage.LocalDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Location returns the time zone used for reference numbers and air dates.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Export.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SilenceDuration returns the minimum silence length reported by the analyzer.
func (c *Config) SilenceDuration() time.Duration {
	return secondsToDuration(c.Audio.SilenceDuration)
}

// CropAllowance returns the silence deliberately preserved when trimming.
func (c *Config) CropAllowance() time.Duration {
	return secondsToDuration(c.Audio.CropAllowance)
}

// PublicationDelay returns the offset between air time and publication.
func (c *Config) PublicationDelay() time.Duration {
	return time.Duration(c.Export.PublicationDelayMinutes) * time.Minute
}

// Availability returns how long non-podcast items stay published.
func (c *Config) Availability() time.Duration {
	return time.Duration(c.Export.AvailabilityHours) * time.Hour
}

// ExportRequestTimeout returns the HTTP timeout for platform calls.
func (c *Config) ExportRequestTimeout() time.Duration {
	return time.Duration(c.Export.RequestTimeout) * time.Second
}

// LinkTTL returns the lifetime of signed export links.
func (c *Config) LinkTTL() time.Duration {
	return time.Duration(c.Auth.LinkTTLMinutes) * time.Minute
}

// ShowCacheTTL returns how long remote show lookups stay cached.
func (c *Config) ShowCacheTTL() time.Duration {
	return time.Duration(c.Cache.ShowTTLMinutes) * time.Minute
}

// URLExpiry returns the lifetime of presigned object storage URLs.
func (c *Config) URLExpiry() time.Duration {
	return time.Duration(c.Storage.MinIO.URLExpiryMinutes) * time.Minute
}

// NtfyEndpoint returns the full topic URL, or "" when notifications are off.
func (c *Config) NtfyEndpoint() string {
	topic := strings.Trim(strings.TrimSpace(c.Notifications.NtfyTopic), "/")
	if topic == "" {
		return ""
	}
	if strings.HasPrefix(topic, "http://") || strings.HasPrefix(topic, "https://") {
		return topic
	}
	return strings.TrimRight(c.Notifications.NtfyURL, "/") + "/" + topic
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Audio.FFmpegBinary); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Audio.FFprobeBinary); bin != "" {
		return bin
	}
	return "ffprobe"
}

// LogFilePath returns the rotating log file location.
func (c *Config) LogFilePath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "rafo.log")
}

// LockPath returns the single-instance lock file for the server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.WorkDir, "rafo.lock")
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second)).Round(time.Millisecond)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
