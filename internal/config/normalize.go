package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAuth()
	c.normalizeAudio()
	c.normalizeExport()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = defaultDatabasePath
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.PublicURL = strings.TrimRight(strings.TrimSpace(c.Paths.PublicURL), "/")
	if c.Paths.PublicURL == "" {
		c.Paths.PublicURL = "http://" + c.Paths.APIBind
	}
	return nil
}

func (c *Config) normalizeAuth() {
	c.Auth.AccessKey = envFallback(c.Auth.AccessKey, "RAFO_ACCESS_KEY")
	c.Auth.JWTSecret = envFallback(c.Auth.JWTSecret, "RAFO_JWT_SECRET")
	if c.Auth.LinkTTLMinutes <= 0 {
		c.Auth.LinkTTLMinutes = defaultLinkTTLMinutes
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.NoiseTolerance = strings.TrimSpace(c.Audio.NoiseTolerance)
	if c.Audio.NoiseTolerance == "" {
		c.Audio.NoiseTolerance = defaultNoiseTolerance
	}
	if c.Audio.BitRate <= 0 {
		c.Audio.BitRate = defaultBitRate
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
}

func (c *Config) normalizeExport() {
	c.Export.BaseURL = strings.TrimRight(strings.TrimSpace(c.Export.BaseURL), "/")
	if c.Export.BaseURL == "" {
		c.Export.BaseURL = defaultOmniaBaseURL
	}
	c.Export.APISecret = envFallback(c.Export.APISecret, "RAFO_OMNIA_API_SECRET")
	c.Export.SessionID = envFallback(c.Export.SessionID, "RAFO_OMNIA_SESSION_ID")
	c.Export.StreamType = strings.ToLower(strings.TrimSpace(c.Export.StreamType))
	if c.Export.StreamType == "" {
		c.Export.StreamType = defaultStreamType
	}
	c.Export.TimeZone = strings.TrimSpace(c.Export.TimeZone)
	if c.Export.TimeZone == "" {
		c.Export.TimeZone = defaultTimeZone
	}
	if c.Export.RequestTimeout <= 0 {
		c.Export.RequestTimeout = defaultExportRequestTimeout
	}
	c.Export.AlwaysLinkedShows = dedupeIDs(c.Export.AlwaysLinkedShows)
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = StorageLocal
	}
	if strings.TrimSpace(c.Storage.LocalDir) == "" {
		c.Storage.LocalDir = defaultLocalMediaDir
	}
	var err error
	if c.Storage.LocalDir, err = expandPath(c.Storage.LocalDir); err != nil {
		return fmt.Errorf("storage.local_dir: %w", err)
	}
	c.Storage.MinIO.Endpoint = strings.TrimSpace(c.Storage.MinIO.Endpoint)
	c.Storage.MinIO.Bucket = strings.TrimSpace(c.Storage.MinIO.Bucket)
	c.Storage.MinIO.SecretKey = envFallback(c.Storage.MinIO.SecretKey, "RAFO_MINIO_SECRET_KEY")
	if c.Storage.MinIO.URLExpiryMinutes <= 0 {
		c.Storage.MinIO.URLExpiryMinutes = defaultURLExpiryMinutes
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyURL = strings.TrimSpace(c.Notifications.NtfyURL)
	if c.Notifications.NtfyURL == "" {
		c.Notifications.NtfyURL = defaultNtfyURL
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}

func envFallback(value, key string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}

func dedupeIDs(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
