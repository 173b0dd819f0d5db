package config

const (
	defaultConfigPath              = "~/.config/rafo/config.toml"
	defaultWorkDir                 = "~/.local/share/rafo/work"
	defaultLogDir                  = "~/.local/share/rafo/logs"
	defaultDatabasePath            = "~/.local/share/rafo/rafo.db"
	defaultLocalMediaDir           = "~/.local/share/rafo/media"
	defaultAPIBind                 = "127.0.0.1:8040"
	defaultPublicURL               = "http://127.0.0.1:8040"
	defaultLinkTTLMinutes          = 120
	defaultNoiseTolerance          = "-60dB"
	defaultSilenceDuration         = 2.0
	defaultCropAllowance           = 0.5
	defaultBitRate                 = 256
	defaultSampleRate              = 48000
	defaultTargetLoudness          = -23.0
	defaultTruePeak                = -1.0
	defaultLoudnessRange           = 7.0
	defaultOmniaBaseURL            = "https://api.nexx.cloud/v3.1"
	defaultStreamType              = "audio"
	defaultPublicationDelayMinutes = 60
	defaultAvailabilityHours       = 24
	defaultTimeZone                = "Europe/Berlin"
	defaultExportRequestTimeout    = 30
	defaultURLExpiryMinutes        = 360
	defaultShowTTLMinutes          = 30
	defaultNtfyURL                 = "https://ntfy.sh"
	defaultNtfyRequestTimeout      = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogMaxSizeMB            = 20
	defaultLogMaxBackups           = 5
	defaultLogMaxAgeDays           = 60
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageMinIO = "minio"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:      defaultWorkDir,
			LogDir:       defaultLogDir,
			DatabasePath: defaultDatabasePath,
			APIBind:      defaultAPIBind,
			PublicURL:    defaultPublicURL,
		},
		Auth: Auth{
			LinkTTLMinutes: defaultLinkTTLMinutes,
		},
		Audio: Audio{
			NoiseTolerance:  defaultNoiseTolerance,
			SilenceDuration: defaultSilenceDuration,
			CropAllowance:   defaultCropAllowance,
			BitRate:         defaultBitRate,
			SampleRate:      defaultSampleRate,
			TargetLoudness:  defaultTargetLoudness,
			TruePeak:        defaultTruePeak,
			LoudnessRange:   defaultLoudnessRange,
			FFmpegBinary:    "ffmpeg",
			FFprobeBinary:   "ffprobe",
		},
		Export: Export{
			BaseURL:                 defaultOmniaBaseURL,
			StreamType:              defaultStreamType,
			PublicationDelayMinutes: defaultPublicationDelayMinutes,
			AvailabilityHours:       defaultAvailabilityHours,
			TimeZone:                defaultTimeZone,
			RequestTimeout:          defaultExportRequestTimeout,
		},
		Storage: Storage{
			Backend:  StorageLocal,
			LocalDir: defaultLocalMediaDir,
			MinIO: MinIO{
				URLExpiryMinutes: defaultURLExpiryMinutes,
			},
		},
		Cache: Cache{
			ShowTTLMinutes: defaultShowTTLMinutes,
		},
		Notifications: Notifications{
			NtfyURL:        defaultNtfyURL,
			RequestTimeout: defaultNtfyRequestTimeout,
			Optimization:   true,
			Export:         true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
