package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var noiseDecibelPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?\s*dB$`)

var supportedSampleRates = map[int]struct{}{
	22050: {},
	32000: {},
	44100: {},
	48000: {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidateExportCredentials ensures the platform credentials needed for an
// export run are present. It is checked when an export client is built, not at
// load time, so optimization-only deployments can omit them.
func (c *Config) ValidateExportCredentials() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	if c.Export.DomainID <= 0 {
		return fmt.Errorf("export.domain_id is required for exports (edit %s)", defaultPath)
	}
	if c.Export.APISecret == "" {
		return fmt.Errorf("export.api_secret is required for exports. Set RAFO_OMNIA_API_SECRET or edit %s", defaultPath)
	}
	if c.Export.SessionID == "" {
		return fmt.Errorf("export.session_id is required for exports. Set RAFO_OMNIA_SESSION_ID or edit %s", defaultPath)
	}
	return nil
}

func (c *Config) validateAudio() error {
	if !validNoiseTolerance(c.Audio.NoiseTolerance) {
		return fmt.Errorf("audio.noise_tolerance %q must be a decibel level like -60dB or a ratio between 0 and 1", c.Audio.NoiseTolerance)
	}
	if c.Audio.SilenceDuration <= 0 {
		return errors.New("audio.silence_duration must be positive")
	}
	if c.Audio.CropAllowance < 0 {
		return errors.New("audio.crop_allowance must be >= 0")
	}
	if c.Audio.BitRate < 32 || c.Audio.BitRate > 320 {
		return errors.New("audio.bit_rate must be between 32 and 320 kbit/s")
	}
	if _, ok := supportedSampleRates[c.Audio.SampleRate]; !ok {
		return fmt.Errorf("audio.sample_rate %d is not supported (22050, 32000, 44100, 48000)", c.Audio.SampleRate)
	}
	if c.Audio.TargetLoudness < -70 || c.Audio.TargetLoudness > -5 {
		return errors.New("audio.target_loudness must be between -70 and -5 LUFS")
	}
	if c.Audio.TruePeak < -9 || c.Audio.TruePeak > 0 {
		return errors.New("audio.true_peak must be between -9 and 0 dBTP")
	}
	if c.Audio.LoudnessRange < 1 || c.Audio.LoudnessRange > 50 {
		return errors.New("audio.loudness_range must be between 1 and 50 LU")
	}
	return nil
}

func (c *Config) validateExport() error {
	if !strings.HasPrefix(c.Export.BaseURL, "http://") && !strings.HasPrefix(c.Export.BaseURL, "https://") {
		return fmt.Errorf("export.base_url %q must be an http(s) URL", c.Export.BaseURL)
	}
	if _, err := time.LoadLocation(c.Export.TimeZone); err != nil {
		return fmt.Errorf("export.time_zone %q: %w", c.Export.TimeZone, err)
	}
	if c.Export.PublicationDelayMinutes < 0 {
		return errors.New("export.publication_delay_minutes must be >= 0")
	}
	if c.Export.AvailabilityHours <= 0 {
		return errors.New("export.availability_hours must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageLocal:
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return errors.New("storage.local_dir must be set for the local backend")
		}
	case StorageMinIO:
		if c.Storage.MinIO.Endpoint == "" {
			return errors.New("storage.minio.endpoint must be set for the minio backend")
		}
		if c.Storage.MinIO.Bucket == "" {
			return errors.New("storage.minio.bucket must be set for the minio backend")
		}
		if c.Storage.MinIO.AccessKey == "" || c.Storage.MinIO.SecretKey == "" {
			return errors.New("storage.minio.access_key and secret_key must be set (or RAFO_MINIO_SECRET_KEY)")
		}
	default:
		return fmt.Errorf("storage.backend %q must be local or minio", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
}

func validNoiseTolerance(value string) bool {
	if noiseDecibelPattern.MatchString(value) {
		return true
	}
	ratio, err := strconv.ParseFloat(value, 64)
	return err == nil && ratio > 0 && ratio <= 1
}
