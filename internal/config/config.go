// Package config loads service configuration with the precedence
// runtime overrides > environment (LYREBIRD_*) > defaults.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Yass5002/Lyrebird/pkg/jobregistry"
	"github.com/Yass5002/Lyrebird/pkg/synth"
)

// Config is the root configuration document.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Punctuator PunctuatorConfig `mapstructure:"punctuator"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Limits     LimitsConfig     `mapstructure:"limits"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Mirror     MirrorConfig     `mapstructure:"mirror"`
}

// ServerConfig holds HTTP listener settings. WriteTimeout must cover a
// full synchronous clone on CPU, so it is far larger than usual.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// LoggingConfig selects the log level and output profile.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// EngineConfig points at the XTTS sidecar.
type EngineConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Model   string        `mapstructure:"model"`
}

// PunctuatorConfig points at the optional punctuation-restoration
// sidecar. An empty URL disables it; the fallback punctuator is used.
type PunctuatorConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PathsConfig holds the filesystem layout.
type PathsConfig struct {
	OutputRoot string `mapstructure:"output_root"`
	TempDir    string `mapstructure:"temp_dir"`
	ExampleDir string `mapstructure:"example_dir"`
}

// RetentionConfig bounds the job registry.
type RetentionConfig struct {
	JobTTL  time.Duration `mapstructure:"job_ttl"`
	MaxJobs int           `mapstructure:"max_jobs"`
}

// LimitsConfig holds request and queue limits.
type LimitsConfig struct {
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
	JobListLimit   int   `mapstructure:"job_list_limit"`
	QueueSize      int   `mapstructure:"queue_size"`
}

// RateLimitConfig throttles clone submissions. A zero rate disables the
// limiter.
type RateLimitConfig struct {
	ClonePerSecond float64 `mapstructure:"clone_per_second"`
	CloneBurst     int     `mapstructure:"clone_burst"`
}

// MirrorConfig enables optional S3 artifact mirroring.
type MirrorConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

// defaultOutputRoot picks the artifact root. Codespaces mounts the
// persistent workspace under /workspaces, so outputs go there when that
// environment is detected.
func defaultOutputRoot() string {
	if os.Getenv("CODESPACES") != "" {
		return "/workspaces/voice_cloning_outputs"
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "voice_cloning_outputs")
	}
	return "voice_cloning_outputs"
}

func defaults() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"host":             "localhost",
			"port":             8080,
			"read_timeout":     "30s",
			"write_timeout":    "10m",
			"idle_timeout":     "120s",
			"shutdown_timeout": "10s",
			"allowed_origins":  []string{},
		},
		"logging": map[string]any{
			"level":   "info",
			"profile": "STRUCTURED",
		},
		"engine": map[string]any{
			"url":     "http://localhost:8020",
			"timeout": "5m",
			"model":   "XTTS v2",
		},
		"punctuator": map[string]any{
			"url":     "",
			"timeout": "10s",
		},
		"paths": map[string]any{
			"output_root": defaultOutputRoot(),
			"temp_dir":    filepath.Join(os.TempDir(), "lyrebird"),
			"example_dir": "example_voice",
		},
		"retention": map[string]any{
			"job_ttl":  jobregistry.DefaultJobTTL.String(),
			"max_jobs": jobregistry.DefaultMaxJobs,
		},
		"limits": map[string]any{
			"max_upload_bytes": synth.MaxReferenceAudioBytes,
			"job_list_limit":   50,
			"queue_size":       16,
		},
		"rate_limit": map[string]any{
			"clone_per_second": 2.0,
			"clone_burst":      5,
		},
		"mirror": map[string]any{
			"enabled":           false,
			"bucket":            "",
			"region":            "",
			"endpoint":          "",
			"access_key_id":     "",
			"secret_access_key": "",
			"force_path_style":  false,
		},
	}
}
