// Package config provides the configuration structure for the news-tts
// pipeline. Settings come from a project TOML file loaded through the central
// configurator; the TTS credential is read from the environment only and is
// never stored in the TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Default values applied when the TOML file leaves a field unset.
const (
	DefaultChunkCeiling     = 4096
	DefaultMaxArticles      = 5
	DefaultRequestTimeout   = 30
	DefaultSynthesisTimeout = 60
	DefaultMaxRetries       = 3
	DefaultRequestDelay     = 1
	DefaultOutputDir        = "audio_files"
	DefaultLogsDir          = "logs"
	DefaultScheduleTime     = "09:00"
	DefaultOutputFormat     = "mp3"
)

// Supported TTS providers.
const (
	ProviderElevenLabs = "elevenlabs"
	ProviderOpenAI     = "openai"
)

// Configuration validation errors.
var (
	ErrMissingListingURL     = errors.New("source.listing_url is required")
	ErrMissingContentSel     = errors.New("source.content_selectors must list at least one selector")
	ErrInvalidMaxArticles    = errors.New("source.max_articles must be at least 1")
	ErrUnsupportedProvider   = errors.New("tts.provider must be 'elevenlabs' or 'openai'")
	ErrMissingVoice          = errors.New("tts.voice is required")
	ErrMissingAPIKeyEnv      = errors.New("tts.api_key_env is required")
	ErrInvalidChunkCeiling   = errors.New("pipeline.chunk_ceiling must be at least 1")
	ErrInvalidScheduleTime   = errors.New("schedule.time must be HH:MM in 24-hour format")
	ErrCredentialNotSet      = errors.New("TTS credential environment variable is not set")
	ErrInvalidMaxRetries     = errors.New("tts.max_retries must be non-negative")
	ErrInvalidRequestTimeout = errors.New("source.request_timeout_seconds must be at least 1")
)

var scheduleTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// SourceConfig describes the news site: the listing URL and the CSS selectors
// used to locate article cards and content.
type SourceConfig struct {
	Name                string   `toml:"name"`
	ListingURL          string   `toml:"listing_url"`
	ArticleCardSelector string   `toml:"article_card_selector"`
	TitleSelector       string   `toml:"title_selector"`
	AuthorSelector      string   `toml:"author_selector"`
	LinkSelector        string   `toml:"link_selector"`
	ContentSelectors    []string `toml:"content_selectors"`
	ExcludeSelectors    []string `toml:"exclude_selectors"`
	ArticlePathHint     string   `toml:"article_path_hint"`
	MaxArticles         int      `toml:"max_articles"`
	RequestTimeoutSec   int      `toml:"request_timeout_seconds"`

	// Pointer so an explicit 0 (no politeness delay) survives defaulting.
	RequestDelaySec *int `toml:"delay_between_requests_seconds"`
}

// TTSConfig selects the provider and voice used for synthesis. The credential
// is looked up in the environment under APIKeyEnv.
type TTSConfig struct {
	Provider       string `toml:"provider"`
	Voice          string `toml:"voice"`
	Model          string `toml:"model"`
	OutputFormat   string `toml:"output_format"`
	BaseURL        string `toml:"base_url"`
	APIKeyEnv      string `toml:"api_key_env"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	// Pointer so an explicit 0 (no retry) survives defaulting.
	MaxRetries *int `toml:"max_retries"`
}

// ScheduleConfig controls the optional daily daemon mode.
type ScheduleConfig struct {
	Enabled bool   `toml:"enabled"`
	Time    string `toml:"time"`
}

// PathsConfig holds the output and log directories.
type PathsConfig struct {
	OutputDir   string `toml:"output_dir"`
	BaseLogsDir string `toml:"base_logs_dir"`
}

// PipelineConfig holds orchestrator-level settings.
type PipelineConfig struct {
	ChunkCeiling int `toml:"chunk_ceiling"`
}

// Config is the root configuration structure.
type Config struct {
	Source   SourceConfig   `toml:"source"`
	TTS      TTSConfig      `toml:"tts"`
	Schedule ScheduleConfig `toml:"schedule"`
	Paths    PathsConfig    `toml:"paths"`
	Pipeline PipelineConfig `toml:"pipeline"`
}

// Load loads the configuration through the central configurator, applies
// defaults, and validates the result.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills unset fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Source.MaxArticles == 0 {
		c.Source.MaxArticles = DefaultMaxArticles
	}

	if c.Source.RequestTimeoutSec == 0 {
		c.Source.RequestTimeoutSec = DefaultRequestTimeout
	}

	if c.Source.RequestDelaySec == nil {
		delay := DefaultRequestDelay
		c.Source.RequestDelaySec = &delay
	}

	if c.TTS.OutputFormat == "" {
		c.TTS.OutputFormat = DefaultOutputFormat
	}

	if c.TTS.TimeoutSeconds == 0 {
		c.TTS.TimeoutSeconds = DefaultSynthesisTimeout
	}

	if c.TTS.MaxRetries == nil {
		retries := DefaultMaxRetries
		c.TTS.MaxRetries = &retries
	}

	if c.Schedule.Time == "" {
		c.Schedule.Time = DefaultScheduleTime
	}

	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = DefaultOutputDir
	}

	if c.Paths.BaseLogsDir == "" {
		c.Paths.BaseLogsDir = DefaultLogsDir
	}

	if c.Pipeline.ChunkCeiling == 0 {
		c.Pipeline.ChunkCeiling = DefaultChunkCeiling
	}
}

// Validate checks the configuration for missing or inconsistent settings.
// It does not touch the environment; credential presence is checked
// separately via APIKey so config files can be validated without credentials.
func (c *Config) Validate() error {
	if c.Source.ListingURL == "" {
		return ErrMissingListingURL
	}

	if len(c.Source.ContentSelectors) == 0 {
		return ErrMissingContentSel
	}

	if c.Source.MaxArticles < 1 {
		return ErrInvalidMaxArticles
	}

	if c.Source.RequestTimeoutSec < 1 {
		return ErrInvalidRequestTimeout
	}

	if c.TTS.Provider != ProviderElevenLabs && c.TTS.Provider != ProviderOpenAI {
		return fmt.Errorf("%w: got %q", ErrUnsupportedProvider, c.TTS.Provider)
	}

	if c.TTS.Voice == "" {
		return ErrMissingVoice
	}

	if c.TTS.APIKeyEnv == "" {
		return ErrMissingAPIKeyEnv
	}

	if c.TTS.MaxRetries != nil && *c.TTS.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.Pipeline.ChunkCeiling < 1 {
		return ErrInvalidChunkCeiling
	}

	if !scheduleTimePattern.MatchString(c.Schedule.Time) {
		return fmt.Errorf("%w: got %q", ErrInvalidScheduleTime, c.Schedule.Time)
	}

	return nil
}

// APIKey reads the TTS credential from the environment variable named by
// tts.api_key_env. A missing or empty value is a fatal configuration error.
func (c *Config) APIKey() (string, error) {
	key := os.Getenv(c.TTS.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%w: %s", ErrCredentialNotSet, c.TTS.APIKeyEnv)
	}

	return key, nil
}
