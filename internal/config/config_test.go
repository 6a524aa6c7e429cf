// Package config_test tests TOML decoding, defaulting, and validation.
package config_test

import (
	"testing"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jukowsky/newsTTS/internal/config"
)

const fullConfigTOML = `
[source]
name = "Daily Columns"
listing_url = "https://news.example.com/columns"
article_card_selector = "div.article-card"
title_selector = "h3"
author_selector = "div.author-info"
link_selector = "a.card"
content_selectors = ["div.article-content", "article"]
exclude_selectors = ["div.related", "aside"]
article_path_hint = "/columns/"
max_articles = 7
request_timeout_seconds = 20
delay_between_requests_seconds = 2

[tts]
provider = "elevenlabs"
voice = "voice-1"
model = "eleven_multilingual_v2"
output_format = "mp3"
api_key_env = "ELEVENLABS_API_KEY"
timeout_seconds = 45
max_retries = 4

[schedule]
enabled = true
time = "07:30"

[paths]
output_dir = "/var/lib/news-tts/audio"
base_logs_dir = "/var/log/news-tts"

[pipeline]
chunk_ceiling = 2048
`

func validConfig() config.Config {
	var cfg config.Config

	err := toml.Unmarshal([]byte(fullConfigTOML), &cfg)
	if err != nil {
		panic(err)
	}

	return cfg
}

func TestUnmarshalFullDocument(t *testing.T) {
	t.Parallel()

	cfg := validConfig()

	assert.Equal(t, "Daily Columns", cfg.Source.Name)
	assert.Equal(t, "https://news.example.com/columns", cfg.Source.ListingURL)
	assert.Equal(t, []string{"div.article-content", "article"}, cfg.Source.ContentSelectors)
	assert.Equal(t, []string{"div.related", "aside"}, cfg.Source.ExcludeSelectors)
	assert.Equal(t, "/columns/", cfg.Source.ArticlePathHint)
	assert.Equal(t, 7, cfg.Source.MaxArticles)
	assert.Equal(t, 20, cfg.Source.RequestTimeoutSec)
	require.NotNil(t, cfg.Source.RequestDelaySec)
	assert.Equal(t, 2, *cfg.Source.RequestDelaySec)

	assert.Equal(t, config.ProviderElevenLabs, cfg.TTS.Provider)
	assert.Equal(t, "voice-1", cfg.TTS.Voice)
	assert.Equal(t, "ELEVENLABS_API_KEY", cfg.TTS.APIKeyEnv)
	assert.Equal(t, 45, cfg.TTS.TimeoutSeconds)
	require.NotNil(t, cfg.TTS.MaxRetries)
	assert.Equal(t, 4, *cfg.TTS.MaxRetries)

	assert.True(t, cfg.Schedule.Enabled)
	assert.Equal(t, "07:30", cfg.Schedule.Time)

	assert.Equal(t, "/var/lib/news-tts/audio", cfg.Paths.OutputDir)
	assert.Equal(t, "/var/log/news-tts", cfg.Paths.BaseLogsDir)

	assert.Equal(t, 2048, cfg.Pipeline.ChunkCeiling)

	require.NoError(t, cfg.Validate())
}

func TestApplyDefaultsFillsUnsetFields(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	cfg.ApplyDefaults()

	assert.Equal(t, config.DefaultMaxArticles, cfg.Source.MaxArticles)
	assert.Equal(t, config.DefaultRequestTimeout, cfg.Source.RequestTimeoutSec)
	require.NotNil(t, cfg.Source.RequestDelaySec)
	assert.Equal(t, config.DefaultRequestDelay, *cfg.Source.RequestDelaySec)
	assert.Equal(t, config.DefaultOutputFormat, cfg.TTS.OutputFormat)
	assert.Equal(t, config.DefaultSynthesisTimeout, cfg.TTS.TimeoutSeconds)
	require.NotNil(t, cfg.TTS.MaxRetries)
	assert.Equal(t, config.DefaultMaxRetries, *cfg.TTS.MaxRetries)
	assert.Equal(t, config.DefaultScheduleTime, cfg.Schedule.Time)
	assert.Equal(t, config.DefaultOutputDir, cfg.Paths.OutputDir)
	assert.Equal(t, config.DefaultLogsDir, cfg.Paths.BaseLogsDir)
	assert.Equal(t, config.DefaultChunkCeiling, cfg.Pipeline.ChunkCeiling)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.ApplyDefaults()

	assert.Equal(t, 7, cfg.Source.MaxArticles)
	assert.Equal(t, 2048, cfg.Pipeline.ChunkCeiling)
	assert.Equal(t, "07:30", cfg.Schedule.Time)
}

func TestApplyDefaultsKeepsExplicitZeros(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	// An operator turning off retries and the politeness delay must not get
	// the defaults back.
	err := toml.Unmarshal([]byte("[source]\ndelay_between_requests_seconds = 0\n[tts]\nmax_retries = 0\n"), &cfg)
	require.NoError(t, err)

	cfg.ApplyDefaults()

	require.NotNil(t, cfg.Source.RequestDelaySec)
	assert.Equal(t, 0, *cfg.Source.RequestDelaySec)
	require.NotNil(t, cfg.TTS.MaxRetries)
	assert.Equal(t, 0, *cfg.TTS.MaxRetries)
}

func TestValidateRejectsBadConfigurations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr error
	}{
		{
			name:    "missing listing url",
			mutate:  func(cfg *config.Config) { cfg.Source.ListingURL = "" },
			wantErr: config.ErrMissingListingURL,
		},
		{
			name:    "no content selectors",
			mutate:  func(cfg *config.Config) { cfg.Source.ContentSelectors = nil },
			wantErr: config.ErrMissingContentSel,
		},
		{
			name:    "zero max articles",
			mutate:  func(cfg *config.Config) { cfg.Source.MaxArticles = 0 },
			wantErr: config.ErrInvalidMaxArticles,
		},
		{
			name:    "zero request timeout",
			mutate:  func(cfg *config.Config) { cfg.Source.RequestTimeoutSec = 0 },
			wantErr: config.ErrInvalidRequestTimeout,
		},
		{
			name:    "unknown provider",
			mutate:  func(cfg *config.Config) { cfg.TTS.Provider = "espeak" },
			wantErr: config.ErrUnsupportedProvider,
		},
		{
			name:    "missing voice",
			mutate:  func(cfg *config.Config) { cfg.TTS.Voice = "" },
			wantErr: config.ErrMissingVoice,
		},
		{
			name:    "missing api key env",
			mutate:  func(cfg *config.Config) { cfg.TTS.APIKeyEnv = "" },
			wantErr: config.ErrMissingAPIKeyEnv,
		},
		{
			name: "negative retries",
			mutate: func(cfg *config.Config) {
				retries := -1
				cfg.TTS.MaxRetries = &retries
			},
			wantErr: config.ErrInvalidMaxRetries,
		},
		{
			name:    "zero chunk ceiling",
			mutate:  func(cfg *config.Config) { cfg.Pipeline.ChunkCeiling = 0 },
			wantErr: config.ErrInvalidChunkCeiling,
		},
		{
			name:    "malformed schedule time",
			mutate:  func(cfg *config.Config) { cfg.Schedule.Time = "25:99" },
			wantErr: config.ErrInvalidScheduleTime,
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			testCase.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func TestAPIKeyReadsEnvironment(t *testing.T) {
	cfg := validConfig()

	t.Setenv(cfg.TTS.APIKeyEnv, "secret-key")

	key, err := cfg.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "secret-key", key)
}

func TestAPIKeyMissingIsFatal(t *testing.T) {
	cfg := validConfig()
	cfg.TTS.APIKeyEnv = "NEWS_TTS_TEST_UNSET_KEY"

	t.Setenv(cfg.TTS.APIKeyEnv, "")

	_, err := cfg.APIKey()
	require.ErrorIs(t, err, config.ErrCredentialNotSet)
}
