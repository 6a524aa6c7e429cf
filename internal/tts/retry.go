package tts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/cenkalti/backoff/v4"

	"github.com/Jukowsky/newsTTS/internal/config"
	"github.com/Jukowsky/newsTTS/internal/core"
)

// Retrying wraps a SpeechSynthesizer with bounded exponential-backoff retry.
// Only transient failures (core.ErrNetwork: timeouts, 5xx, rate limits) are
// retried; credential rejections (core.ErrConfig) and permanent API errors
// stop immediately. When the retry budget is exhausted the failure surfaces
// as core.ErrSynthesis and the orchestrator skips the chunk.
type Retrying struct {
	inner      core.SpeechSynthesizer
	maxRetries uint64
	newBackOff func() backoff.BackOff
	log        *logger.Logger
}

// NewRetrying wraps inner with the default exponential backoff policy.
func NewRetrying(inner core.SpeechSynthesizer, maxRetries int, log *logger.Logger) *Retrying {
	return &Retrying{
		inner:      inner,
		maxRetries: uint64(maxRetries),
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		log:        log,
	}
}

// NewRetryingWithBackOff wraps inner with a caller-supplied backoff factory.
// This constructor is primarily for testing, where waiting on the default
// intervals would slow the suite down.
func NewRetryingWithBackOff(
	inner core.SpeechSynthesizer,
	maxRetries int,
	newBackOff func() backoff.BackOff,
	log *logger.Logger,
) *Retrying {
	return &Retrying{
		inner:      inner,
		maxRetries: uint64(maxRetries),
		newBackOff: newBackOff,
		log:        log,
	}
}

// Synthesize calls the wrapped synthesizer, retrying transient failures up
// to the configured count.
func (r *Retrying) Synthesize(ctx context.Context, chunkText string) ([]byte, error) {
	var (
		audio    []byte
		attempts int
	)

	operation := func() error {
		attempts++

		data, err := r.inner.Synthesize(ctx, chunkText)
		if err != nil {
			if errors.Is(err, core.ErrNetwork) {
				r.log.Warn("Transient synthesis failure (attempt %d): %v", attempts, err)

				return err
			}

			return backoff.Permanent(err)
		}

		audio = data

		return nil
	}

	policy := backoff.WithMaxRetries(r.newBackOff(), r.maxRetries)

	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))
	if err != nil {
		if errors.Is(err, core.ErrConfig) {
			return nil, err
		}

		if errors.Is(err, core.ErrSynthesis) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: giving up after %d attempts: %v", core.ErrSynthesis, attempts, err)
	}

	return audio, nil
}

// FileExtension reports the wrapped synthesizer's audio container.
func (r *Retrying) FileExtension() string {
	return r.inner.FileExtension()
}

// NewSynthesizer builds the configured provider client and wraps it with the
// configured retry budget. The credential is passed in by the caller, which
// has already resolved it from the environment.
func NewSynthesizer(cfg config.TTSConfig, apiKey string, log *logger.Logger) (core.SpeechSynthesizer, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	var inner core.SpeechSynthesizer

	switch cfg.Provider {
	case config.ProviderElevenLabs:
		inner = NewElevenLabs(cfg.BaseURL, apiKey, cfg.Voice, cfg.Model, timeout)
	case config.ProviderOpenAI:
		inner = NewOpenAI(cfg.BaseURL, apiKey, cfg.Voice, cfg.Model, cfg.OutputFormat, timeout)
	default:
		return nil, fmt.Errorf("%w: unknown TTS provider %q", core.ErrConfig, cfg.Provider)
	}

	retries := config.DefaultMaxRetries
	if cfg.MaxRetries != nil {
		retries = *cfg.MaxRetries
	}

	return NewRetrying(inner, retries, log), nil
}
