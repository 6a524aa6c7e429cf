// Package tts provides the SpeechSynthesizer implementations for the
// supported TTS providers, plus the bounded-retry wrapper the pipeline
// places in front of them.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Jukowsky/newsTTS/internal/core"
)

// HTTP headers shared by the provider clients.
const (
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerElevenLabsKey = "xi-api-key"
	headerAuthorization = "Authorization"
	contentTypeJSON     = "application/json"
	contentTypeMPEG     = "audio/mpeg"
)

// ElevenLabs defaults.
const (
	DefaultElevenLabsBaseURL = "https://api.elevenlabs.io/v1"
	DefaultElevenLabsModel   = "eleven_multilingual_v2"

	elevenLabsSpeechPath = "/text-to-speech/"
	mp3Extension         = "mp3"
)

// Voice settings sent with every ElevenLabs request.
const (
	voiceStability       = 0.5
	voiceSimilarityBoost = 0.75
	voiceStyle           = 0.0
)

// ErrEmptyText is returned when a synthesizer is asked to speak nothing.
var ErrEmptyText = errors.New("text cannot be empty")

// elevenLabsRequest is the JSON payload for the ElevenLabs speech endpoint.
type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// ElevenLabs is a SpeechSynthesizer backed by the ElevenLabs HTTP API.
// Authentication uses the xi-api-key header; the response body is raw MPEG
// audio.
type ElevenLabs struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	voiceID    string
	modelID    string
}

// NewElevenLabs creates an ElevenLabs client. An empty baseURL or modelID
// selects the production API and the multilingual model.
func NewElevenLabs(baseURL, apiKey, voiceID, modelID string, timeout time.Duration) *ElevenLabs {
	if baseURL == "" {
		baseURL = DefaultElevenLabsBaseURL
	}

	if modelID == "" {
		modelID = DefaultElevenLabsModel
	}

	return &ElevenLabs{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		voiceID:    voiceID,
		modelID:    modelID,
	}
}

// Synthesize sends one chunk of text to the ElevenLabs API and returns the
// MPEG audio bytes. Failures are classified into the core error taxonomy so
// the retry wrapper can distinguish transient from fatal conditions.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	payload := elevenLabsRequest{
		Text:    text,
		ModelID: e.modelID,
		VoiceSettings: elevenLabsSettings{
			Stability:       voiceStability,
			SimilarityBoost: voiceSimilarityBoost,
			Style:           voiceStyle,
			UseSpeakerBoost: true,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := e.baseURL + elevenLabsSpeechPath + e.voiceID

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set(headerAccept, contentTypeMPEG)
	req.Header.Set(headerElevenLabsKey, e.apiKey)

	return doSpeechRequest(e.httpClient, req)
}

// FileExtension reports the audio container ElevenLabs returns.
func (e *ElevenLabs) FileExtension() string {
	return mp3Extension
}

// doSpeechRequest executes a synthesis request and applies the shared
// status-code classification and body handling.
func doSpeechRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request to %s failed: %v", core.ErrNetwork, req.URL.Host, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read audio data: %v", core.ErrNetwork, err)
	}

	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: received empty audio data", core.ErrSynthesis)
	}

	return audio, nil
}

// classifyStatus maps a non-OK response onto the error taxonomy: credential
// rejections are fatal configuration errors, rate limits and server errors
// are transient network errors, anything else is a permanent synthesis
// failure for the chunk.
func classifyStatus(resp *http.Response) error {
	detail := readErrorDetail(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: TTS API rejected credential (%s): %s", core.ErrConfig, resp.Status, detail)
	case resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode == http.StatusRequestTimeout ||
		resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: TTS API returned %s: %s", core.ErrNetwork, resp.Status, detail)
	default:
		return fmt.Errorf("%w: TTS API returned %s: %s", core.ErrSynthesis, resp.Status, detail)
	}
}

// readErrorDetail extracts the human-readable part of an error payload,
// falling back to the raw body when it is not the expected JSON shape.
func readErrorDetail(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "(no error detail)"
	}

	var structured struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}

	if json.Unmarshal(raw, &structured) == nil {
		if structured.Detail != "" {
			return structured.Detail
		}

		if structured.Message != "" {
			return structured.Message
		}
	}

	return string(raw)
}
