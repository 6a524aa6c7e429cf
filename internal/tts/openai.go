package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OpenAI defaults.
const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "tts-1"

	openAISpeechPath = "/audio/speech"
	bearerPrefix     = "Bearer "
)

// openAIRequest is the JSON payload for the OpenAI speech endpoint.
type openAIRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// OpenAI is a SpeechSynthesizer backed by the OpenAI audio API, using bearer
// authentication. The response body is raw audio in the requested format.
type OpenAI struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	voice      string
	model      string
	format     string
}

// NewOpenAI creates an OpenAI speech client. Empty baseURL, model, or format
// select the production API, the tts-1 model, and mp3 output.
func NewOpenAI(baseURL, apiKey, voice, model, format string, timeout time.Duration) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	if model == "" {
		model = DefaultOpenAIModel
	}

	if format == "" {
		format = mp3Extension
	}

	return &OpenAI{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		voice:      voice,
		model:      model,
		format:     format,
	}
}

// Synthesize sends one chunk of text to the OpenAI speech endpoint and
// returns the audio bytes, classified into the core error taxonomy on
// failure.
func (o *OpenAI) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	payload := openAIRequest{
		Model:          o.model,
		Input:          text,
		Voice:          o.voice,
		ResponseFormat: o.format,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := o.baseURL + openAISpeechPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set(headerAuthorization, bearerPrefix+o.apiKey)

	return doSpeechRequest(o.httpClient, req)
}

// FileExtension reports the requested output container.
func (o *OpenAI) FileExtension() string {
	return o.format
}
