package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrTranscriptionFailed meldet einen fehlgeschlagenen Transkriptionsaufruf.
// Der Capture-Durchlauf endet damit; es gibt keinen automatischen Retry.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Transcriber wandelt Audio in Narrativ-Text um.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error)
}

// WhisperClient spricht den OpenAI-kompatiblen Transkriptions-Endpunkt.
type WhisperClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

func NewWhisperClient(baseURL, apiKey, model string, logger *zap.Logger) *WhisperClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &WhisperClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio", ErrTranscriptionFailed)
	}
	if filename == "" {
		filename = "audio.webm"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	if resp.StatusCode >= 400 {
		if c.logger != nil {
			c.logger.Warn("transcription error", zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
		}
		return "", fmt.Errorf("%w: status=%d", ErrTranscriptionFailed, resp.StatusCode)
	}

	var tr struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if strings.TrimSpace(tr.Text) == "" {
		return "", fmt.Errorf("%w: empty transcript", ErrTranscriptionFailed)
	}

	return tr.Text, nil
}
