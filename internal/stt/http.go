package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// HTTPClient implements Client against a whisper-style recognition
// service that accepts a multipart WAV upload on /transcribe and returns
// a JSON transcript.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPConfig holds configuration for the recognition service client.
type HTTPConfig struct {
	BaseURL    string        // e.g. "http://localhost:9000"
	Timeout    time.Duration // per-request; defaults to 60s
	HTTPClient *http.Client  // optional shared client
}

// NewHTTPClient creates a recognition service client.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: hc,
	}
}

// transcribeResponse covers both whole-text and segmented reply shapes.
type transcribeResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
}

// Recognize uploads the WAV buffer and returns the transcript. An empty
// transcript from a healthy service is reported as ErrNoSpeech.
func (c *HTTPClient) Recognize(ctx context.Context, wavData []byte, language string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("build recognition request: %w", err)
	}
	if _, err := fw.Write(wavData); err != nil {
		return "", fmt.Errorf("build recognition request: %w", err)
	}
	if language != "" {
		if err := w.WriteField("language", language); err != nil {
			return "", fmt.Errorf("build recognition request: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("build recognition request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &body)
	if err != nil {
		return "", fmt.Errorf("build recognition request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("recognition service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("recognition service %s: %s", resp.Status, string(respBody))
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode recognition response: %w", err)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" && len(out.Segments) > 0 {
		parts := make([]string, 0, len(out.Segments))
		for _, s := range out.Segments {
			if t := strings.TrimSpace(s.Text); t != "" {
				parts = append(parts, t)
			}
		}
		text = strings.Join(parts, " ")
	}
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}
