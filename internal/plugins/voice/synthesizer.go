package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gutosantos82/py-gpt/internal/logger"
)

// SpeechRequest is one synthesis job.
type SpeechRequest struct {
	Text       string
	Voice      string
	Model      string
	OutputPath string
}

// SynthesizerConfig configures the OpenAI-compatible audio endpoints.
type SynthesizerConfig struct {
	APIKey         string
	BaseURL        string
	TimeoutSeconds int
}

// Synthesizer talks to the /audio/speech and /audio/transcriptions
// endpoints of an OpenAI-compatible API.
type Synthesizer struct {
	cfg        SynthesizerConfig
	httpClient *http.Client
	logger     *logger.Logger
}

func NewSynthesizer(cfg SynthesizerConfig, log *logger.Logger) *Synthesizer {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Synthesizer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Synthesize renders text to an audio file and returns the file path.
func (s *Synthesizer) Synthesize(ctx context.Context, req SpeechRequest) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"model": req.Model,
		"voice": req.Voice,
		"input": req.Text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal speech request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.endpoint("/audio/speech"), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create speech request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("speech API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(req.OutputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}
	defer file.Close()

	n, err := io.Copy(file, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	s.logger.Info("speech synthesized",
		logger.Field{Key: "path", Value: req.OutputPath},
		logger.Field{Key: "bytes", Value: n})

	return req.OutputPath, nil
}

// Transcribe sends an audio file to the transcription endpoint and returns
// the recognized text.
func (s *Synthesizer) Transcribe(ctx context.Context, audioPath, model, languageTag string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("failed to build multipart request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read audio file: %w", err)
	}
	if err := writer.WriteField("model", model); err != nil {
		return "", err
	}
	if languageTag != "" {
		if err := writer.WriteField("language", languageTag); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.endpoint("/audio/transcriptions"), &body)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return "", fmt.Errorf("failed to read transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}

	return parsed.Text, nil
}

func (s *Synthesizer) endpoint(path string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + path
}

// audioFileName builds a unique output name for synthesized speech.
func audioFileName() string {
	return fmt.Sprintf("speech_%s.mp3", uuid.NewString())
}
