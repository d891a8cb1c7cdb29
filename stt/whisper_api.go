package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultWhisperAPIURL = "https://api.openai.com/v1/audio/transcriptions"

// WhisperAPI implements Engine using an OpenAI-compatible transcription
// endpoint. Like the local Whisper engine it is segment-buffered and
// yields only final results.
type WhisperAPI struct {
	apiKey   string
	baseURL  string
	model    string
	language string
	http     *http.Client
}

// WhisperAPIConfig holds configuration for WhisperAPI.
type WhisperAPIConfig struct {
	APIKey   string
	BaseURL  string // Optional, defaults to OpenAI's API
	Model    string // Optional, defaults to "whisper-1"
	Language string // Optional, empty means auto-detect
}

// NewWhisperAPI creates a new remote whisper engine.
func NewWhisperAPI(cfg WhisperAPIConfig) *WhisperAPI {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultWhisperAPIURL
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}

	return &WhisperAPI{
		apiKey:   cfg.APIKey,
		baseURL:  baseURL,
		model:    model,
		language: cfg.Language,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// Name returns the engine identifier.
func (w *WhisperAPI) Name() string { return "whisper-api" }

// IsReady reports whether an API key is configured.
func (w *WhisperAPI) IsReady() bool { return w.apiKey != "" }

// Recognize buffers frames into segments and sends each to the API.
func (w *WhisperAPI) Recognize(ctx context.Context, frames <-chan []byte) <-chan Result {
	out := make(chan Result, resultCapacity)
	go runSegments(ctx, frames, out, w.Name(), w.transcribe)
	return out
}

// apiResponse parses the transcription endpoint response.
type apiResponse struct {
	Text string `json:"text"`
}

// transcribe posts one segment to the transcription endpoint as WAV.
func (w *WhisperAPI) transcribe(samples []float32) (string, error) {
	wavData, err := float32ToWAV(samples, sampleRate)
	if err != nil {
		return "", fmt.Errorf("convert to WAV: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}

	if err := writer.WriteField("model", w.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}

	// The API does not accept "auto"; empty means auto-detect.
	if w.language != "" && w.language != "auto" {
		if err := writer.WriteField("language", w.language); err != nil {
			return "", fmt.Errorf("write language field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, w.baseURL, &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API returned %d: %s", resp.StatusCode, body)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return parsed.Text, nil
}

// Close releases resources.
func (w *WhisperAPI) Close() error { return nil }

// float32ToWAV converts float32 samples to a 16-bit PCM WAV file.
func float32ToWAV(samples []float32, rate int) ([]byte, error) {
	numSamples := len(samples)
	dataSize := numSamples * 2 // 16-bit = 2 bytes per sample

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	// RIFF header
	buf.WriteString("RIFF")
	writeUint32LE(buf, uint32(36+dataSize)) // File size - 8
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	writeUint32LE(buf, 16)             // Chunk size
	writeUint16LE(buf, 1)              // Audio format (PCM)
	writeUint16LE(buf, 1)              // Num channels (mono)
	writeUint32LE(buf, uint32(rate))   // Sample rate
	writeUint32LE(buf, uint32(rate*2)) // Byte rate
	writeUint16LE(buf, 2)              // Block align
	writeUint16LE(buf, 16)             // Bits per sample

	// data chunk
	buf.WriteString("data")
	writeUint32LE(buf, uint32(dataSize))

	for _, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		writeInt16LE(buf, int16(s*32767))
	}

	return buf.Bytes(), nil
}

func writeUint16LE(buf *bytes.Buffer, v uint16) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
}

func writeInt16LE(buf *bytes.Buffer, v int16) {
	writeUint16LE(buf, uint16(v))
}

func writeUint32LE(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 24))
}
