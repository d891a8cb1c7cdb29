// Package stt provides speech-to-text engine interface and implementations.
//
// Engines consume raw PCM frames (16 kHz, 16-bit little-endian mono) from a
// channel and produce an order-preserving stream of results. A partial
// result is a provisional guess that later results may revise; a final
// result closes the current utterance.
package stt

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Result is one transcription result.
type Result struct {
	Text string
	// Final reports whether this result closes the current utterance.
	// Non-final results are best-effort guesses that may be revised.
	Final bool
}

// Engine transcribes a stream of audio frames.
type Engine interface {
	// Name returns the engine identifier.
	Name() string

	// IsReady returns true once the underlying model is loaded. Callers
	// must not start recognition on an engine that is not ready.
	IsReady() bool

	// Recognize consumes frames until the channel is closed or ctx is
	// cancelled, sending results on the returned channel. The returned
	// channel is closed after any trailing result has been flushed.
	Recognize(ctx context.Context, frames <-chan []byte) <-chan Result

	// Close releases engine resources.
	Close() error
}

// EngineType selects an engine implementation.
type EngineType string

const (
	// EngineVosk is the local streaming engine (partials + finals).
	EngineVosk EngineType = "vosk"
	// EngineWhisper is the local segment-buffered engine (finals only).
	EngineWhisper EngineType = "whisper"
	// EngineWhisperAPI is the remote segment-buffered engine.
	EngineWhisperAPI EngineType = "whisper-api"
)

// Config holds settings for creating an engine.
type Config struct {
	Engine EngineType

	// Vosk
	VoskModelPath string

	// Whisper (local)
	WhisperModelPath string
	Language         string

	// Whisper API
	APIKey     string
	APIBaseURL string
	APIModel   string
}

// New creates an engine based on the config.
func New(cfg Config) (Engine, error) {
	switch cfg.Engine {
	case EngineVosk, "":
		return NewVosk(cfg.VoskModelPath)
	case EngineWhisper:
		return NewWhisper(cfg.WhisperModelPath, cfg.Language)
	case EngineWhisperAPI:
		return NewWhisperAPI(WhisperAPIConfig{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.APIBaseURL,
			Model:    cfg.APIModel,
			Language: cfg.Language,
		}), nil
	default:
		return nil, fmt.Errorf("stt: unknown engine %q (supported: vosk, whisper, whisper-api)", cfg.Engine)
	}
}

const (
	// resultCapacity bounds each engine's result channel.
	resultCapacity = 64
	// finalSendTimeout is how long a final result may wait on a full
	// channel before being dropped.
	finalSendTimeout = time.Second
)

// sendPartial sends a partial result without blocking. A dropped partial
// is self-healing: the next partial or final supersedes it.
func sendPartial(out chan<- Result, text string) {
	select {
	case out <- Result{Text: text}:
	default:
	}
}

// sendFinal sends a final result, blocking up to finalSendTimeout.
// Dropping a final loses text with no resend path, so the drop is loud.
func sendFinal(ctx context.Context, out chan<- Result, text string) {
	select {
	case out <- Result{Text: text, Final: true}:
	case <-ctx.Done():
	case <-time.After(finalSendTimeout):
		slog.Warn("final result dropped, consumer stalled", "chars", len(text))
	}
}
