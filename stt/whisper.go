package stt

import (
	"context"
	"io"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// Whisper implements Engine using whisper.cpp. Whisper has no streaming
// decoder, so audio is buffered into fixed-duration segments and each
// segment is recognized as a whole, yielding one final result. Partials
// are never produced.
type Whisper struct {
	mu       sync.Mutex
	model    whisper.Model
	language string
}

// NewWhisper loads a whisper.cpp model file.
func NewWhisper(modelPath, language string) (*Whisper, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, err
	}
	return &Whisper{
		model:    model,
		language: language,
	}, nil
}

// Name returns the engine identifier.
func (w *Whisper) Name() string { return "whisper" }

// IsReady reports whether the model is loaded.
func (w *Whisper) IsReady() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model != nil
}

// Recognize buffers frames into segments and recognizes each one.
func (w *Whisper) Recognize(ctx context.Context, frames <-chan []byte) <-chan Result {
	out := make(chan Result, resultCapacity)
	go runSegments(ctx, frames, out, w.Name(), w.transcribe)
	return out
}

// transcribe runs whisper over one segment of samples.
func (w *Whisper) transcribe(samples []float32) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", err
	}

	wctx.SetTranslate(false)
	if w.language != "" {
		wctx.SetLanguage(w.language)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", err
	}

	var result strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		result.WriteString(segment.Text)
	}

	return strings.TrimSpace(result.String()), nil
}

// Close releases the model.
func (w *Whisper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		w.model.Close()
		w.model = nil
	}
	return nil
}
