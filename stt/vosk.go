package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
)

// Vosk implements Engine using the Vosk streaming recognizer. The decoder
// is stateful: it detects utterance endpoints itself, emitting partial
// results while an utterance is in flight and one final result per
// detected endpoint.
type Vosk struct {
	mu         sync.Mutex
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
}

// voskResult parses the JSON of a final Vosk result.
type voskResult struct {
	Text string `json:"text"`
}

// voskPartial parses the JSON of a partial Vosk result.
type voskPartial struct {
	Partial string `json:"partial"`
}

// NewVosk loads a Vosk model from a directory and creates the recognizer.
func NewVosk(modelPath string) (*Vosk, error) {
	if info, err := os.Stat(modelPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("vosk model path is not a directory: %s", modelPath)
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load vosk model: %w", err)
	}

	rec, err := vosk.NewRecognizer(model, sampleRate)
	if err != nil {
		model.Free()
		return nil, fmt.Errorf("create vosk recognizer: %w", err)
	}

	return &Vosk{
		model:      model,
		recognizer: rec,
	}, nil
}

// Name returns the engine identifier.
func (v *Vosk) Name() string { return "vosk" }

// IsReady reports whether the model is loaded.
func (v *Vosk) IsReady() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.recognizer != nil
}

// Recognize feeds frames to the decoder. AcceptWaveform returns non-zero
// when the decoder detected an utterance endpoint; the accumulated final
// result is emitted and the decoder resets internally. Otherwise the
// current partial guess is emitted when non-empty. At end of stream the
// decoder is flushed for any trailing final.
func (v *Vosk) Recognize(ctx context.Context, frames <-chan []byte) <-chan Result {
	out := make(chan Result, resultCapacity)

	go func() {
		defer close(out)

		lastPartial := ""
		for {
			var frame []byte
			var ok bool
			select {
			case <-ctx.Done():
				return
			case frame, ok = <-frames:
			}
			if !ok {
				break
			}
			if len(frame) == 0 {
				continue
			}

			v.mu.Lock()
			rec := v.recognizer
			v.mu.Unlock()
			if rec == nil {
				return
			}

			if rec.AcceptWaveform(frame) != 0 {
				if text := parseVoskFinal(rec.Result()); text != "" {
					sendFinal(ctx, out, text)
				}
				lastPartial = ""
				continue
			}

			if text := parseVoskPartial(rec.PartialResult()); text != "" && text != lastPartial {
				sendPartial(out, text)
				lastPartial = text
			}
		}

		// Flush the trailing utterance, if any.
		v.mu.Lock()
		rec := v.recognizer
		v.mu.Unlock()
		if rec != nil {
			if text := parseVoskFinal(rec.FinalResult()); text != "" {
				sendFinal(ctx, out, text)
			}
		}
	}()

	return out
}

// parseVoskFinal extracts the text of a final result. A malformed result
// is logged and skipped; one bad frame must not stop the stream.
func parseVoskFinal(resultJSON string) string {
	var result voskResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		slog.Debug("vosk result parse failed", "error", err)
		return ""
	}
	return result.Text
}

// parseVoskPartial extracts the text of a partial result.
func parseVoskPartial(partialJSON string) string {
	var partial voskPartial
	if err := json.Unmarshal([]byte(partialJSON), &partial); err != nil {
		slog.Debug("vosk partial parse failed", "error", err)
		return ""
	}
	return partial.Partial
}

// Close releases the model and recognizer.
func (v *Vosk) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
	return nil
}
