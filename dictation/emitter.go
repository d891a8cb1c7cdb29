package dictation

import (
	"log/slog"
	"strings"
)

// Emitter converts a stream of transcripts into typed chunks, emitting as
// early as possible without ever re-sending already-sent words. It tracks
// the exact text already typed for the current utterance and emits a chunk
// whenever wordLimit new complete words are available, instead of waiting
// for the utterance to finalize.
//
// Emitter is not safe for concurrent use: the pipeline's consume loop is
// its only writer.
type Emitter struct {
	sink      TextSink
	wordLimit int

	// typedSoFar is the exact text already sent to the sink for the
	// current utterance. Cleared when an utterance finalizes, when a
	// command is recognized, or when the recognizer revises its guess.
	typedSoFar string
}

// NewEmitter creates an emitter that types through sink in chunks of
// wordLimit words. Limits below 1 are raised to 1.
func NewEmitter(sink TextSink, wordLimit int) *Emitter {
	e := &Emitter{sink: sink}
	e.SetWordLimit(wordLimit)
	return e
}

// SetWordLimit changes the chunk size for subsequent emissions.
func (e *Emitter) SetWordLimit(n int) {
	if n < 1 {
		n = 1
	}
	e.wordLimit = n
}

// Feed processes one transcript for the current utterance. For a partial,
// only full chunks of wordLimit words are emitted; for a final, leftover
// words are emitted too and the utterance state is cleared.
//
// When the new transcript is not a textual extension of what was already
// typed, the recognizer revised itself: the typed record is discarded and
// the new text is emitted from its start. Words already typed from the
// revised guess are not retracted; that is an accepted tradeoff of
// incremental output.
func (e *Emitter) Feed(text string, final bool) {
	prefix := strings.TrimRight(e.typedSoFar, " \t")
	if !strings.HasPrefix(text, prefix) && text != prefix {
		e.typedSoFar = ""
		prefix = ""
	}

	remainder := strings.TrimSpace(text[len(prefix):])
	words := strings.Fields(remainder)

	for len(words) >= e.wordLimit {
		chunk := strings.Join(words[:e.wordLimit], " ") + " "
		e.typeChunk(chunk)
		e.typedSoFar += chunk
		words = words[e.wordLimit:]
	}

	if final {
		if len(words) > 0 {
			e.typeChunk(strings.Join(words, " ") + " ")
		}
		// Utterance boundary always clears state.
		e.typedSoFar = ""
	}
}

// Reset discards the per-utterance state without emitting anything.
func (e *Emitter) Reset() {
	e.typedSoFar = ""
}

// typeChunk sends one chunk to the sink. A sink failure is logged and the
// chunk is still counted as typed; there is no retry path.
func (e *Emitter) typeChunk(chunk string) {
	if err := e.sink.Type(chunk); err != nil {
		slog.Error("type chunk failed", "chars", len(chunk), "error", err)
	}
}
