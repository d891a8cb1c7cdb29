// Package dictation implements the continuous voice typing pipeline:
// audio frames in, recognized text typed at the focused window, with
// spoken sleep/wake commands pausing and resuming emission.
package dictation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.aimuz.me/voxtype/stt"
	"go.aimuz.me/voxtype/voicecommand"
)

// ErrAlreadyRunning is returned when starting a running pipeline.
var ErrAlreadyRunning = errors.New("pipeline already running")

// ErrNotReady is returned when the engine's model is not loaded.
var ErrNotReady = errors.New("speech engine not ready")

// stopTimeout bounds how long Stop waits for the consume loop to exit
// before force-proceeding.
const stopTimeout = 2 * time.Second

// TextSink receives finished text chunks, e.g. a keystroke injector or
// the clipboard. A failure is logged by the caller, never retried.
type TextSink interface {
	Type(chunk string) error
}

// PreviewSink receives every transcript, partial or final, awake or
// asleep, for live user feedback.
type PreviewSink interface {
	SetTranscription(text string)
}

// StateSink is notified of awake/asleep transitions.
type StateSink interface {
	SetState(state State)
}

// Options are the user-tunable settings of the pipeline. They are applied
// only when explicitly passed to SetOptions; the pipeline never polls.
type Options struct {
	SleepPhrases []string
	WakePhrases  []string
	WordLimit    int
	// Listening is the awake state to assume: at Start it seeds the
	// initial state; on reload, false forces the pipeline asleep.
	Listening bool
}

// Pipeline connects a speech engine to the text, preview, and state
// sinks. A single consume goroutine owns the emitter, the state
// controller, and all sink calls, so no locking is needed around them.
type Pipeline struct {
	engine  stt.Engine
	text    TextSink
	preview PreviewSink
	state   StateSink
	onFinal func(text string)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	optsCh  chan Options

	// Owned by the consume goroutine.
	emitter *Emitter
	ctrl    *Controller
	sleep   voicecommand.PhraseSet
	wake    voicecommand.PhraseSet
}

// PipelineConfig holds dependencies and initial options for a pipeline.
type PipelineConfig struct {
	Engine  stt.Engine
	Text    TextSink
	Preview PreviewSink
	State   StateSink
	// OnFinal, when set, observes every finalized non-command utterance
	// that was emitted while awake (e.g. for history).
	OnFinal func(text string)
	Options Options
}

// NewPipeline creates a pipeline. Nil sinks are replaced with no-ops.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Engine == nil {
		return nil, errors.New("dictation: engine required")
	}
	if cfg.Text == nil {
		return nil, errors.New("dictation: text sink required")
	}
	if cfg.Preview == nil {
		cfg.Preview = nopPreview{}
	}
	if cfg.State == nil {
		cfg.State = nopState{}
	}

	p := &Pipeline{
		engine:  cfg.Engine,
		text:    cfg.Text,
		preview: cfg.Preview,
		state:   cfg.State,
		onFinal: cfg.OnFinal,
		optsCh:  make(chan Options, 1),
	}
	p.applyOptions(cfg.Options)
	return p, nil
}

// Start begins consuming frames. The engine must be ready; a model that
// failed to load is fatal here, before anything runs.
func (p *Pipeline) Start(ctx context.Context, frames <-chan []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}
	if !p.engine.IsReady() {
		return ErrNotReady
	}

	ctx, cancel := context.WithCancel(ctx)
	results := p.engine.Recognize(ctx, frames)

	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.consume(results)

	slog.Info("dictation started", "engine", p.engine.Name(), "state", p.ctrl.State())
	return nil
}

// Stop cancels recognition and waits for the consume loop to drain, up to
// stopTimeout, then force-proceeds rather than hanging shutdown.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		slog.Warn("consume loop did not exit in time")
	}

	slog.Info("dictation stopped")
	return nil
}

// Running reports whether the pipeline is consuming results.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// SetOptions hands new options to the consume loop. Only the most recent
// pending options are kept. Safe to call from any goroutine.
func (p *Pipeline) SetOptions(opts Options) {
	for {
		select {
		case p.optsCh <- opts:
			return
		default:
			// Replace a pending, not-yet-applied options value.
			select {
			case <-p.optsCh:
			default:
			}
		}
	}
}

// consume is the single-threaded drain loop: the only writer of the
// emitter and controller and the only caller of the sinks. It exits when
// the engine closes its result channel.
func (p *Pipeline) consume(results <-chan stt.Result) {
	defer close(p.done)

	for {
		select {
		case opts := <-p.optsCh:
			p.applyOptions(opts)
		case res, ok := <-results:
			if !ok {
				return
			}
			p.handle(res)
		}
	}
}

// applyOptions rebuilds phrase sets and the word limit. Called from the
// consume goroutine (or before Start).
func (p *Pipeline) applyOptions(opts Options) {
	p.sleep = voicecommand.NewPhraseSet(opts.SleepPhrases)
	p.wake = voicecommand.NewPhraseSet(opts.WakePhrases)

	if p.emitter == nil {
		p.emitter = NewEmitter(p.text, opts.WordLimit)
		initial := StateAsleep
		if opts.Listening {
			initial = StateAwake
		}
		p.ctrl = NewController(initial, p.state)
		return
	}

	p.emitter.SetWordLimit(opts.WordLimit)
	if !opts.Listening && p.ctrl.Sleep() {
		p.emitter.Reset()
	}
}

// handle processes one recognition result.
func (p *Pipeline) handle(res stt.Result) {
	// The preview always follows the recognizer, even while asleep.
	p.preview.SetTranscription(res.Text)

	if res.Text == "" {
		return
	}

	action := voicecommand.Classify(res.Text, p.sleep, p.wake)

	if res.Final {
		p.handleFinal(res.Text, action)
		return
	}
	p.handlePartial(res.Text, action)
}

func (p *Pipeline) handleFinal(text string, action voicecommand.Action) {
	switch action {
	case voicecommand.ActionWake:
		if p.ctrl.Wake() {
			slog.Info("wake command recognized", "text", text)
		}
		p.emitter.Reset()
	case voicecommand.ActionSleep:
		if p.ctrl.Sleep() {
			slog.Info("sleep command recognized", "text", text)
		}
		p.emitter.Reset()
	default:
		if !p.ctrl.Awake() {
			p.logUnmatched(text)
			return
		}
		p.emitter.Feed(text, true)
		if p.onFinal != nil {
			p.onFinal(text)
		}
	}
}

// handlePartial checks commands on partials too: short command words
// sometimes arrive only as partials and never finalize cleanly.
func (p *Pipeline) handlePartial(text string, action voicecommand.Action) {
	switch action {
	case voicecommand.ActionWake:
		if p.ctrl.Wake() {
			slog.Info("wake command recognized (partial)", "text", text)
		}
		p.emitter.Reset()
	case voicecommand.ActionSleep:
		if p.ctrl.Sleep() {
			slog.Info("sleep command recognized (partial)", "text", text)
		}
		p.emitter.Reset()
	default:
		if !p.ctrl.Awake() {
			p.logUnmatched(text)
			return
		}
		p.emitter.Feed(text, false)
	}
}

// logUnmatched helps diagnose wake words the recognizer keeps missing.
func (p *Pipeline) logUnmatched(text string) {
	if len(text) < 30 {
		slog.Debug("asleep: transcript did not match wake command", "text", text)
	}
}

type nopPreview struct{}

func (nopPreview) SetTranscription(string) {}

type nopState struct{}

func (nopState) SetState(State) {}
