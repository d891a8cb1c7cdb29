package app

import (
	"log/slog"

	"github.com/gen2brain/beeep"

	"go.aimuz.me/voxtype/dictation"
	"go.aimuz.me/voxtype/inject"
)

// newTextSink selects how recognized text reaches the user.
func newTextSink(method string) dictation.TextSink {
	if method == "clipboard" {
		slog.Info("typing via clipboard")
		return inject.NewClipboard()
	}
	return inject.NewTyper()
}

// logPreview surfaces every recognition event in the debug log.
type logPreview struct{}

func (logPreview) SetTranscription(text string) {
	slog.Debug("transcription", "text", text)
}

// notifySink announces awake and asleep transitions with a desktop
// notification so mode changes are visible without a window.
type notifySink struct{}

func (notifySink) SetState(state dictation.State) {
	var body string
	switch state {
	case dictation.StateAwake:
		body = "Listening, speech will be typed"
	case dictation.StateAsleep:
		body = "Muted, say a wake phrase to resume"
	}
	slog.Info("dictation state changed", "state", state)
	if err := beeep.Notify("Voxtype", body, ""); err != nil {
		slog.Debug("desktop notification failed", "error", err)
	}
}
