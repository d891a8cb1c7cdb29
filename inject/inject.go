// Package inject delivers finished text to the focused window, via
// xdotool on X11 or ydotool on Wayland, or to the system clipboard.
package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrNoTool is returned when no injection tool is available.
var ErrNoTool = errors.New("no injection tool available (install xdotool or ydotool)")

// typeTimeout bounds one injection subprocess call.
const typeTimeout = 5 * time.Second

// Method identifies the tool used to type into the focused window.
type Method string

const (
	// MethodXdotool types through xdotool (X11).
	MethodXdotool Method = "xdotool"
	// MethodYdotool types through ydotool (Wayland).
	MethodYdotool Method = "ydotool"
	// MethodNone means no tool was found.
	MethodNone Method = ""
)

// isWayland reports whether the session runs under Wayland.
func isWayland() bool {
	return os.Getenv("WAYLAND_DISPLAY") != "" || os.Getenv("XDG_SESSION_TYPE") == "wayland"
}

// DetectMethod picks the injection tool for the current session:
// ydotool on Wayland, xdotool on X11, none (with a warning) otherwise.
func DetectMethod() Method {
	if isWayland() {
		if _, err := exec.LookPath("ydotool"); err == nil {
			return MethodYdotool
		}
		slog.Warn("wayland session but ydotool not found; type-into-focus will not work")
		return MethodNone
	}
	if _, err := exec.LookPath("xdotool"); err == nil {
		return MethodXdotool
	}
	slog.Warn("x11 session but xdotool not found; type-into-focus will not work")
	return MethodNone
}

// Typer types chunks at the focused window through a subprocess tool.
type Typer struct {
	method Method
}

// NewTyper creates a Typer with an auto-detected method.
func NewTyper() *Typer {
	return &Typer{method: DetectMethod()}
}

// NewTyperWithMethod creates a Typer using a fixed method.
func NewTyperWithMethod(m Method) *Typer {
	return &Typer{method: m}
}

// Method returns the selected injection method.
func (t *Typer) Method() Method {
	return t.method
}

// Type sends one chunk of text to the focused window.
func (t *Typer) Type(chunk string) error {
	if chunk == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), typeTimeout)
	defer cancel()

	switch t.method {
	case MethodXdotool:
		cmd := exec.CommandContext(ctx, "xdotool", "type", "--clearmodifiers", "--", chunk)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("xdotool type: %w: %s", err, out)
		}
		return nil

	case MethodYdotool:
		cmd := exec.CommandContext(ctx, "ydotool", "type", "--file", "-")
		cmd.Stdin = strings.NewReader(chunk)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("ydotool type: %w: %s", err, out)
		}
		return nil

	default:
		return ErrNoTool
	}
}
