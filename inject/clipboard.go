package inject

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Clipboard copies chunks to the system clipboard instead of typing them.
type Clipboard struct{}

// NewClipboard creates a clipboard sink.
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// Type copies one chunk to the clipboard, replacing its contents.
func (c *Clipboard) Type(chunk string) error {
	if chunk == "" {
		return nil
	}
	if err := clipboard.WriteAll(chunk); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
