package reader

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

var (
	clipboardOnce sync.Once
	clipboardErr  error
)

// CopyText puts s on the system clipboard.
func CopyText(s string) error {
	clipboardOnce.Do(func() {
		clipboardErr = clipboard.Init()
	})
	if clipboardErr != nil {
		return fmt.Errorf("reader: clipboard: %w", clipboardErr)
	}
	clipboard.Write(clipboard.FmtText, []byte(s))
	return nil
}
