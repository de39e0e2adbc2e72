package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	notlyerrors "github.com/noureldenadel/notly/internal/errors"
)

// Guards against unbounded stdin reads.
const maxStdinSize = 10 * 1024 * 1024

// readStdin reads card content piped to the command.
func readStdin() (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinSize))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// truncate shortens s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// formatMillis renders a millisecond epoch timestamp for display.
func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

// wrapProjectNotFound returns a project not found error.
func wrapProjectNotFound(id string) error {
	return notlyerrors.ErrProjectNotFound(id)
}

// wrapCardNotFound returns a card not found error.
func wrapCardNotFound(id string) error {
	return notlyerrors.ErrCardNotFound(id)
}
