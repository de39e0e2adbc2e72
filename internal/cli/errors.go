// Package cli provides error handling utilities for CLI output.
package cli

import (
	"fmt"
	"os"

	notlyerrors "github.com/noureldenadel/notly/internal/errors"
)

// PrintError prints an error to stderr with appropriate formatting.
// If the error is a NotlyError, it uses the user-friendly format.
// Otherwise, it prints a simple error message.
func PrintError(err error) {
	if notlyErr := notlyerrors.AsNotlyError(err); notlyErr != nil {
		fmt.Fprintln(os.Stderr, notlyErr.UserMessage())
		if verbose {
			// In verbose mode, also print the error code and cause
			fmt.Fprintf(os.Stderr, "\nCode: %s\n", notlyErr.Code)
			if notlyErr.Cause != nil {
				fmt.Fprintf(os.Stderr, "Cause: %v\n", notlyErr.Cause)
			}
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
