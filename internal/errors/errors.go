// Package errors provides structured error types for notly.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for notly.
const (
	// Bundle errors
	CodeBundleInvalid            Code = "BUNDLE_INVALID"
	CodeBundleVersionUnsupported Code = "BUNDLE_VERSION_UNSUPPORTED"

	// Entity errors
	CodeProjectNotFound    Code = "PROJECT_NOT_FOUND"
	CodeBoardNotFound      Code = "BOARD_NOT_FOUND"
	CodeBoardParentInvalid Code = "BOARD_PARENT_INVALID"
	CodeCardNotFound       Code = "CARD_NOT_FOUND"

	// Snapshot errors
	CodeSnapshotMalformed Code = "SNAPSHOT_MALFORMED"

	// Storage errors
	CodeAssetIOFailure          Code = "ASSET_IO_FAILURE"
	CodePersistenceWriteFailure Code = "PERSISTENCE_WRITE_FAILURE"

	// Config errors
	CodeConfigInvalid Code = "CONFIG_INVALID"
)

// NotlyError is the structured error type for notly.
type NotlyError struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *NotlyError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *NotlyError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly message for CLI output.
func (e *NotlyError) UserMessage() string {
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	return b.String()
}

// Is reports whether target is a NotlyError with the same code.
func (e *NotlyError) Is(target error) bool {
	t, ok := target.(*NotlyError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *NotlyError) WithCause(err error) *NotlyError {
	return &NotlyError{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Fix:   e.Fix,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrBundleInvalid returns an error for a missing or unparsable archive member.
func ErrBundleInvalid(member, reason string) *NotlyError {
	return &NotlyError{
		Code: CodeBundleInvalid,
		What: fmt.Sprintf("bundle is invalid: %s", member),
		Why:  reason,
		Fix:  "Re-export the project from the source installation and try again",
	}
}

// ErrBundleVersionUnsupported returns an error for an unrecognized manifest version.
func ErrBundleVersionUnsupported(got, want string) *NotlyError {
	return &NotlyError{
		Code: CodeBundleVersionUnsupported,
		What: fmt.Sprintf("bundle format version %q is not supported", got),
		Why:  fmt.Sprintf("This installation reads bundle format %q only", want),
		Fix:  "Export the project again with a matching app version",
	}
}

// ErrProjectNotFound returns an error when a project doesn't exist.
func ErrProjectNotFound(id string) *NotlyError {
	return &NotlyError{
		Code: CodeProjectNotFound,
		What: fmt.Sprintf("project %s not found", id),
		Why:  "No project with this ID exists in the workspace",
		Fix:  "Run 'notly project list' to see available projects",
	}
}

// ErrBoardNotFound returns an error when a board doesn't exist.
func ErrBoardNotFound(id string) *NotlyError {
	return &NotlyError{
		Code: CodeBoardNotFound,
		What: fmt.Sprintf("board %s not found", id),
		Why:  "No board with this ID exists in the workspace",
		Fix:  "Run 'notly board list <project-id>' to see available boards",
	}
}

// ErrBoardParentInvalid returns an error when a board's parent reference
// would break the hierarchy.
func ErrBoardParentInvalid(boardID, parentID, reason string) *NotlyError {
	what := fmt.Sprintf("board %s cannot have parent %s", boardID, parentID)
	if boardID == "" {
		what = fmt.Sprintf("%s is not a valid parent board", parentID)
	}
	return &NotlyError{
		Code: CodeBoardParentInvalid,
		What: what,
		Why:  reason,
		Fix:  "Pick a parent board from the same project, or omit the parent",
	}
}

// ErrCardNotFound returns an error when a card doesn't exist.
func ErrCardNotFound(id string) *NotlyError {
	return &NotlyError{
		Code: CodeCardNotFound,
		What: fmt.Sprintf("card %s not found", id),
		Why:  "No card with this ID exists in the workspace",
		Fix:  "Run 'notly card list' to see available cards",
	}
}

// ErrSnapshotMalformed returns an error when a canvas snapshot is not valid
// JSON. boardID may be empty when the snapshot is not tied to a known board.
func ErrSnapshotMalformed(boardID string) *NotlyError {
	what := "canvas snapshot is malformed"
	if boardID != "" {
		what = fmt.Sprintf("canvas snapshot for board %s is malformed", boardID)
	}
	return &NotlyError{
		Code: CodeSnapshotMalformed,
		What: what,
		Why:  "The stored snapshot is not valid JSON and cannot be loaded",
	}
}

// ErrAssetIO returns an error for a failed asset byte read or write.
func ErrAssetIO(path string) *NotlyError {
	return &NotlyError{
		Code: CodeAssetIOFailure,
		What: fmt.Sprintf("asset I/O failed for %s", path),
		Why:  "The asset bytes could not be read or written",
		Fix:  "Check that the app data directory is writable and the file exists",
	}
}

// ErrPersistenceWrite returns an error when a storage backend rejects a write.
func ErrPersistenceWrite(entity, id string) *NotlyError {
	return &NotlyError{
		Code: CodePersistenceWriteFailure,
		What: fmt.Sprintf("could not save %s %s", entity, id),
		Why:  "The storage backend rejected the write",
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(field, reason string) *NotlyError {
	return &NotlyError{
		Code: CodeConfigInvalid,
		What: fmt.Sprintf("invalid configuration: %s", field),
		Why:  reason,
		Fix:  "Check ~/.notly/config.yaml and fix the invalid field",
	}
}

// AsNotlyError attempts to convert an error to a NotlyError.
// Returns nil if the error is not a NotlyError.
func AsNotlyError(err error) *NotlyError {
	var ne *NotlyError
	if stderrors.As(err, &ne) {
		return ne
	}
	return nil
}

// Wrap wraps a generic error into a NotlyError with unknown code.
func Wrap(err error, what string) *NotlyError {
	return &NotlyError{
		Code:  Code("UNKNOWN"),
		What:  what,
		Cause: err,
	}
}
