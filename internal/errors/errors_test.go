package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotlyError_Error(t *testing.T) {
	t.Parallel()

	t.Run("what only", func(t *testing.T) {
		e := &NotlyError{Code: CodeProjectNotFound, What: "project p1 not found"}
		assert.Equal(t, "project p1 not found", e.Error())
	})

	t.Run("what and why", func(t *testing.T) {
		e := &NotlyError{Code: CodeBundleInvalid, What: "bad bundle", Why: "manifest missing"}
		assert.Equal(t, "bad bundle: manifest missing", e.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := stderrors.New("disk full")
		e := &NotlyError{Code: CodeAssetIOFailure, What: "asset write failed", Cause: cause}
		assert.Equal(t, "asset write failed: disk full", e.Error())
	})
}

func TestNotlyError_Is(t *testing.T) {
	t.Parallel()

	err := ErrProjectNotFound("p1")
	assert.True(t, stderrors.Is(err, &NotlyError{Code: CodeProjectNotFound}))
	assert.False(t, stderrors.Is(err, &NotlyError{Code: CodeBoardNotFound}))
}

func TestNotlyError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("root cause")
	err := ErrAssetIO("images/a.png").WithCause(cause)
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestAsNotlyError(t *testing.T) {
	t.Parallel()

	t.Run("direct", func(t *testing.T) {
		err := ErrBundleVersionUnsupported("2.0", "1.0")
		ne := AsNotlyError(err)
		require.NotNil(t, ne)
		assert.Equal(t, CodeBundleVersionUnsupported, ne.Code)
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("import failed: %w", ErrBundleInvalid("manifest.json", "not found"))
		ne := AsNotlyError(err)
		require.NotNil(t, ne)
		assert.Equal(t, CodeBundleInvalid, ne.Code)
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Nil(t, AsNotlyError(stderrors.New("plain")))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, AsNotlyError(nil))
	})
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	err := ErrProjectNotFound("p1")
	msg := err.UserMessage()
	assert.Contains(t, msg, "Error: project p1 not found")
	assert.Contains(t, msg, "Why:")
	assert.Contains(t, msg, "Fix:")
}

func TestWrap(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("boom")
	err := Wrap(cause, "export failed")
	assert.Equal(t, Code("UNKNOWN"), err.Code)
	assert.Equal(t, "export failed: boom", err.Error())
	assert.Equal(t, cause, stderrors.Unwrap(err))
}
