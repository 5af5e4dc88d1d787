package apperror

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfWrappedError(t *testing.T) {
	base := Validation(CodeFileTooLarge, "file too large")
	wrapped := fmt.Errorf("process upload: %w", base)

	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.True(t, HasCode(wrapped, CodeFileTooLarge))
	assert.False(t, HasCode(wrapped, CodeNoFileProvided))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestQuotaExceededCarriesRetryAfter(t *testing.T) {
	err := QuotaExceeded("daily quota reached", `{"error":{}}`, nil)
	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindQuotaExceeded, appErr.Kind)
	assert.Equal(t, "24 hours", appErr.RetryAfter)
	assert.Equal(t, 429, appErr.Status)
}

func TestUnwrapExposesCause(t *testing.T) {
	err := IO(CodeReadFailed, io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "unexpected EOF")

	up := UpstreamCallFailed(500, "boom", nil)
	assert.Contains(t, up.Error(), "status 500")
	assert.Nil(t, up.Unwrap())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "no_extractable_text", KindNoExtractableText.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
