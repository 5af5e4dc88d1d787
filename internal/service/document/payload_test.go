package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaverse/internal/apperror"
)

func TestPrepareBinaryPayload(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	path := filepath.Join(t.TempDir(), "scan.jpg")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	payload, err := PrepareBinaryPayload(path, "image/jpg")
	require.NoError(t, err)
	assert.Equal(t, data, payload.Data)
	assert.Equal(t, MediaTypeJPEG, payload.MediaType)
}

func TestPrepareBinaryPayloadMissingFile(t *testing.T) {
	_, err := PrepareBinaryPayload(filepath.Join(t.TempDir(), "missing.png"), MediaTypePNG)
	require.Error(t, err)
	assert.Equal(t, apperror.KindIO, apperror.KindOf(err))
	assert.True(t, apperror.HasCode(err, apperror.CodeReadFailed))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
