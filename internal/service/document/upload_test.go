package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaverse/internal/apperror"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		upload *Upload
		code   string
	}{
		{"missing", nil, apperror.CodeNoFileProvided},
		{"gif", NewUpload("a.gif", "image/gif", 10), apperror.CodeUnsupportedMediaType},
		{"word", NewUpload("a.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 10), apperror.CodeUnsupportedMediaType},
		{"empty type", NewUpload("a", "", 10), apperror.CodeUnsupportedMediaType},
		{"pdf too large", NewUpload("a.pdf", MediaTypePDF, MaxUploadBytes+1), apperror.CodeFileTooLarge},
		{"png too large", NewUpload("a.png", MediaTypePNG, 50<<20), apperror.CodeFileTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.upload)
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.True(t, apperror.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	for _, mt := range []string{"application/pdf", "image/png", "image/jpeg", "image/jpg", "IMAGE/PNG", "application/pdf; charset=binary"} {
		assert.NoError(t, Validate(NewUpload("f", mt, MaxUploadBytes)), mt)
	}
}

func TestNormalizeMediaType(t *testing.T) {
	assert.Equal(t, MediaTypeJPEG, NormalizeMediaType("image/jpg"))
	assert.Equal(t, MediaTypePDF, NormalizeMediaType(" Application/PDF "))
	assert.Equal(t, MediaTypePNG, NormalizeMediaType("image/png; foo=bar"))
}

func TestReleaseRemovesFileOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	u := NewUpload(path, MediaTypePDF, 8)
	require.NoError(t, u.Release())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// a second file at the same path must survive a second Release
	require.NoError(t, os.WriteFile(path, []byte("new"), 0o600))
	require.NoError(t, u.Release())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestReleaseMissingFileAndNil(t *testing.T) {
	u := NewUpload(filepath.Join(t.TempDir(), "gone.png"), MediaTypePNG, 1)
	assert.NoError(t, u.Release())

	var nilUpload *Upload
	assert.NoError(t, nilUpload.Release())
	assert.NoError(t, NewUpload("", MediaTypePNG, 0).Release())
}
