// Package document validates uploaded files, turns them into something the
// analysis client can consume and removes them once the request is done.
package document

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"strings"
	"sync"

	"visaverse/internal/apperror"
	"visaverse/internal/models"
)

const (
	MediaTypePDF  = "application/pdf"
	MediaTypePNG  = "image/png"
	MediaTypeJPEG = "image/jpeg"

	// MaxUploadBytes is the largest accepted document, 10 MiB.
	MaxUploadBytes = 10 << 20

	MsgNoFile          = "No file uploaded"
	MsgUnsupportedType = "Invalid file type. Only PDF, PNG, and JPEG files are allowed"
	MsgFileTooLarge    = "File size exceeds 10MB limit"
)

var allowedMediaTypes = map[string]struct{}{
	MediaTypePDF:  {},
	MediaTypePNG:  {},
	MediaTypeJPEG: {},
}

// Upload is a staged file owned by exactly one request. Release removes it
// from disk once; later calls return the first result.
type Upload struct {
	models.UploadedDocument

	once       sync.Once
	releaseErr error
}

func NewUpload(path, mediaType string, size int64) *Upload {
	return &Upload{UploadedDocument: models.UploadedDocument{
		Path:      path,
		MediaType: mediaType,
		Size:      size,
	}}
}

// Release deletes the backing file. A file that is already gone is not an error.
func (u *Upload) Release() error {
	if u == nil {
		return nil
	}
	u.once.Do(func() {
		if u.Path == "" {
			return
		}
		if err := os.Remove(u.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			u.releaseErr = fmt.Errorf("remove %s: %w", u.Path, err)
		}
	})
	return u.releaseErr
}

// NormalizeMediaType lower-cases t, drops parameters and maps the image/jpg alias.
func NormalizeMediaType(t string) string {
	t = strings.TrimSpace(t)
	if parsed, _, err := mime.ParseMediaType(t); err == nil {
		t = parsed
	}
	t = strings.ToLower(t)
	if t == "image/jpg" || t == "image/pjpeg" {
		return MediaTypeJPEG
	}
	return t
}

// Validate checks presence, media type and size. It has no side effects.
func Validate(u *Upload) error {
	if u == nil {
		return apperror.Validation(apperror.CodeNoFileProvided, MsgNoFile)
	}
	if _, ok := allowedMediaTypes[NormalizeMediaType(u.MediaType)]; !ok {
		return apperror.Validation(apperror.CodeUnsupportedMediaType, MsgUnsupportedType)
	}
	if u.Size > MaxUploadBytes {
		return apperror.Validation(apperror.CodeFileTooLarge, MsgFileTooLarge)
	}
	return nil
}
