package document

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"visaverse/internal/apperror"
)

// Stager copies multipart uploads into a private directory.
type Stager struct {
	dir string
}

func NewStager(dir string) (*Stager, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir must be configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Stager{dir: dir}, nil
}

func (s *Stager) Dir() string {
	return s.dir
}

// Stage writes fh to a uniquely named file. The declared Content-Type of the
// part is kept as the media type; the caller owns the returned Upload.
func (s *Stager) Stage(fh *multipart.FileHeader) (*Upload, error) {
	if fh == nil {
		return nil, nil
	}
	src, err := fh.Open()
	if err != nil {
		return nil, apperror.IO(apperror.CodeStageFailed, fmt.Errorf("open part: %w", err))
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(filepath.Base(fh.Filename)))
	dest := filepath.Join(s.dir, uuid.NewString()+ext)
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, apperror.IO(apperror.CodeStageFailed, fmt.Errorf("create %s: %w", dest, err))
	}
	written, copyErr := io.Copy(out, src)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(dest)
		if copyErr == nil {
			copyErr = closeErr
		}
		return nil, apperror.IO(apperror.CodeStageFailed, fmt.Errorf("write %s: %w", dest, copyErr))
	}

	u := NewUpload(dest, fh.Header.Get("Content-Type"), written)
	u.OriginalName = filepath.Base(fh.Filename)
	return u, nil
}
