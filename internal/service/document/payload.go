package document

import (
	"fmt"
	"os"

	"visaverse/internal/apperror"
	"visaverse/internal/models"
)

// PrepareBinaryPayload reads the whole file for inlining into a vision request.
func PrepareBinaryPayload(path, mediaType string) (models.BinaryPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.BinaryPayload{}, apperror.IO(apperror.CodeReadFailed, fmt.Errorf("read %s: %w", path, err))
	}
	return models.BinaryPayload{MediaType: NormalizeMediaType(mediaType), Data: data}, nil
}
