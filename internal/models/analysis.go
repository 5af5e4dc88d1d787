package models

// AnalysisMetadata describes the analysed input. DocumentLength is set in
// text mode, MimeType in vision mode.
type AnalysisMetadata struct {
	FileType       string `json:"fileType"`
	DocumentLength int    `json:"documentLength,omitempty"`
	MimeType       string `json:"mimeType,omitempty"`
	Timestamp      string `json:"timestamp"`
}

type AnalysisResult struct {
	Success  bool             `json:"success"`
	Analysis string           `json:"analysis"`
	Metadata AnalysisMetadata `json:"metadata"`
}

// BinaryPayload is an image inlined into a vision request. Data holds raw
// bytes; the upstream codec base64-encodes it on the wire.
type BinaryPayload struct {
	MediaType string
	Data      []byte
}
