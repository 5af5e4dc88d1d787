package models

// UploadedDocument describes a file staged on local disk for one request.
type UploadedDocument struct {
	Path         string `json:"path"`
	OriginalName string `json:"original_name"`
	MediaType    string `json:"media_type"`
	Size         int64  `json:"size"`
}
