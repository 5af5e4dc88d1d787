package models

import (
	"strings"

	"visaverse/internal/apperror"
)

// Purpose is the reason for travel.
type Purpose string

const (
	PurposeStudy    Purpose = "study"
	PurposeWork     Purpose = "work"
	PurposeTravel   Purpose = "travel"
	PurposeBusiness Purpose = "business"
	PurposeTourism  Purpose = "tourism"
)

var validPurposes = map[Purpose]struct{}{
	PurposeStudy:    {},
	PurposeWork:     {},
	PurposeTravel:   {},
	PurposeBusiness: {},
	PurposeTourism:  {},
}

// GuidanceRequest asks for visa guidance between two countries.
type GuidanceRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Purpose     string `json:"purpose"`
}

// Validate trims origin and destination in place. Purpose is matched
// case-insensitively but left as the caller sent it.
func (r *GuidanceRequest) Validate() error {
	r.Origin = strings.TrimSpace(r.Origin)
	r.Destination = strings.TrimSpace(r.Destination)
	if r.Origin == "" || r.Destination == "" || strings.TrimSpace(r.Purpose) == "" {
		return apperror.Validation(apperror.CodeMissingField,
			"Missing required fields: origin, destination, and purpose are required")
	}
	if _, ok := validPurposes[r.NormalizedPurpose()]; !ok {
		return apperror.Validation(apperror.CodeInvalidPurpose,
			"Invalid purpose. Must be one of: study, work, travel, business, tourism")
	}
	return nil
}

// NormalizedPurpose is the lower-cased purpose used for matching.
func (r *GuidanceRequest) NormalizedPurpose() Purpose {
	return Purpose(strings.ToLower(strings.TrimSpace(r.Purpose)))
}

// GuidanceMetadata echoes the request next to the generated text.
type GuidanceMetadata struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Purpose     string `json:"purpose"`
	Timestamp   string `json:"timestamp"`
}

type GuidanceResult struct {
	Success  bool             `json:"success"`
	Guidance string           `json:"guidance"`
	Metadata GuidanceMetadata `json:"metadata"`
}
