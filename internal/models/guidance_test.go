package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaverse/internal/apperror"
)

func TestGuidanceRequestValidate(t *testing.T) {
	req := GuidanceRequest{Origin: " in ", Destination: "ca", Purpose: "WORK"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "in", req.Origin)
	// echoed back unchanged
	assert.Equal(t, "WORK", req.Purpose)
	assert.Equal(t, PurposeWork, req.NormalizedPurpose())
}

func TestGuidanceRequestValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		req  GuidanceRequest
		code string
	}{
		{"missing origin", GuidanceRequest{Destination: "ca", Purpose: "work"}, apperror.CodeMissingField},
		{"blank destination", GuidanceRequest{Origin: "in", Destination: "  ", Purpose: "work"}, apperror.CodeMissingField},
		{"missing purpose", GuidanceRequest{Origin: "in", Destination: "ca"}, apperror.CodeMissingField},
		{"invalid purpose", GuidanceRequest{Origin: "in", Destination: "ca", Purpose: "invalid-value"}, apperror.CodeInvalidPurpose},
		{"blank purpose", GuidanceRequest{Origin: "in", Destination: "ca", Purpose: "   "}, apperror.CodeMissingField},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.True(t, apperror.HasCode(err, tc.code))
		})
	}
}
