package gemini

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"visaverse/internal/apperror"
)

const quotaMessage = "Daily AI quota reached! The free tier allows a limited number of requests per day. Please try again tomorrow."

// dailyQuotaMarkers identify a per-day cap in a 429 body. Quota ids look
// like "GenerateRequestsPerDayPerProjectPerModel-FreeTier".
var dailyQuotaMarkers = []string{"perday", "per day", "per_day", "daily"}

// classify maps SDK and transport failures onto apperror kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fromAPIError(apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return fromAPIError(*apiErrPtr, err)
	}
	return apperror.UpstreamCallFailed(0, "", err)
}

func fromAPIError(apiErr genai.APIError, cause error) error {
	body := apiErrorBody(apiErr)
	if apiErr.Code == http.StatusTooManyRequests && isDailyQuota(apiErr) {
		return apperror.QuotaExceeded(quotaMessage, body, cause)
	}
	return apperror.UpstreamCallFailed(apiErr.Code, body, cause)
}

func isDailyQuota(apiErr genai.APIError) bool {
	if containsDailyMarker(apiErr.Message) {
		return true
	}
	for _, detail := range apiErr.Details {
		raw, err := json.Marshal(detail)
		if err != nil {
			continue
		}
		if containsDailyMarker(string(raw)) {
			return true
		}
	}
	return false
}

func containsDailyMarker(s string) bool {
	s = strings.ToLower(s)
	for _, marker := range dailyQuotaMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func apiErrorBody(apiErr genai.APIError) string {
	raw, err := json.Marshal(apiErr)
	if err != nil {
		return apiErr.Message
	}
	return string(raw)
}
