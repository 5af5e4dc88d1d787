// Package apperror defines the closed set of failure kinds the service reports
// to its HTTP boundary.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The set is closed; api.writeError switches over it.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindQuotaExceeded
	KindUpstreamCallFailed
	KindExtractionFailed
	KindNoExtractableText
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindUpstreamCallFailed:
		return "upstream_call_failed"
	case KindExtractionFailed:
		return "extraction_failed"
	case KindNoExtractableText:
		return "no_extractable_text"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Codes refine a Kind for callers and logs.
const (
	CodeNoFileProvided       = "NoFileProvided"
	CodeUnsupportedMediaType = "UnsupportedMediaType"
	CodeFileTooLarge         = "FileTooLarge"
	CodeMissingField         = "MissingField"
	CodeInvalidPurpose       = "InvalidPurpose"
	CodeQuotaExceeded        = "QuotaExceeded"
	CodeUpstreamCallFailed   = "UpstreamCallFailed"
	CodeExtractionFailed     = "ExtractionFailed"
	CodeNoExtractableText    = "NoExtractableText"
	CodeReadFailed           = "ReadFailed"
	CodeStageFailed          = "StageFailed"
)

// QuotaRetryAfter is how long the upstream daily cap takes to reset.
const QuotaRetryAfter = "24 hours"

// Error is the single error type produced by the core services.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Status and Body are set for upstream failures.
	Status     int
	Body       string
	RetryAfter string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return 0
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func QuotaExceeded(message, body string, cause error) *Error {
	return &Error{
		Kind:       KindQuotaExceeded,
		Code:       CodeQuotaExceeded,
		Message:    message,
		Status:     429,
		Body:       body,
		RetryAfter: QuotaRetryAfter,
		Err:        cause,
	}
}

func UpstreamCallFailed(status int, body string, cause error) *Error {
	return &Error{
		Kind:    KindUpstreamCallFailed,
		Code:    CodeUpstreamCallFailed,
		Message: "upstream call failed",
		Status:  status,
		Body:    body,
		Err:     cause,
	}
}

func ExtractionFailed(cause error) *Error {
	return &Error{
		Kind:    KindExtractionFailed,
		Code:    CodeExtractionFailed,
		Message: "could not read text from the document",
		Err:     cause,
	}
}

func NoExtractableText() *Error {
	return &Error{
		Kind:    KindNoExtractableText,
		Code:    CodeNoExtractableText,
		Message: "Could not extract text from PDF. Please ensure the PDF contains readable text.",
	}
}

func IO(code string, cause error) *Error {
	return &Error{Kind: KindIO, Code: code, Message: "file operation failed", Err: cause}
}
