package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/common"
)

// ContentError marks a document the extraction model cannot process.
// Retrying is pointless: the document itself is broken or unsupported.
type ContentError struct {
	Err    error
	Reason string
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("unprocessable document (%s): %v", e.Reason, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// IsContentError reports whether err marks an unprocessable document.
func IsContentError(err error) bool {
	var ce *ContentError
	return errors.As(err, &ce)
}

// classifyAPIError maps a raw model API error onto the retry taxonomy:
// broken documents abort immediately, rate limits retry with escalated
// delay, and anything else is retried as transient.
func classifyAPIError(err error) error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "no pages"):
		return &ContentError{Err: err, Reason: "document has no readable pages"}
	case strings.Contains(msg, "400") && (strings.Contains(msg, "bad request") || strings.Contains(msg, "document")):
		return &ContentError{Err: err, Reason: "document rejected by the model"}
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota"):
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	default:
		return &common.RetryableError{Err: err, Retryable: true}
	}
}
