package workflow

import "errors"

var (
	// ErrAnalysisFailed wraps any reader failure. The writer never runs after it.
	ErrAnalysisFailed = errors.New("analysis failed")
	// ErrDraftFailed wraps any writer failure.
	ErrDraftFailed = errors.New("draft failed")
	// ErrMalformedTickets means the writer model answered but no ticket list
	// could be read from it.
	ErrMalformedTickets = errors.New("malformed ticket list")
	ErrEmptySpec        = errors.New("spec text is empty")
)
