package errs

import "fmt"

// Kind categorizes application errors for HTTP status mapping.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the request was malformed (HTTP 400).
	InvalidInput
	// Unreachable indicates an article or upstream API could not be
	// fetched (HTTP 502).
	Unreachable
	// Timeout indicates the operation took too long (HTTP 504).
	Timeout
	// ParsingFailed indicates a fetched page could not be parsed (HTTP 500).
	ParsingFailed
)

// AppError carries a category, user message, and original cause.
//
// Per-link and per-domain failures are never AppErrors: those are
// recorded as status strings inside the result data. AppError is for
// operation-level failures the caller must be told about.
type AppError struct {
	Kind           Kind
	UpstreamStatus int // HTTP status returned by Wikipedia, when relevant
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}
