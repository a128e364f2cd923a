// Package errors defines the stable error codes of the indexer and the
// mapping from errors to driver exit codes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InputError indicates a bad path, unreadable file, or non-UTF-8 content.
	// Recorded on the file; the run continues.
	InputError ErrorCode = "input_error"
	// ParseError indicates a language parser failed or timed out on a construct
	ParseError ErrorCode = "parse_error"
	// ResolutionAmbiguity indicates a referenced name has multiple candidates.
	// Stored in the unresolved bucket; not an error to callers.
	ResolutionAmbiguity ErrorCode = "resolution_ambiguity"
	// IOError indicates disk full or permission denied on the index directory.
	// Fails the whole run; temp files are never renamed onto targets.
	IOError ErrorCode = "io_error"
	// IndexLocked indicates another writer holds the directory lock
	IndexLocked ErrorCode = "index_locked"
	// InvariantViolation indicates the reverse index disagrees with forward edges
	InvariantViolation ErrorCode = "invariant_violation"
	// SymbolNotFound indicates a query named a symbol that does not exist
	SymbolNotFound ErrorCode = "symbol_not_found"
	// MalformedSymbolID indicates a query symbol ID that does not parse
	MalformedSymbolID ErrorCode = "malformed_symbol_id"
	// UsageError indicates invalid command-line arguments
	UsageError ErrorCode = "usage_error"
)

// IndexerError carries a stable code alongside the message and cause.
type IndexerError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// New creates an IndexerError with the given code and message.
func New(code ErrorCode, message string) *IndexerError {
	return &IndexerError{Code: code, Message: message}
}

// Wrap creates an IndexerError wrapping an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *IndexerError {
	return &IndexerError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *IndexerError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *IndexerError) Unwrap() error {
	return e.cause
}

// CodeOf extracts the ErrorCode from err, or "" if err carries none.
func CodeOf(err error) ErrorCode {
	var ie *IndexerError
	if stderrors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// Driver exit codes.
const (
	ExitOK           = 0
	ExitUsage        = 1
	ExitLocked       = 2
	ExitPartialParse = 3
	ExitIO           = 4
	ExitInvariant    = 5
)

// ExitCode maps an error to the driver exit code. A nil error maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch CodeOf(err) {
	case UsageError:
		return ExitUsage
	case IndexLocked:
		return ExitLocked
	case ParseError:
		return ExitPartialParse
	case IOError, InputError:
		return ExitIO
	case InvariantViolation:
		return ExitInvariant
	default:
		return ExitUsage
	}
}
