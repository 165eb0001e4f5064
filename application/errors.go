package application

import (
	"errors"
	"fmt"
)

var (
	// ErrParseFailure is wrapped by every share-text parse failure
	ErrParseFailure = errors.New("not a wordle share")
	// ErrExtractionFailure is wrapped by every image extraction failure
	ErrExtractionFailure = errors.New("no wordle grid recognized in image")
)

// FailureReason classifies why a message was not accepted as a puzzle share
type FailureReason string

const (
	ReasonNoHeader      FailureReason = "no_header"
	ReasonNoGrid        FailureReason = "no_grid"
	ReasonRowCount      FailureReason = "row_count"
	ReasonRowShape      FailureReason = "row_shape"
	ReasonInvalidSymbol FailureReason = "invalid_symbol"
	ReasonInvalidResult FailureReason = "invalid_result"
	ReasonEmptyImage    FailureReason = "empty_image"
	ReasonDownload      FailureReason = "download_failed"
	ReasonOracle        FailureReason = "oracle_error"
	ReasonImplausible   FailureReason = "implausible_grid"
)

// ParseFailure describes a rejected share text
type ParseFailure struct {
	Reason FailureReason
	Line   int // 1-based line of the offending row, 0 when not row-specific
	Detail string
}

// Error implements the error interface
func (e *ParseFailure) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: %s on line %d: %s", ErrParseFailure, e.Reason, e.Line, e.Detail)
	}
	return fmt.Sprintf("%v: %s: %s", ErrParseFailure, e.Reason, e.Detail)
}

// Unwrap returns ErrParseFailure
func (e *ParseFailure) Unwrap() error {
	return ErrParseFailure
}

// ExtractionFailure describes an image the recognizer could not turn into a grid
type ExtractionFailure struct {
	Reason FailureReason
	Err    error
}

// Error implements the error interface
func (e *ExtractionFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrExtractionFailure, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrExtractionFailure, e.Reason)
}

// Is matches ErrExtractionFailure
func (e *ExtractionFailure) Is(target error) bool {
	return target == ErrExtractionFailure
}

// Unwrap returns the underlying oracle or parse error
func (e *ExtractionFailure) Unwrap() error {
	return e.Err
}
