package deckimport

import "fmt"

// ErrorCode identifies a class of import problem.
type ErrorCode string

const (
	CodeInvalidQuantity     ErrorCode = "INVALID_QUANTITY"
	CodeLineTooLong         ErrorCode = "LINE_TOO_LONG"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeAmbiguous           ErrorCode = "AMBIGUOUS"
	CodeCatalogServiceError ErrorCode = "CATALOG_SERVICE_ERROR"
	CodeFetchFailed         ErrorCode = "FETCH_FAILED"
)

// WarningCommanderDemoted marks a commander-tagged line moved to the main deck.
const WarningCommanderDemoted = "COMMANDER_DEMOTED"

// maxEchoedLine bounds how much of an offending line is echoed back.
const maxEchoedLine = 80

// LineError is a per-line problem found while tokenizing.
type LineError struct {
	LineNumber int       `json:"lineNumber"`
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Text       string    `json:"text,omitempty"`
}

func newLineError(number int, code ErrorCode, text, format string, args ...interface{}) *LineError {
	echo := []rune(text)
	if len(echo) > maxEchoedLine {
		echo = append(echo[:maxEchoedLine], '…')
	}
	return &LineError{
		LineNumber: number,
		Code:       code,
		Message:    fmt.Sprintf(format, args...),
		Text:       string(echo),
	}
}

// ResolutionError explains why a card line did not resolve.
type ResolutionError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// SourceError is a failure to obtain the deck list itself. It aborts the import.
type SourceError struct {
	Code   ErrorCode
	Source string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s import from %s: %v", e.Code, e.Source, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: import from %s: %v", e.Code, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err as a FETCH_FAILED source error.
func NewFetchError(source, url string, err error) *SourceError {
	return &SourceError{Code: CodeFetchFailed, Source: source, URL: url, Err: err}
}
