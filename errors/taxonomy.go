package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is a non-2xx response from a polled endpoint.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	text := http.StatusText(e.Status)
	if text == "" {
		text = "unexpected status"
	}
	if e.URL == "" {
		return fmt.Sprintf("HTTP %d %s", e.Status, text)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.Status, text, e.URL)
}

// ParseError is a payload that could not be decoded as JSON.
type ParseError struct {
	Payload []byte
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrParsingFailed, e.Err)
}

// Unwrap returns the decoder error.
func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParsingFailed) match any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParsingFailed }

// ConnectionError is a transport that failed to open or dropped abnormally.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("connection to %s failed", e.URL)
	}
	return fmt.Sprintf("connection to %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the transport error.
func (e *ConnectionError) Unwrap() error { return e.Err }

// ExpressionError is a predicate that could not be evaluated.
type ExpressionError struct {
	Expr string
	Err  error
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("expression %q: %v", e.Expr, e.Err)
}

// Unwrap returns the evaluation error.
func (e *ExpressionError) Unwrap() error { return e.Err }

// Kind returns a short, stable label for err, suitable as a metric label.
func Kind(err error) string {
	if err == nil {
		return "none"
	}
	var he *HTTPError
	var pe *ParseError
	var ne *ConnectionError
	var xe *ExpressionError
	switch {
	case errors.As(err, &he):
		return "http"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &ne):
		return "connection"
	case errors.As(err, &xe):
		return "expression"
	}
	return Classify(err).String()
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// New returns an error that formats as the given text.
func New(text string) error { return errors.New(text) }
