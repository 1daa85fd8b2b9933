// Package relayerr defines the error kinds surfaced to front-end callers.
package relayerr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind classifies a failure for the caller
type Kind string

const (
	// KindBadRequest marks missing or invalid request parameters
	KindBadRequest Kind = "BadRequest"
	// KindUpstream marks a failed broker call
	KindUpstream Kind = "UpstreamError"
	// KindDataSource marks a missing or malformed security master
	KindDataSource Kind = "DataSourceError"
)

// Error carries a kind, a human-readable message and the underlying cause.
// Payload optionally holds the upstream error body to echo back.
type Error struct {
	Kind    Kind
	Message string
	Payload json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BadRequest creates a KindBadRequest error
func BadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

// Upstream creates a KindUpstream error
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// DataSource creates a KindDataSource error
func DataSource(message string, err error) *Error {
	return &Error{Kind: KindDataSource, Message: message, Err: err}
}

// WithPayload attaches an upstream error body
func (e *Error) WithPayload(payload json.RawMessage) *Error {
	e.Payload = payload
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
// Errors outside the taxonomy are reported as upstream failures.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUpstream
}

// HTTPStatus maps a kind to the status code returned to the caller
func HTTPStatus(kind Kind) int {
	if kind == KindBadRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
