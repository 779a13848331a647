package arango

import (
	"errors"
	"fmt"
	"net/http"
)

// State errors signal misuse of the deferred-execution abstractions. They are
// raised client-side before any network traffic happens.
var (
	ErrBatchCommitted       = errors.New("batch already committed")
	ErrTransactionCommitted = errors.New("transaction already committed")
	ErrResultPending        = errors.New("result not available yet")
	ErrNoTransactionCommand = errors.New("operation not allowed in transaction")
	ErrBadBatchResponse     = errors.New("malformed batch response")
	ErrNoMoreDocuments      = errors.New("no more documents")
	ErrDocumentParse        = errors.New("unable to parse document")
)

// ServerError is returned whenever the server answers an API call with a
// failure, at either the HTTP or the application level. It carries the full
// context of the failed exchange, including the ArangoDB error number when
// the body embedded one.
type ServerError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Headers    http.Header
	ErrorCode  int
	Message    string
}

func newServerError(op string, resp *Response) *ServerError {
	msg := resp.ErrorMessage()
	if msg == "" {
		msg = resp.StatusText
	}

	return &ServerError{
		Op:         op,
		Method:     resp.Method,
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		ErrorCode:  resp.ErrorCode(),
		Message:    msg,
	}
}

func newServerErrorMessage(op string, resp *Response, msg string) *ServerError {
	err := newServerError(op, resp)
	err.Message = msg

	return err
}

func (e *ServerError) Error() string {
	if e.ErrorCode == 0 {
		return fmt.Sprintf("%s: [HTTP %d] %s", e.Op, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("%s: [HTTP %d][ERR %d] %s", e.Op, e.StatusCode, e.ErrorCode, e.Message)
}

// TransportError wraps a network-level failure from the underlying HTTP
// client. The server was never reached or never answered.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRevisionMismatch reports whether err is a revision-conflict response
// (HTTP 412). Callers use this to drive optimistic-concurrency retries; the
// library itself never retries.
func IsRevisionMismatch(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.StatusCode == http.StatusPreconditionFailed
}

// IsDocumentMissing reports whether err carries the ArangoDB "document not
// found" error number.
func IsDocumentMissing(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.ErrorCode == errDocumentNotFound
}

// IsJobMissing reports whether err was caused by querying an async job the
// server no longer knows about.
func IsJobMissing(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.StatusCode == http.StatusNotFound
}

// IsNoMoreDocuments reports whether err signals cursor exhaustion.
func IsNoMoreDocuments(err error) bool {
	return errors.Is(err, ErrNoMoreDocuments)
}

// ArangoDB error numbers the handlers branch on.
const (
	errDocumentNotFound   = 1202
	errCollectionNotFound = 1203
	errUniqueConstraint   = 1210
	errGraphNotFound      = 1924
)
