package radiobrowser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind is the closed set of failure classes returned by the client.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindDecode
	KindEncode
	KindHTTPStatus
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindEncode:
		return "encode"
	case KindHTTPStatus:
		return "http_status"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Status classifies the HTTP codes that fail a request before decoding.
type Status int

const (
	StatusNone Status = iota
	StatusBadRequest
	StatusForbidden
	StatusNotFound
	StatusMethodNotAllowed
	StatusServerError
)

func (s Status) String() string {
	switch s {
	case StatusBadRequest:
		return "bad request"
	case StatusForbidden:
		return "forbidden"
	case StatusNotFound:
		return "not found"
	case StatusMethodNotAllowed:
		return "method not allowed"
	case StatusServerError:
		return "server error"
	default:
		return "none"
	}
}

// StatusFromCode maps 400, 403, 404, 405 and 5xx. Every other code returns false.
func StatusFromCode(code int) (Status, bool) {
	switch {
	case code == http.StatusBadRequest:
		return StatusBadRequest, true
	case code == http.StatusForbidden:
		return StatusForbidden, true
	case code == http.StatusNotFound:
		return StatusNotFound, true
	case code == http.StatusMethodNotAllowed:
		return StatusMethodNotAllowed, true
	case code >= 500 && code <= 599:
		return StatusServerError, true
	default:
		return StatusNone, false
	}
}

// Error is the only error type returned across the client's public surface.
type Error struct {
	Kind       ErrorKind
	Status     Status
	StatusCode int
	Err        error
}

// Sentinels for errors.Is against HTTP status failures.
var (
	ErrBadRequest       = &Error{Kind: KindHTTPStatus, Status: StatusBadRequest}
	ErrForbidden        = &Error{Kind: KindHTTPStatus, Status: StatusForbidden}
	ErrNotFound         = &Error{Kind: KindHTTPStatus, Status: StatusNotFound}
	ErrMethodNotAllowed = &Error{Kind: KindHTTPStatus, Status: StatusMethodNotAllowed}
	ErrServerError      = &Error{Kind: KindHTTPStatus, Status: StatusServerError}
)

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case KindHTTPStatus:
		if e.StatusCode > 0 {
			return fmt.Sprintf("radiobrowser: %s (status %d)", e.Status, e.StatusCode)
		}
		return fmt.Sprintf("radiobrowser: %s", e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("radiobrowser: %s failure: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("radiobrowser: %s failure", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and, for HTTP failures, on status. Causes are ignored.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return e.Kind != KindHTTPStatus || t.Status == StatusNone || e.Status == t.Status
}

func (e *Error) IsNotFound() bool  { return e != nil && e.Kind == KindHTTPStatus && e.Status == StatusNotFound }
func (e *Error) IsDecode() bool    { return e != nil && e.Kind == KindDecode }
func (e *Error) IsEncode() bool    { return e != nil && e.Kind == KindEncode }
func (e *Error) IsTransport() bool { return e != nil && e.Kind == KindTransport }

// DecodeError marks a failure raised while decoding a response body.
// Custom codecs can wrap their errors in it to get KindDecode from Map.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return "decode: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError is the encoding counterpart of DecodeError.
type EncodeError struct{ Err error }

func (e *EncodeError) Error() string { return "encode: " + e.Err.Error() }
func (e *EncodeError) Unwrap() error { return e.Err }

// Map classifies err into the taxonomy. An existing *Error passes through
// unchanged; then decode failures, encode failures, transport failures and
// finally KindUnknown.
func Map(err error) *Error {
	if err == nil {
		return nil
	}

	var radioErr *Error
	if errors.As(err, &radioErr) {
		return radioErr
	}
	if isDecodeFailure(err) {
		return &Error{Kind: KindDecode, Err: err}
	}
	if isEncodeFailure(err) {
		return &Error{Kind: KindEncode, Err: err}
	}
	if isTransportFailure(err) {
		return &Error{Kind: KindTransport, Err: err}
	}
	return &Error{Kind: KindUnknown, Err: err}
}

func httpStatusError(code int) *Error {
	status, ok := StatusFromCode(code)
	if !ok {
		return nil
	}
	return &Error{Kind: KindHTTPStatus, Status: status, StatusCode: code}
}

func failure(kind ErrorKind, err error) *Error {
	var radioErr *Error
	if errors.As(err, &radioErr) {
		return radioErr
	}
	return &Error{Kind: kind, Err: err}
}

func isDecodeFailure(err error) bool {
	var (
		decodeErr  *DecodeError
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		invalidErr *json.InvalidUnmarshalError
	)
	return errors.As(err, &decodeErr) ||
		errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.As(err, &invalidErr)
}

func isEncodeFailure(err error) bool {
	var (
		encodeErr      *EncodeError
		unsupportedTyp *json.UnsupportedTypeError
		unsupportedVal *json.UnsupportedValueError
		marshalerErr   *json.MarshalerError
	)
	return errors.As(err, &encodeErr) ||
		errors.As(err, &unsupportedTyp) ||
		errors.As(err, &unsupportedVal) ||
		errors.As(err, &marshalerErr)
}

func isTransportFailure(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
