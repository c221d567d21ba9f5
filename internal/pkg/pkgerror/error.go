package pkgerror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by stores when a dataset, insight, user or token
// does not exist.
var ErrNotFound = errors.New("resource not found")

// Type is the broad origin of an error.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code selects the HTTP status of an error.
type Code int

const (
	CodeInternal      Code = iota
	CodeInvalidFormat      // malformed request or unreadable upload
	CodeInvalidInput       // well-formed upload the analyzer cannot use
	CodeNotFound
	CodeConflict
	CodeUnauthorized
	CodeTooLarge
	CodeUnavailable // the insight provider is missing or failing
)

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:      {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat: {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:  {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:      {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:      {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeUnauthorized:  {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeTooLarge:      {"ERROR_CODE_TOO_LARGE", http.StatusRequestEntityTooLarge},
	CodeUnavailable:   {"ERROR_CODE_UNAVAILABLE", http.StatusServiceUnavailable},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return codes[CodeInternal].name
}

// Error carries a client-facing message, a Code and optional detail fields
// alongside the underlying cause. Only Msg and Fields reach the client.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	case e.errType == TypeValidation:
		return "Validation violation"
	case e.errType == TypeBusiness:
		return "Logical business not meet with requirement"
	default:
		return "Internal error"
	}
}

// String is the verbose form used in logs.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string                { return e.msg }
func (e *Error) Type() Type                 { return e.errType }
func (e *Error) Code() Code                 { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error              { return e.err }

// Field returns one detail field, such as "kind" on upload errors.
func (e *Error) Field(key string) string {
	return e.fields[key]
}

func (e *Error) StatusCode() int {
	if info, ok := codes[e.code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func newError(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer hides err behind a generic 500 message.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal)
}

func NewBusiness(msg string, code Code) error {
	return newError(nil, msg, TypeBusiness, code)
}

func NewInvalidInput(err error) error {
	return newError(err, "validation error", TypeValidation, CodeInvalidInput)
}

// NewInvalidFormat reports a request body that could not be decoded.
func NewInvalidFormat() error {
	return newError(nil, "invalid request body", TypeValidation, CodeInvalidFormat)
}

// NewUnavailable reports a dependency that is not configured or failing.
func NewUnavailable(msg string, err error) error {
	return newError(err, msg, TypeServer, CodeUnavailable)
}

// WithFields returns a copy of err with fields merged into its details.
// Errors that are not *Error are returned unchanged.
func WithFields(err error, fields map[string]string) error {
	var perr *Error
	if !errors.As(err, &perr) {
		return err
	}

	merged := make(map[string]string, len(perr.fields)+len(fields))
	for k, v := range perr.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	out := *perr
	out.fields = merged
	return &out
}
