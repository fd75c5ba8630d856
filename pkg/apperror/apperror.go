package apperror

import (
	"fmt"
	"strings"
)

// Kind classifies application failures into the closed set the HTTP boundary
// knows how to translate. Anything that is not an *Error is treated as
// KindUnclassified.
type Kind int

const (
	KindUnclassified Kind = iota
	KindValidationFailed
	KindMissingField
	KindInvalidArgument
	KindUnauthorized
	KindNotFound
	KindDuplicateEmail
	KindOperationFailed
	KindPersistenceFailure
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindValidationFailed:
		return "validation_failed"
	case KindMissingField:
		return "missing_field"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindOperationFailed:
		return "operation_failed"
	case KindPersistenceFailure:
		return "persistence_failure"
	case KindNotImplemented:
		return "not_implemented"
	default:
		return "unclassified"
	}
}

// FieldError is a single structural validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"error"`
}

// Error is the typed failure propagated from the domain and application
// layers up to the HTTP translator.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindValidationFailed && len(e.Fields) > 0 {
		msgs := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			msgs = append(msgs, f.Field+": "+f.Message)
		}
		return "validation failed: " + strings.Join(msgs, "; ")
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two *Error values by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func Validation(fields []FieldError) *Error {
	return &Error{Kind: KindValidationFailed, Fields: fields}
}

func MissingField(field string) *Error {
	return &Error{Kind: KindMissingField, Message: field + " is required"}
}

func InvalidArgument(field, message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message, Fields: []FieldError{{Field: field, Message: message}}}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func DuplicateEmail(email string) *Error {
	return &Error{Kind: KindDuplicateEmail, Message: "a user with email " + email + " already exists"}
}

func OperationFailed(message string, err error) *Error {
	return &Error{Kind: KindOperationFailed, Message: message, Err: err}
}

func Persistence(message string, err error) *Error {
	return &Error{Kind: KindPersistenceFailure, Message: message, Err: err}
}
