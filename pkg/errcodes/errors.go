package errcodes

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	CodeNotFound          = "not_found"
	CodeValidation        = "validation_error"
	CodePersistenceFailed = "persistence_failed"
	CodeTransportFailed   = "transport_failed"
	CodeEmptyName         = "empty_name"
)

// Error is a typed error whose Code lets callers tell failure kinds apart
// without string matching on the message.
type Error struct {
	Message string
	Code    string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.Message == err.Message &&
		te.Code == err.Code
}

// HasCode reports whether err (or anything it wraps) is an *Error with the
// given code.
func HasCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

// NotFound returns an error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		resource + " not found.",
		CodeNotFound,
	}
}

func ValidationError(msg string) error {
	return &Error{
		msg,
		CodeValidation,
	}
}

// PersistenceFailed marks a storage write or read that failed for a reason
// other than the entity being absent.
func PersistenceFailed(resource string, cause error) error {
	return errors.Wrap(&Error{
		fmt.Sprintf("%s could not be persisted", resource),
		CodePersistenceFailed,
	}, cause.Error())
}

// TransportFailed is returned by provider adapters when the remote source
// answered with a non-success status or could not be reached.
func TransportFailed(source string, detail string) error {
	return &Error{
		fmt.Sprintf("%s request failed: %s", source, detail),
		CodeTransportFailed,
	}
}

func EmptyName(resource string) error {
	return &Error{
		resource + " name cannot be empty.",
		CodeEmptyName,
	}
}
