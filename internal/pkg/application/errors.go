package application

import (
	"errors"
	"fmt"
)

var ErrNotFound = fmt.Errorf("not found")
var ErrConflict = fmt.Errorf("conflict")
var ErrUnauthorized = fmt.Errorf("unauthorized")
var ErrForbidden = fmt.Errorf("forbidden")
var ErrBadRequest = fmt.Errorf("bad request")

// Error carries a client facing detail message for one of the errors above
type Error struct {
	kind   error
	detail string
}

func NewError(kind error, format string, args ...any) error {
	return &Error{kind: kind, detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.detail
}

func (e *Error) Unwrap() error {
	return e.kind
}

// Detail returns the client facing message of err
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.detail
	}
	return err.Error()
}
