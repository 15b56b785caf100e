package util

import (
	"errors"
	"fmt"
)

// ErrorKind is the discriminant the engine reports to its callers.
type ErrorKind string

const (
	KindInvalidRequest     ErrorKind = "invalid_request"
	KindPreconditionFailed ErrorKind = "precondition_failed"
	KindNotFound           ErrorKind = "not_found"
	KindConflict           ErrorKind = "conflict"
	KindGraderUnavailable  ErrorKind = "grader_unavailable"
	KindInternal           ErrorKind = "internal"
)

type EngineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error { return e.Err }

func InvalidRequest(format string, args ...interface{}) error {
	return &EngineError{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func PreconditionFailed(format string, args ...interface{}) error {
	return &EngineError{Kind: KindPreconditionFailed, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(format string, args ...interface{}) error {
	return &EngineError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &EngineError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func GraderUnavailable(msg string, err error) error {
	return &EngineError{Kind: KindGraderUnavailable, Message: msg, Err: err}
}

func Internal(msg string, err error) error {
	return &EngineError{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf classifies any error; non-engine errors count as internal.
func KindOf(err error) ErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
