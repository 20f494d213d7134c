package errdef

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown    Code = "unknown"
	CodeParse      Code = "parse"
	CodeHTTP       Code = "http"
	CodeScript     Code = "script"
	CodeFilesystem Code = "filesystem"
	CodeStorage    Code = "storage"
)

type Error struct {
	Code    Code
	Msg     string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Wrapped.Error()
	}
	return e.Msg + ": " + e.Wrapped.Error()
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Wrapped: err}
}

// CodeOf walks the chain looking for the first coded error.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeUnknown
}

func Message(err error) string {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Msg != "" {
		return coded.Msg
	}
	return err.Error()
}
