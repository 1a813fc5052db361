package common

import (
	"errors"
	"fmt"
)

// Code is the closed set of failure kinds an import operation can report.
// A Code is itself an error so it can be used as an errors.Is target.
type Code uint8

const (
	CodeNone Code = iota
	CodeFileNotFound
	CodeInvalidExportStructure
	CodeCSVParsing
	CodeJSONParsing
	CodeImageLoading
	CodeInvalidGridDimensions
	CodeMemory
	CodeInvalidPath
)

var codeNames = [...]string{
	CodeNone:                   "none",
	CodeFileNotFound:           "file not found",
	CodeInvalidExportStructure: "invalid export structure",
	CodeCSVParsing:             "csv parsing error",
	CodeJSONParsing:            "json parsing error",
	CodeImageLoading:           "image loading error",
	CodeInvalidGridDimensions:  "invalid grid dimensions",
	CodeMemory:                 "memory error",
	CodeInvalidPath:            "invalid path",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", uint8(c))
}

func (c Code) Error() string {
	return c.String()
}

// Error is the single error type returned by fallible operations.
type Error struct {
	Code Code
	Op   string
	Path string
	Err  error
}

// NewError builds an *Error. err may be nil.
func NewError(code Code, op, path string, err error) error {
	return &Error{Code: code, Op: op, Path: path, Err: err}
}

// Errorf builds an *Error whose cause is a formatted message.
func Errorf(code Code, op, path, format string, args ...any) error {
	return &Error{Code: code, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := "ldtk: " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Code.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the Code carried by e.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// CodeOf returns the code of the outermost *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return CodeNone, false
}
