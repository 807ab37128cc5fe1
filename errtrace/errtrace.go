// Package errtrace decorates errors with the file and line of the call site,
// building a lightweight trace while staying transparent to errors.Is and
// errors.As.
package errtrace

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
)

// From records the caller on top of err. A nil err stays nil, and io.EOF and
// io.ErrUnexpectedEOF are passed through untouched so that iterator
// termination keeps working by identity.
// https://github.com/golang/go/issues/39155
func From(err error) error {
	if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}

	return newTrace(err, nil, 2)
}

// Mark records the caller on top of cause and tags the new frame with mark,
// usually a package-level sentinel. Both cause and mark remain reachable via
// errors.Is and errors.As. A nil cause stays nil; a mark may still be attached
// to a trace whose cause is another mark.
func Mark(cause, mark error) error {
	if cause == io.EOF {
		return io.EOF
	}
	if cause == nil {
		return nil
	}

	return newTrace(cause, mark, 2)
}

func newTrace(cause, mark error, skip int) error {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		file = "unknown"
		line = 0
	}

	return &trace{
		cause: cause,
		mark:  mark,
		file:  filepath.Base(file),
		line:  line,
	}
}

type trace struct {
	cause error
	mark  error
	file  string
	line  int
}

func (t *trace) Error() string {
	if t.mark != nil {
		return fmt.Sprintf("%s:%d: %v: %v", t.file, t.line, t.mark, t.cause)
	}
	return fmt.Sprintf("%s:%d: %v", t.file, t.line, t.cause)
}

func (t *trace) Unwrap() error {
	return t.cause
}

func (t *trace) Is(target error) bool {
	return t.mark != nil && errors.Is(t.mark, target)
}

func (t *trace) As(target interface{}) bool {
	return t.mark != nil && errors.As(t.mark, target)
}
