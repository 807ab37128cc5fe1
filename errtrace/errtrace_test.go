package errtrace_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fennelos/storage/errtrace"
)

var errSentinel = errors.New("sentinel")
var errMark = errors.New("mark")

func TestFrom(t *testing.T) {
	err := errtrace.From(errSentinel)

	if !errors.Is(err, errSentinel) {
		t.Error("errors.Is() lost the cause")
	}
	if !strings.Contains(err.Error(), "errtrace_test.go:") {
		t.Errorf("Error() = %q, want a call site prefix", err.Error())
	}
	if !strings.Contains(err.Error(), "sentinel") {
		t.Errorf("Error() = %q, want the cause message", err.Error())
	}
}

func TestFrom_passthrough(t *testing.T) {
	if errtrace.From(nil) != nil {
		t.Error("From(nil) != nil")
	}
	if errtrace.From(io.EOF) != io.EOF {
		t.Error("From(io.EOF) is not io.EOF by identity")
	}
	if errtrace.From(io.ErrUnexpectedEOF) != io.ErrUnexpectedEOF {
		t.Error("From(io.ErrUnexpectedEOF) is not identical")
	}
}

func TestMark(t *testing.T) {
	err := errtrace.Mark(errSentinel, errMark)

	if !errors.Is(err, errSentinel) {
		t.Error("errors.Is() lost the cause")
	}
	if !errors.Is(err, errMark) {
		t.Error("errors.Is() lost the mark")
	}
	if !strings.Contains(err.Error(), "mark") || !strings.Contains(err.Error(), "sentinel") {
		t.Errorf("Error() = %q, want both mark and cause", err.Error())
	}
}

func TestMark_passthrough(t *testing.T) {
	if errtrace.Mark(nil, errMark) != nil {
		t.Error("Mark(nil) != nil")
	}
	if errtrace.Mark(io.EOF, errMark) != io.EOF {
		t.Error("Mark(io.EOF) is not io.EOF by identity")
	}
}

func TestMark_stacked(t *testing.T) {
	inner := errtrace.Mark(errSentinel, errMark)
	outer := errtrace.Mark(inner, errors.New("outer mark"))

	if !errors.Is(outer, errSentinel) || !errors.Is(outer, errMark) {
		t.Error("stacked marks lost an inner error")
	}
}

func TestNestedFrom(t *testing.T) {
	err := errtrace.From(errtrace.From(errSentinel))

	if !errors.Is(err, errSentinel) {
		t.Error("errors.Is() lost the cause through two frames")
	}
	if strings.Count(err.Error(), "errtrace_test.go:") != 2 {
		t.Errorf("Error() = %q, want two call sites", err.Error())
	}
}
