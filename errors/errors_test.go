package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	err := New(PhaseLink, KindMissingFunction).
		Plugin("audio").
		Detail("guest imports %q", "audio_warp").
		Build()

	msg := err.Error()
	if !strings.Contains(msg, "[link]") {
		t.Errorf("missing phase in %q", msg)
	}
	if !strings.Contains(msg, "missing_function") {
		t.Errorf("missing kind in %q", msg)
	}
	if !strings.Contains(msg, "audio") {
		t.Errorf("missing plugin in %q", msg)
	}
}

func TestError_Is(t *testing.T) {
	err := InvalidHandle(PhaseRuntime, "texture", 42)

	if !stderrors.Is(err, &Error{Phase: PhaseRuntime, Kind: KindInvalidHandle}) {
		t.Error("expected Is to match on phase and kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseLoad, Kind: KindInvalidHandle}) {
		t.Error("expected Is to reject different phase")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := AsyncFailed(PhaseNet, "http request", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable via Unwrap")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("cause missing from %q", err.Error())
	}
}

func TestError_HandleField(t *testing.T) {
	err := InvalidHandle(PhaseRuntime, "buffer", 7)
	if !strings.Contains(err.Error(), "handle 7") {
		t.Errorf("handle missing from %q", err.Error())
	}
}
