package aierrors

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorMessageIncludesTag(t *testing.T) {
	err := Userf(CodeInvalidProps, "bad props").WithTag("myComponent")
	if !strings.Contains(err.Error(), "myComponent") {
		t.Errorf("Error() = %q, want it to contain %q", err.Error(), "myComponent")
	}
	if !strings.Contains(err.Error(), "bad props") {
		t.Errorf("Error() = %q, want it to contain %q", err.Error(), "bad props")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Runtimef(CodeProviderAPIError, cause, "provider failed")
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
}

func TestIsCancelled(t *testing.T) {
	cancelled := New(CodeCancelled, KindRuntime, "cancelled", nil)
	if !IsCancelled(cancelled) {
		t.Error("IsCancelled(cancelled) = false, want true")
	}
	if IsCancelled(errors.New("other")) {
		t.Error("IsCancelled(other) = true, want false")
	}
}

func TestWithDataCopiesRatherThanMutates(t *testing.T) {
	base := Userf(CodeInvalidProps, "x")
	withData := base.WithData(map[string]any{"k": "v"})
	if base.Data != nil {
		t.Errorf("base.Data = %v, want nil (WithData must not mutate the receiver)", base.Data)
	}
	if withData.Data["k"] != "v" {
		t.Errorf("withData.Data[\"k\"] = %v, want v", withData.Data["k"])
	}
}
