package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestBrainsError_Error(t *testing.T) {
	err := New(CodeConfigInvalid, "duplicate profile id")
	expected := "[CONFIG_INVALID] duplicate profile id"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestBrainsError_Wrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := Wrap(CodeStoreUnavailable, "redis ping failed", inner)

	if err.Error() != "[STORE_UNAVAILABLE] redis ping failed: connection refused" {
		t.Errorf("unexpected error string: %s", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find inner error")
	}
}

func TestBrainsError_Newf(t *testing.T) {
	err := Newf(CodeProfileNotFound, "profile %q not found", "algo_scientist")
	if err.Message != `profile "algo_scientist" not found` {
		t.Errorf("unexpected message: %s", err.Message)
	}
}

func TestBrainsError_WithSuggestion(t *testing.T) {
	err := New(CodeAPIKeyMissing, "OPENAI_API_KEY not set").
		WithSuggestion("Set OPENAI_API_KEY or add provider.api_key to brains.yaml")

	if Suggestion(err) != "Set OPENAI_API_KEY or add provider.api_key to brains.yaml" {
		t.Errorf("unexpected suggestion: %s", err.Suggestion)
	}
}

func TestBrainsError_ErrorsAs(t *testing.T) {
	err := fmt.Errorf("search: %w", Wrap(CodeMemoryAccess, "store search failed", fmt.Errorf("boom")))

	var be *BrainsError
	if !errors.As(err, &be) {
		t.Fatal("errors.As should work through fmt wrapping")
	}
	if be.Code != CodeMemoryAccess {
		t.Errorf("expected code %q, got %q", CodeMemoryAccess, be.Code)
	}
}

func TestAsCodeAndHasCode(t *testing.T) {
	err := New(CodeInvocationFailed, "empty completion")
	if AsCode(err) != CodeInvocationFailed {
		t.Errorf("expected code %q, got %q", CodeInvocationFailed, AsCode(err))
	}
	if !HasCode(err, CodeInvocationFailed) {
		t.Error("HasCode should match")
	}
	if HasCode(nil, CodeInvocationFailed) {
		t.Error("HasCode(nil) should be false")
	}

	plain := fmt.Errorf("plain error")
	if AsCode(plain) != "" {
		t.Errorf("expected empty code for plain error, got %q", AsCode(plain))
	}
	if Suggestion(plain) != "" {
		t.Error("plain error should have no suggestion")
	}
}

func TestBrainsError_IsByCode(t *testing.T) {
	a := New(CodeTimeout, "run timed out")
	b := New(CodeTimeout, "different message")
	if !errors.Is(a, b) {
		t.Error("errors with the same code should match")
	}
	if errors.Is(a, New(CodeRateLimited, "x")) {
		t.Error("errors with different codes should not match")
	}
}
