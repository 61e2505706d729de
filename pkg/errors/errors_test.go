package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := New(ErrCodeNotFound, "repository %s missing", "alphagov/x")
	want := "NOT_FOUND: repository alphagov/x missing"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	e := Wrap(ErrCodeNetwork, cause, "fetching metadata")

	if !stderrors.Is(e, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
	if got := e.Error(); got != "NETWORK_ERROR: fetching metadata: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsMatchesCode(t *testing.T) {
	e := New(ErrCodeRateLimited, "slow down")
	if !Is(e, ErrCodeRateLimited) {
		t.Error("Is() should match the carried code")
	}
	if Is(e, ErrCodeNotFound) {
		t.Error("Is() should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeNotFound) {
		t.Error("Is() should not match a plain error")
	}
}

func TestIsMatchesThroughChain(t *testing.T) {
	e := fmt.Errorf("outer: %w", New(ErrCodeInvalidConfig, "bad batch size"))
	if !Is(e, ErrCodeInvalidConfig) {
		t.Error("Is() should find the code through a wrapped chain")
	}
	if GetCode(e) != ErrCodeInvalidConfig {
		t.Errorf("GetCode() = %q", GetCode(e))
	}
}

func TestGetCodePlainError(t *testing.T) {
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode() = %q, want empty", got)
	}
}
