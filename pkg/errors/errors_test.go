package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeObjectNotFound, "object missing")

	if err.Code != ErrCodeObjectNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeObjectNotFound)
	}
	if err.Category != CategoryNotFound {
		t.Errorf("Category = %q, want %q", err.Category, CategoryNotFound)
	}
	if err.Retryable {
		t.Error("not-found errors must not be retryable")
	}
	if err.Error() != "OBJECT_NOT_FOUND: object missing" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := Wrap(ErrCodeConnectionFailed, "backend unreachable", cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause via errors.Is")
	}
	if !err.Retryable {
		t.Error("connection failures should be retryable by default")
	}
	want := "CONNECTION_FAILED: backend unreachable: dial tcp: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCategoryMapping(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		category ErrorCategory
	}{
		{ErrCodeInvalidConfig, CategoryConfiguration},
		{ErrCodeMissingConfig, CategoryConfiguration},
		{ErrCodeConnectionFailed, CategoryConnection},
		{ErrCodeAuthenticationFailed, CategoryConnection},
		{ErrCodeObjectNotFound, CategoryNotFound},
		{ErrCodeBucketNotFound, CategoryNotFound},
		{ErrCodeOperationFailed, CategoryOperation},
		{ErrCodePreconditionFailed, CategoryOperation},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := New(tt.code, "x").Category; got != tt.category {
				t.Errorf("categoryOf(%s) = %q, want %q", tt.code, got, tt.category)
			}
		})
	}
}

func TestIsMatchesOnCode(t *testing.T) {
	a := New(ErrCodeObjectNotFound, "one")
	b := New(ErrCodeObjectNotFound, "another")

	if !stderrors.Is(a, b) {
		t.Error("errors with the same code should match")
	}

	c := New(ErrCodeBucketNotFound, "bucket")
	if stderrors.Is(a, c) {
		t.Error("errors with different codes should not match")
	}
}

func TestPredicates(t *testing.T) {
	if !IsNotFound(New(ErrCodeObjectNotFound, "x")) {
		t.Error("IsNotFound should match OBJECT_NOT_FOUND")
	}
	if !IsNotFound(New(ErrCodeBucketNotFound, "x")) {
		t.Error("IsNotFound should match BUCKET_NOT_FOUND")
	}
	if IsNotFound(New(ErrCodeOperationFailed, "x")) {
		t.Error("IsNotFound should not match OPERATION_FAILED")
	}
	if !IsConnection(New(ErrCodeAuthenticationFailed, "x")) {
		t.Error("IsConnection should match AUTHENTICATION_FAILED")
	}
	if !IsConfiguration(New(ErrCodeMissingConfig, "x")) {
		t.Error("IsConfiguration should match MISSING_CONFIG")
	}
	if IsNotFound(stderrors.New("plain")) {
		t.Error("predicates should reject plain errors")
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	inner := New(ErrCodeObjectNotFound, "object missing")
	outer := fmt.Errorf("download failed: %w", inner)

	if !IsNotFound(outer) {
		t.Error("IsNotFound should see through fmt.Errorf wrapping")
	}
	if CodeOf(outer) != ErrCodeObjectNotFound {
		t.Errorf("CodeOf = %q, want OBJECT_NOT_FOUND", CodeOf(outer))
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if CodeOf(stderrors.New("plain")) != "" {
		t.Error("CodeOf on a plain error should be empty")
	}
}
