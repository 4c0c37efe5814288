// GO TESTING BASICS:
// 1. Test files MUST end in _test.go — Go's tooling auto-discovers them
// 2. Test functions MUST start with "Test" and take *testing.T as the only param
// 3. Same package as the code being tested (so we can access unexported stuff)
// 4. Run with: go test ./internal/apperror/ -v  (-v = verbose, shows each test name)
package apperror

import (
	"errors"
	"testing"
)

// TABLE-DRIVEN TESTS:
// This is Go's idiomatic pattern for testing multiple cases.
// Instead of writing separate test functions, we define a slice of test cases
// and loop over them. Benefits:
// - Adding a new test case = adding one struct to the slice
// - Every case gets a name (shows up in test output)
// - DRY — the assertion logic is written once

func TestErrorsIs(t *testing.T) {
	// Each test case checks that errors.Is() correctly identifies the error type
	tests := []struct {
		name      string // Descriptive name for test output
		err       error  // The error to test
		target    error  // What we expect it to match
		wantMatch bool   // Should errors.Is() return true?
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("article", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "github:1"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("sign in to create an article"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Storage wraps ErrStorage",
			err:       Storage("sqlite: listing articles", errors.New("disk I/O error")),
			target:    ErrStorage,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("article", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Storage does NOT match ErrNotFound",
			err:       Storage("op", errors.New("boom")),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorsAs(t *testing.T) {
	// errors.As extracts the *AppError from a wrapped chain so handlers can
	// read the Message and Field.
	err := ValidationFailed("category", "category is required")

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As() failed to extract *AppError")
	}
	if appErr.Field != "category" {
		t.Errorf("Field = %q, want %q", appErr.Field, "category")
	}
	if appErr.Message != "category is required" {
		t.Errorf("Message = %q, want %q", appErr.Message, "category is required")
	}
}

func TestStorage_HidesCauseFromMessage(t *testing.T) {
	// The whole point of Storage(): the SQL-level detail stays in the wrapped
	// chain (for logs), while Error() is safe to show a caller.
	cause := errors.New("SQLITE_BUSY: database is locked")
	err := Storage("sqlite: updating article abc", cause)

	if err.Error() == cause.Error() {
		t.Error("Storage() exposed the raw cause as its message")
	}
	if !errors.Is(err, cause) {
		t.Error("Storage() lost the original cause from the error chain")
	}
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("article", "xyz789")

	expected := "article not found with id xyz789"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}
