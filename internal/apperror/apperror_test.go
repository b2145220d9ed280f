package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// Each case checks that errors.Is() walks through AppError to its sentinel kind.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("game", 3),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("email", "Invalid email address."),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Invalid wraps ErrValidation",
			err:       Invalid(map[string]string{"username": "This field is required."}),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("Email has already exist."),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("Username or password incorrect."),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "wrapped with fmt.Errorf still matches",
			err:       fmt.Errorf("registering: %w", Conflict("taken")),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("game", 3),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthorized does NOT match ErrForbidden",
			err:       Unauthorized("nope"),
			target:    ErrForbidden,
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

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("game", 42),
			wantMessage: "game not found with id 42",
		},
		{
			name:        "Conflict uses the message verbatim",
			err:         Conflict("Username has already been taken."),
			wantMessage: "Username has already been taken.",
		},
		{
			name:        "Forbidden uses custom message",
			err:         Forbidden("admin only"),
			wantMessage: "admin only",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestFieldsOf(t *testing.T) {
	err := fmt.Errorf("signup: %w", Invalid(map[string]string{"email": "Invalid email address."}))

	fields := FieldsOf(err)
	if fields["email"] != "Invalid email address." {
		t.Errorf("FieldsOf()[email] = %q", fields["email"])
	}

	if FieldsOf(Conflict("taken")) != nil {
		t.Error("FieldsOf() should be nil for non-validation errors")
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("response", "invalid game token")

	if err.Field != "response" {
		t.Errorf("Field = %q, want %q", err.Field, "response")
	}
	if err.Fields["response"] != "invalid game token" {
		t.Errorf("Fields[response] = %q", err.Fields["response"])
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(fmt.Errorf("x: %w", Unauthorized("bad"))); got != "bad" {
		t.Errorf("MessageOf() = %q, want %q", got, "bad")
	}
	if got := MessageOf(errors.New("plain")); got != "" {
		t.Errorf("MessageOf(plain) = %q, want empty", got)
	}
}

func TestValidationFailedWithoutField(t *testing.T) {
	err := ValidationFailed("", "request body is empty")

	if err.Fields != nil {
		t.Errorf("Fields = %v, want nil for a request-level error", err.Fields)
	}
	if MessageOf(err) != "request body is empty" {
		t.Errorf("MessageOf() = %q", MessageOf(err))
	}
}
