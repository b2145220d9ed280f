package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/game-list/internal/apperror"
)

func validRegister() RegisterForm {
	return RegisterForm{
		Email:     "alice@example.com",
		Username:  "alice",
		Password:  "secret1",
		Confirm:   "secret1",
		AcceptTOS: true,
	}
}

func TestValidate_RegisterForm(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		mutate func(*RegisterForm)
		field  string
		want   string
	}{
		{"missing email", func(f *RegisterForm) { f.Email = "" }, "email", "This field is required."},
		{"short email", func(f *RegisterForm) { f.Email = "a@b.c" }, "email", "Field must be between 6 and 35 characters long."},
		{"long email", func(f *RegisterForm) { f.Email = strings.Repeat("a", 30) + "@example.com" }, "email", "Field must be between 6 and 35 characters long."},
		{"bad email", func(f *RegisterForm) { f.Email = "not-an-email" }, "email", "Invalid email address."},
		{"short username", func(f *RegisterForm) { f.Username = "abc" }, "username", "Username must be between 4 and 25 characters long."},
		{"long username", func(f *RegisterForm) { f.Username = strings.Repeat("x", 26) }, "username", "Username must be between 4 and 25 characters long."},
		{"short password", func(f *RegisterForm) { f.Password, f.Confirm = "abc", "abc" }, "password", "Password must be at least 6 characters long."},
		{"mismatched confirm", func(f *RegisterForm) { f.Confirm = "secret2" }, "password", "Passwords must match."},
		{"tos unchecked", func(f *RegisterForm) { f.AcceptTOS = false }, "accept_tos", "This field is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validRegister()
			tt.mutate(&form)

			err := v.Validate(form, RegisterMessages)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))

			fields := apperror.FieldsOf(err)
			assert.Equal(t, tt.want, fields[tt.field])
			assert.Len(t, fields, 1, "only the mutated field should fail: %v", fields)
		})
	}
}

func TestValidate_BoundaryLengthsPass(t *testing.T) {
	v := New()

	form := validRegister()
	form.Username = "abcd"
	form.Email = "a@b.co"
	assert.NoError(t, v.Validate(form, RegisterMessages))

	form.Username = strings.Repeat("u", 25)
	assert.NoError(t, v.Validate(form, RegisterMessages))
}

func TestValidate_MultipleFields(t *testing.T) {
	v := New()

	err := v.Validate(LoginForm{}, LoginMessages)
	require.Error(t, err)

	fields := apperror.FieldsOf(err)
	assert.Equal(t, "This field is required.", fields["username"])
	assert.Equal(t, "This field is required.", fields["password"])
}

func TestValidate_PasswordForm(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(PasswordForm{OldPassword: "x", Password: "newpass", Confirm: "newpass"}, PasswordMessages))

	err := v.Validate(PasswordForm{OldPassword: "x", Password: "newpass", Confirm: "other"}, PasswordMessages)
	assert.Equal(t, "Passwords must match.", apperror.FieldsOf(err)["password"])
}

func TestMessages_Fallback(t *testing.T) {
	assert.Equal(t, DefaultMessage, Messages{}.lookup("username", "min"))
	assert.Equal(t, "generic", Messages{"min": "generic"}.lookup("username", "min"))
	assert.Equal(t, "specific", Messages{"min": "generic", "username.min": "specific"}.lookup("username", "min"))
}

func TestVar(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		value string
		rules string
		want  string
	}{
		{"passes", "alice", "min=4,max=25", ""},
		{"too short", "ab", "min=4,max=25", "must be at least 4 characters"},
		{"too long", strings.Repeat("a", 26), "min=4,max=25", "must be at most 25 characters"},
		{"not an email", "not-an-email", "email,max=35", "must be a valid email address"},
		{"long email", strings.Repeat("a", 30) + "@example.com", "email,max=35", "must be at most 35 characters"},
		{"empty is required", "", "required", "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Var(tt.value, tt.rules)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestParseForms(t *testing.T) {
	body := url.Values{
		"email":      {"a@example.com"},
		"username":   {"alice"},
		"password":   {"secret1"},
		"confirm":    {"secret1"},
		"accept_tos": {"y"},
		"remember":   {"on"},
	}.Encode()
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	reg := ParseRegisterForm(req)
	assert.Equal(t, "a@example.com", reg.Email)
	assert.True(t, reg.AcceptTOS)

	login := ParseLoginForm(req)
	assert.True(t, login.Remember)
	assert.Equal(t, "alice", login.Username)
}
