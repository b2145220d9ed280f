package validation

import "net/http"

const requiredMessage = "This field is required."

// RegisterForm is the sign-up form.
type RegisterForm struct {
	Email     string `form:"email" validate:"required,min=6,max=35,email"`
	Username  string `form:"username" validate:"required,min=4,max=25"`
	Password  string `form:"password" validate:"required,min=6,eqfield=Confirm"`
	Confirm   string `form:"confirm"`
	AcceptTOS bool   `form:"accept_tos" validate:"required"`
}

// RegisterMessages words the sign-up constraints.
var RegisterMessages = Messages{
	"required":         requiredMessage,
	"email.min":        "Field must be between 6 and 35 characters long.",
	"email.max":        "Field must be between 6 and 35 characters long.",
	"email.email":      "Invalid email address.",
	"username.min":     "Username must be between 4 and 25 characters long.",
	"username.max":     "Username must be between 4 and 25 characters long.",
	"password.min":     "Password must be at least 6 characters long.",
	"password.eqfield": "Passwords must match.",
}

// ParseRegisterForm reads a RegisterForm from a parsed request body.
func ParseRegisterForm(r *http.Request) RegisterForm {
	return RegisterForm{
		Email:     r.PostFormValue("email"),
		Username:  r.PostFormValue("username"),
		Password:  r.PostFormValue("password"),
		Confirm:   r.PostFormValue("confirm"),
		AcceptTOS: checked(r.PostFormValue("accept_tos")),
	}
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Username string `form:"username" validate:"required,min=4,max=25"`
	Password string `form:"password" validate:"required"`
	Remember bool   `form:"remember"`
}

// LoginMessages words the sign-in constraints.
var LoginMessages = Messages{
	"required":     requiredMessage,
	"username.min": "Username must be between 4 and 25 characters long.",
	"username.max": "Username must be between 4 and 25 characters long.",
}

func ParseLoginForm(r *http.Request) LoginForm {
	return LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		Remember: checked(r.PostFormValue("remember")),
	}
}

// PasswordForm is the change-password form on the settings page.
type PasswordForm struct {
	OldPassword string `form:"old_password" validate:"required"`
	Password    string `form:"password" validate:"required,min=6,eqfield=Confirm"`
	Confirm     string `form:"confirm"`
}

var PasswordMessages = Messages{
	"required":         requiredMessage,
	"password.min":     "Password must be at least 6 characters long.",
	"password.eqfield": "Passwords must match.",
}

func ParsePasswordForm(r *http.Request) PasswordForm {
	return PasswordForm{
		OldPassword: r.PostFormValue("old_password"),
		Password:    r.PostFormValue("password"),
		Confirm:     r.PostFormValue("confirm"),
	}
}

// checked reports whether an HTML checkbox was ticked. Browsers send "on"
// by default; "y", "true" and "1" come from scripted clients.
func checked(v string) bool {
	switch v {
	case "on", "y", "yes", "true", "1":
		return true
	}
	return false
}
