package forms

import (
	"strconv"
	"strings"

	"github.com/kingrea/fieldcrm/internal/models"
)

// Account field keys.
const (
	FieldUserName  = "UserName"
	FieldPassword  = "Password"
	FieldToken     = "Token"
	FieldValidDays = "ValidDays"
	FieldCount     = "Count"
)

// LoginForm is the login screen.
type LoginForm struct {
	UserName string
	Password string
}

// Build validates the login form.
func (f LoginForm) Build() (models.Credentials, FieldErrors) {
	errs := FieldErrors{}
	if blank(f.UserName) {
		errs.Add(FieldUserName, "Username is required")
	}
	if f.Password == "" {
		errs.Add(FieldPassword, "Password is required")
	}
	if len(errs) > 0 {
		return models.Credentials{}, errs
	}
	return models.Credentials{UserName: strings.TrimSpace(f.UserName), Password: f.Password}, nil
}

// RegisterForm is the invite-based registration screen.
type RegisterForm struct {
	Token    string
	UserName string
	Email    string
	Password string
}

// Build validates the registration form. The token is checked first, as
// the screen reports one problem at a time.
func (f RegisterForm) Build() (models.Registration, FieldErrors) {
	if blank(f.Token) {
		return models.Registration{}, FieldErrors{FieldToken: {"Token is required"}}
	}
	if blank(f.UserName) {
		return models.Registration{}, FieldErrors{FieldUserName: {"Username is required"}}
	}
	return models.Registration{
		UserName: strings.TrimSpace(f.UserName),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		Token:    strings.TrimSpace(f.Token),
	}, nil
}

// InviteForm is the admin invitation screen.
type InviteForm struct {
	Email     string
	ValidDays string
}

// Build validates the invitation. Valid days default to 1 and must be 1-365.
func (f InviteForm) Build() (models.Invitation, FieldErrors) {
	if blank(f.Email) {
		return models.Invitation{}, FieldErrors{FieldEmail: {"Email is required"}}
	}
	raw := strings.TrimSpace(f.ValidDays)
	if raw == "" {
		raw = "1"
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > 365 {
		return models.Invitation{}, FieldErrors{FieldValidDays: {"Valid days must be a number between 1 and 365"}}
	}
	return models.Invitation{Email: strings.TrimSpace(f.Email), ValidDays: days}, nil
}

// UserForm is the admin account edit screen. Roles are comma separated.
type UserForm struct {
	UserName string
	Email    string
	Roles    string
}

// UserFormFrom prefills the form for editing u.
func UserFormFrom(u models.User) UserForm {
	return UserForm{UserName: u.UserName, Email: u.Email, Roles: strings.Join(u.Roles, ", ")}
}

// Build validates the account edit.
func (f UserForm) Build() (models.UserUpdate, FieldErrors) {
	errs := FieldErrors{}
	if blank(f.UserName) {
		errs.Add(FieldUserName, "Username is required")
	}
	if email := strings.TrimSpace(f.Email); email != "" && !emailPattern.MatchString(email) {
		errs.Add(FieldEmail, "Invalid email address.")
	}
	if len(errs) > 0 {
		return models.UserUpdate{}, errs
	}
	var roles []string
	for _, r := range strings.Split(f.Roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	return models.UserUpdate{UserName: strings.TrimSpace(f.UserName), Email: strings.TrimSpace(f.Email), Roles: roles}, nil
}

// ParseCount validates the generate-customers count; blank means 10.
func ParseCount(raw string) (int, FieldErrors) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 10, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, FieldErrors{FieldCount: {"Enter a valid number"}}
	}
	return n, nil
}
