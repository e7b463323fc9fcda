package service

import (
	"regexp"
	"strings"

	"github.com/obarlas/campuslink/internal/model"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 128
	nameMinLength     = 2
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return "Email is required"
	}
	if !emailRe.MatchString(email) {
		return "Invalid email format"
	}
	return ""
}

func validatePassword(password string) string {
	switch {
	case password == "":
		return "Password is required"
	case len(password) < passwordMinLength:
		return "Password must be at least 8 characters"
	case len(password) > passwordMaxLength:
		return "Password must be no more than 128 characters"
	}
	var upper, lower, digit, special bool
	for _, ch := range password {
		switch {
		case ch >= 'A' && ch <= 'Z':
			upper = true
		case ch >= 'a' && ch <= 'z':
			lower = true
		case ch >= '0' && ch <= '9':
			digit = true
		case strings.ContainsRune(`!@#$%^&*()_+-=[]{};':"\|,.<>/?`, ch):
			special = true
		}
	}
	switch {
	case !upper:
		return "Password must contain at least one uppercase letter"
	case !lower:
		return "Password must contain at least one lowercase letter"
	case !digit:
		return "Password must contain at least one number"
	case !special:
		return "Password must contain at least one special character"
	}
	return ""
}

func validateName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required"
	}
	if len(strings.TrimSpace(name)) < nameMinLength {
		return "Name must be at least 2 characters"
	}
	return ""
}

// Administrators are provisioned by other administrators, never
// through self sign-up.
func validateSignUpRole(role model.Role) string {
	if !role.Valid() || role == model.RoleAdministrator {
		return "Invalid role selection"
	}
	return ""
}

func validateSignUp(in SignUpInput) string {
	if msg := validateName(in.Name); msg != "" {
		return msg
	}
	if msg := validateEmail(in.Email); msg != "" {
		return msg
	}
	if msg := validatePassword(in.Password); msg != "" {
		return msg
	}
	return validateSignUpRole(in.Role)
}

func validateSignIn(in SignInInput) string {
	if msg := validateEmail(in.Email); msg != "" {
		return msg
	}
	if in.Password == "" {
		return "Password is required"
	}
	return ""
}

func validatePasswordReset(token, password string) string {
	if strings.TrimSpace(token) == "" {
		return "Token is required"
	}
	return validatePassword(password)
}

func validateChangePassword(current, next string) string {
	if current == "" {
		return "Current password is required"
	}
	return validatePassword(next)
}
