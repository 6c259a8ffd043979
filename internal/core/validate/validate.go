// Package validate provides shared validation functions.
package validate

import (
	"errors"
	"strings"

	"github.com/hay-kot/criterio"
)

// Email validates an account email after trimming whitespace. Only the
// shape is checked; the identity service has the final word.
func Email(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return errors.New("enter a valid email address")
	}
	return nil
}

// Password validates that a password was entered. Strength rules belong to
// the identity service.
func Password(password string) error {
	if password == "" {
		return errors.New("password is required")
	}
	return nil
}

// Credentials validates an email and password pair, reporting every failing
// field.
func Credentials(email, password string) error {
	return criterio.ValidateStruct(
		criterio.Run("email", email, Email),
		criterio.Run("password", password, Password),
	)
}
