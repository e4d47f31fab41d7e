package v1

import "regexp"

// emailPattern accepts the basic local@domain.tld shape. Anything stricter is
// the identity provider's business.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

const minPasswordLength = 6

// ValidateCredentials checks email and password shape before any network
// call. It is pure and side-effect free.
func ValidateCredentials(email, password string) error {
	if email == "" || password == "" {
		return ErrCredentialsRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmailFormat
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
