package directory

import "regexp"

// emailPattern accepts local@domain.tld with no whitespace and a single @.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email looks like local@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validateOrganization checks the fields shared by organization create and update.
func validateOrganization(name, description string) error {
	if name == "" {
		return errMissingField(AttrName)
	}
	if description == "" {
		return errMissingField(AttrDescription)
	}
	return nil
}

// validateUser checks the fields shared by user create and update.
func validateUser(name, email string) error {
	if name == "" {
		return errMissingField(AttrName)
	}
	if email == "" {
		return errMissingField(AttrEmail)
	}
	if !ValidEmail(email) {
		return errInvalidFormat("invalid email format")
	}
	return nil
}
