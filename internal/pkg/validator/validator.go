package validator

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	urlRegex   = regexp.MustCompile(`^https?:\/\/[-a-zA-Z0-9@:%._\+~#=]{1,256}(\.[a-zA-Z0-9()]{1,6})?(:\d+)?\b([-a-zA-Z0-9()@:%_\+.~#?&//=]*)$`)
	// handle@provider, as issued by UPI apps
	upiRegex = regexp.MustCompile(`^[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z][a-zA-Z0-9]{1,63}$`)
)

// IsValidEmail checks if the email format is valid
func IsValidEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// IsValidURL checks if the URL format is valid
func IsValidURL(url string) bool {
	if strings.TrimSpace(url) == "" {
		return false
	}
	return urlRegex.MatchString(url)
}

// IsValidUPIID checks a virtual payment address like name@bank
func IsValidUPIID(id string) bool {
	if strings.TrimSpace(id) == "" {
		return false
	}
	return upiRegex.MatchString(id)
}
