package validation

import (
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Phone: optional leading +, then digits with spaces/dashes tolerated.
var phoneRe = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,18}$`)

// Token symbol: 2-12 upper-case letters/digits.
var symbolRe = regexp.MustCompile(`^[A-Z0-9]{2,12}$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func IsValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

func IsValidTokenSymbol(symbol string) bool {
	return symbolRe.MatchString(symbol)
}

// IsValidCurrency accepts the settlement currencies supported by the ledger.
func IsValidCurrency(currency string) bool {
	switch strings.ToUpper(currency) {
	case "EUR", "THB":
		return true
	}
	return false
}

// IsValidURL is a light structural check for stored blob URLs; the blob store
// is the source of truth for reachability.
func IsValidURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
