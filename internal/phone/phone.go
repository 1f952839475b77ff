// Package phone normalizes patient phone numbers into the international
// mobile format expected by the WhatsApp gateway (+549XXXXXXXXXX, Argentina
// numbering plan).
package phone

import (
	"regexp"
	"strings"
)

var validMobile = regexp.MustCompile(`^\+549\d{8,12}$`)

// Normalize converts an arbitrarily formatted phone string into canonical
// form. It is total: it never fails and always returns some string. The
// result is not guaranteed valid, callers must check with IsValid.
func Normalize(raw string) string {
	cleaned := clean(raw)

	switch {
	case strings.HasPrefix(cleaned, "+"):
		// Already international, leave untouched.
	case strings.HasPrefix(cleaned, "54"):
		local := cleaned[2:]
		if len(local) == 10 && !strings.HasPrefix(local, "9") {
			local = "9" + local
		}
		cleaned = "+54" + local
	default:
		// Local number: drop the trunk prefix, add the mobile indicator
		// when the subscriber part looks like a 10-digit landline-form
		// number, then the country code.
		local := strings.TrimPrefix(cleaned, "0")
		if len(local) == 10 && !strings.HasPrefix(local, "9") {
			local = "9" + local
		}
		cleaned = "+54" + local
	}

	if !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}
	return cleaned
}

// IsValid reports whether formatted is a canonical Argentine mobile number.
func IsValid(formatted string) bool {
	return validMobile.MatchString(formatted)
}

// clean strips everything except digits, keeping a leading "+" if present.
func clean(raw string) string {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
