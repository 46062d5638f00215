package identifiers

import (
	"strings"
	"unicode"
)

// Kind is the flavor of an ISBN.
type Kind string

const (
	KindISBN10 Kind = "isbn_10"
	KindISBN13 Kind = "isbn_13"
	KindNone   Kind = ""
)

// DetectKind reports whether value is a checksum-valid ISBN-10 or ISBN-13.
func DetectKind(value string) Kind {
	normalized := NormalizeISBN(value)
	if len(normalized) == 13 && ValidateISBN13(normalized) {
		return KindISBN13
	}
	if len(normalized) == 10 && ValidateISBN10(normalized) {
		return KindISBN10
	}
	return KindNone
}

// IsISBN reports whether value is a checksum-valid ISBN of either length.
func IsISBN(value string) bool {
	return DetectKind(value) != KindNone
}

// ParseISBN extracts an ISBN from an identifier and its declared scheme, as
// found in EPUB package metadata. When the scheme names ISBN the value is
// trusted as long as it has the right length; otherwise the value must pass
// the checksum to count.
func ParseISBN(value, scheme string) (string, bool) {
	normalized := NormalizeISBN(value)
	if strings.Contains(strings.ToLower(scheme), "isbn") ||
		strings.HasPrefix(strings.ToLower(strings.TrimSpace(value)), "urn:isbn:") {
		if len(normalized) == 10 || len(normalized) == 13 {
			return normalized, true
		}
		return "", false
	}
	if IsISBN(normalized) {
		return normalized, true
	}
	return "", false
}

// NormalizeISBN removes hyphens, spaces, and common prefixes from an ISBN.
func NormalizeISBN(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	value = strings.TrimPrefix(value, "URN:")
	value = strings.TrimPrefix(value, "ISBN:")
	value = strings.TrimPrefix(value, "ISBN")

	// Keep only digits and X (for ISBN-10 checksum)
	var result strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) || r == 'X' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ToISBN13 converts a valid ISBN-10 to its 978-prefixed ISBN-13 form.
// ISBN-13 input is returned normalized; anything else returns "".
func ToISBN13(value string) string {
	normalized := NormalizeISBN(value)
	switch DetectKind(normalized) {
	case KindISBN13:
		return normalized
	case KindISBN10:
		body := "978" + normalized[:9]
		var sum int
		for i, r := range body {
			digit := int(r - '0')
			if i%2 == 1 {
				digit *= 3
			}
			sum += digit
		}
		check := (10 - sum%10) % 10
		return body + string(rune('0'+check))
	case KindNone:
	}
	return ""
}

// ValidateISBN10 validates an ISBN-10 checksum.
// ISBN-10 uses modulo 11 with weights 10,9,8,7,6,5,4,3,2,1.
func ValidateISBN10(isbn string) bool {
	if len(isbn) != 10 {
		return false
	}

	var sum int
	for i, r := range isbn {
		var digit int
		switch {
		case r == 'X' || r == 'x':
			if i != 9 {
				return false // X only valid as last digit
			}
			digit = 10
		case unicode.IsDigit(r):
			digit = int(r - '0')
		default:
			return false
		}
		sum += digit * (10 - i)
	}
	return sum%11 == 0
}

// ValidateISBN13 validates an ISBN-13 checksum.
// ISBN-13 uses alternating weights of 1 and 3.
func ValidateISBN13(isbn string) bool {
	if len(isbn) != 13 {
		return false
	}

	var sum int
	for i, r := range isbn {
		if !unicode.IsDigit(r) {
			return false
		}
		digit := int(r - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	return sum%10 == 0
}
