package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NameKey normalizes a person or series name for matching: Unicode NFC,
// case folded, with runs of whitespace collapsed to one space.
func NameKey(name string) string {
	key := norm.NFC.String(name)
	key = cases.Fold().String(key)
	return strings.Join(strings.Fields(key), " ")
}
