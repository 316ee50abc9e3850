package conversation

import "strings"

// Sanitize trims the input and collapses every internal whitespace run to a
// single space. Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
