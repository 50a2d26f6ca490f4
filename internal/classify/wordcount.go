package classify

import "strings"

// CountWords returns the number of whitespace separated tokens in body.
func CountWords(body string) int {
	return len(strings.Fields(body))
}
