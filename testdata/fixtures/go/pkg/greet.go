package pkg

import "strings"

// Greet builds a greeting for name.
func Greet(name string) string {
	return format(name)
}

func format(name string) string {
	return "hello, " + strings.TrimSpace(name)
}
