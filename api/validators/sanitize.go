package validators

import "unicode/utf8"

const maxQueryValueRunes = 500

// CapRunes cuts input to at most maxRunes runes without altering it otherwise.
func CapRunes(input string, maxRunes int) string {
	if maxRunes > 0 && utf8.RuneCountInString(input) > maxRunes {
		return string([]rune(input)[:maxRunes])
	}
	return input
}
