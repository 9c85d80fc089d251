package util

import "strings"

// TitleWords converts a snake_case identifier to display form, e.g.
// "supply_chain" -> "Supply Chain".
func TitleWords(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
