package llm

import (
	"strings"
)

// StripFences removes a leading ```json (or bare ```) marker and a trailing ```
// marker around a model response.
func StripFences(input string) string {
	clean := strings.TrimSpace(input)

	if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
		if len(clean) >= 4 && strings.EqualFold(clean[:4], "json") {
			clean = clean[4:]
		}
		clean = strings.TrimLeft(clean, " \t\r\n")
	}
	clean = strings.TrimSpace(clean)
	clean = strings.TrimSuffix(clean, "```")

	return strings.TrimSpace(clean)
}
