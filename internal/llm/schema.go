package llm

// ResponseRootSchema is the hard requirement on a decoded response: one JSON object.
func ResponseRootSchema() map[string]any {
	return map[string]any{"type": "object"}
}

// ParsedDataJSONSchema describes the shape requested in the prompt. Responses
// are checked against it only to report drift; the sanitizer repairs the rest.
func ParsedDataJSONSchema() map[string]any {
	props := map[string]any{
		"fullName":       nullableString(),
		"email":          nullableString(),
		"phone":          nullableString(),
		"address":        nullableString(),
		"summary":        nullableString(),
		"linkedinLink":   nullableString(),
		"githubLink":     nullableString(),
		"skills":         stringArray(),
		"languages":      stringArray(),
		"certifications": stringArray(),
		"experience": objectArray(map[string]any{
			"company":     nullableString(),
			"position":    nullableString(),
			"startDate":   nullableString(),
			"endDate":     nullableString(),
			"description": nullableString(),
			"isCurrent":   map[string]any{"type": []string{"boolean", "null"}},
		}),
		"education": objectArray(map[string]any{
			"institution":  nullableString(),
			"degree":       nullableString(),
			"fieldOfStudy": nullableString(),
			"startDate":    nullableString(),
			"endDate":      nullableString(),
			"gpa":          nullableString(),
			"description":  nullableString(),
		}),
		"projects": objectArray(map[string]any{
			"name":         nullableString(),
			"description":  nullableString(),
			"technologies": stringArray(),
			"startDate":    nullableString(),
			"endDate":      nullableString(),
			"link":         nullableString(),
		}),
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func stringArray() map[string]any {
	return map[string]any{
		"type":  []string{"array", "null"},
		"items": map[string]any{"type": "string"},
	}
}

func objectArray(props map[string]any) map[string]any {
	return map[string]any{
		"type": []string{"array", "null"},
		"items": map[string]any{
			"type":       "object",
			"properties": props,
		},
	}
}
