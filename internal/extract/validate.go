package extract

import (
	"strings"
	"unicode/utf8"
)

const (
	MinTextLength    = 50
	MaxTextLength    = 50000
	MinKeywordMatch  = 3
	msgEmptyText     = "No text could be extracted from the file"
	msgShortText     = "Extracted text seems very short. The resume might not be processed correctly."
	msgLongText      = "Extracted text is very long. This might affect processing speed."
	msgNotResumeLike = "The document might not be a resume based on content analysis."
)

// ResumeKeywords are matched case-insensitively as substrings.
var ResumeKeywords = []string{
	"experience", "education", "skills", "objective", "summary",
	"work", "job", "employment", "degree", "university", "college",
}

// ValidationResult separates blocking errors from advisory warnings.
type ValidationResult struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// ValidateText judges extracted text. Only empty text is blocking.
func ValidateText(text string) ValidationResult {
	res := ValidationResult{IsValid: true, Errors: []string{}, Warnings: []string{}}
	if strings.TrimSpace(text) == "" {
		res.IsValid = false
		res.Errors = append(res.Errors, msgEmptyText)
		return res
	}

	n := utf8.RuneCountInString(text)
	if n < MinTextLength {
		res.Warnings = append(res.Warnings, msgShortText)
	}
	if n > MaxTextLength {
		res.Warnings = append(res.Warnings, msgLongText)
	}
	if countKeywords(text) < MinKeywordMatch {
		res.Warnings = append(res.Warnings, msgNotResumeLike)
	}
	return res
}

func countKeywords(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range ResumeKeywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}
