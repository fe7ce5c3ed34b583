package llm

import (
	"math"
	"strings"

	"github.com/joseph-ayodele/resume-ingest/internal/entity"
)

// scoredFields is the number of fields Score looks at.
const scoredFields = 6

// Score is the share of key fields present, rounded to 0..100. Each of
// fullName, email, phone, skills, experience and education is worth 100/6.
func Score(p entity.ParsedData) int {
	present := 0
	for _, ok := range []bool{
		hasText(p.FullName),
		hasText(p.Email),
		hasText(p.Phone),
		len(p.Skills) > 0,
		len(p.Experience) > 0,
		len(p.Education) > 0,
	} {
		if ok {
			present++
		}
	}
	return int(math.Round(float64(present) * 100 / scoredFields))
}

func hasText(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
