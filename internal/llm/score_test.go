package llm

import (
	"testing"

	"github.com/joseph-ayodele/resume-ingest/internal/entity"
)

func strPtr(s string) *string { return &s }

func TestScore(t *testing.T) {
	full := entity.EmptyParsedData()
	full.FullName = strPtr("Jane")
	full.Email = strPtr("jane@example.com")
	full.Phone = strPtr("555")
	full.Skills = []string{"Go"}
	full.Experience = []entity.Experience{{Company: "Acme"}}
	full.Education = []entity.Education{{Institution: "MIT"}}

	cases := []struct {
		name string
		mut  func(p *entity.ParsedData)
		want int
	}{
		{"empty", func(p *entity.ParsedData) { *p = entity.EmptyParsedData() }, 0},
		{"all six", func(p *entity.ParsedData) {}, 100},
		{"five", func(p *entity.ParsedData) { p.Phone = nil }, 83},
		{"four", func(p *entity.ParsedData) { p.Phone = nil; p.Education = nil }, 67},
		{"three", func(p *entity.ParsedData) { p.Phone, p.Email = nil, nil; p.Education = nil }, 50},
		{"one", func(p *entity.ParsedData) {
			*p = entity.EmptyParsedData()
			p.Skills = []string{"Go"}
		}, 17},
		{"blank scalar is absent", func(p *entity.ParsedData) {
			*p = entity.EmptyParsedData()
			p.FullName = strPtr("   ")
		}, 0},
		{"untracked fields ignored", func(p *entity.ParsedData) {
			*p = entity.EmptyParsedData()
			p.Summary = strPtr("x")
			p.Languages = []string{"en"}
			p.Projects = []entity.Project{{Name: "p"}}
		}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := full
			tc.mut(&p)
			if got := Score(p); got != tc.want {
				t.Fatalf("Score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScoreBounded(t *testing.T) {
	for _, in := range garbageInputs {
		s := Score(Sanitize(mustDecode(t, in)))
		if s < 0 || s > 100 {
			t.Fatalf("score %d out of range for %s", s, in)
		}
	}
}
