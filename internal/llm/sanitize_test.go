package llm

import (
	"reflect"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/resume-ingest/internal/entity"
)

func mustDecode(t *testing.T, s string) *structpb.Value {
	t.Helper()
	v, err := DecodeResponse(s)
	if err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return v
}

var garbageInputs = []string{
	`null`,
	`{}`,
	`[]`,
	`42`,
	`"just a string"`,
	`true`,
	`[{"fullName":"A"}]`,
	`{"fullName": 7, "email": ["x"], "phone": {"n": 1}, "skills": "Go", "experience": {"company": "X"}}`,
	`{"skills": [1, null, "", "  ", " Go ", {"a":1}, ["Rust"]], "languages": null, "certifications": [true]}`,
	`{"experience": [null, 3, "x", [], {"company": 5, "position": " Dev ", "endDate": ["present"], "isCurrent": "yes"}]}`,
	`{"education": [{"institution": {"deep": {"deeper": [1,2,{"x":null}]}}, "gpa": 3.9}]}`,
	`{"projects": [{"name": " P ", "technologies": "Go"}, {"technologies": [" Go ", 1, ""]}]}`,
	`{"fullName": "  ", "email": "  JANE@Example.COM ", "linkedinLink": "", "summary": "\n\tHi\n"}`,
}

func assertFullyPopulated(t *testing.T, p entity.ParsedData) {
	t.Helper()
	if p.Skills == nil || p.Languages == nil || p.Certifications == nil ||
		p.Experience == nil || p.Education == nil || p.Projects == nil {
		t.Fatalf("nil list in sanitized output: %+v", p)
	}
	for _, pr := range p.Projects {
		if pr.Technologies == nil {
			t.Fatalf("nil technologies in %+v", pr)
		}
	}
}

func TestSanitizeTotal(t *testing.T) {
	assertFullyPopulated(t, Sanitize(nil))
	for _, in := range garbageInputs {
		t.Run(in, func(t *testing.T) {
			assertFullyPopulated(t, Sanitize(mustDecode(t, in)))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	for _, in := range garbageInputs {
		t.Run(in, func(t *testing.T) {
			once := Sanitize(mustDecode(t, in))
			twice := SanitizeParsed(once)
			if !reflect.DeepEqual(once, twice) {
				t.Fatalf("sanitize not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
			}
		})
	}
}

func TestSanitizeFields(t *testing.T) {
	p := Sanitize(mustDecode(t, `{
		"fullName": "  Jane Doe ",
		"email": "  JANE@Example.COM ",
		"phone": 5551234,
		"address": null,
		"summary": "",
		"skills": [" Go ", "", 3, "Rust"],
		"experience": [
			{"company": " Acme ", "position": "Dev", "endDate": "Present", "isCurrent": false},
			{"company": "Old Co", "endDate": "2019", "isCurrent": 1},
			{"company": "Older Co", "endDate": "2015"},
			"not an object"
		],
		"education": [{"institution": "MIT", "gpa": 4}],
		"projects": [{"name": "p", "technologies": ["Go", " "]}]
	}`))

	if p.FullName == nil || *p.FullName != "Jane Doe" {
		t.Fatalf("fullName = %v", p.FullName)
	}
	if p.Email == nil || *p.Email != "jane@example.com" {
		t.Fatalf("email = %v", p.Email)
	}
	if p.Phone != nil || p.Address != nil || p.Summary != nil {
		t.Fatalf("expected nil phone/address/summary, got %v %v %v", p.Phone, p.Address, p.Summary)
	}
	if !reflect.DeepEqual(p.Skills, []string{"Go", "Rust"}) {
		t.Fatalf("skills = %v", p.Skills)
	}
	if len(p.Experience) != 3 {
		t.Fatalf("experience = %+v", p.Experience)
	}
	if e := p.Experience[0]; e.Company != "Acme" || !e.IsCurrent {
		t.Fatalf("experience[0] = %+v", e)
	}
	if !p.Experience[1].IsCurrent {
		t.Fatalf("truthy isCurrent should mark the role current")
	}
	if p.Experience[2].IsCurrent {
		t.Fatalf("past role marked current")
	}
	if p.Experience[2].Position != "" || p.Experience[2].Description != "" {
		t.Fatalf("missing sub-fields must default to empty strings: %+v", p.Experience[2])
	}
	if e := p.Education[0]; e.Institution != "MIT" || e.GPA != "" {
		t.Fatalf("education[0] = %+v", e)
	}
	if !reflect.DeepEqual(p.Projects[0].Technologies, []string{"Go"}) {
		t.Fatalf("technologies = %v", p.Projects[0].Technologies)
	}
}

func TestTruthy(t *testing.T) {
	cases := map[string]bool{
		`true`:  true,
		`false`: false,
		`0`:     false,
		`2`:     true,
		`""`:    false,
		`"no"`:  true,
		`[]`:    true,
		`{}`:    true,
		`null`:  false,
	}
	for in, want := range cases {
		if got := truthy(mustDecode(t, in)); got != want {
			t.Fatalf("truthy(%s) = %v, want %v", in, got, want)
		}
	}
	if truthy(nil) {
		t.Fatalf("truthy(nil) should be false")
	}
}
