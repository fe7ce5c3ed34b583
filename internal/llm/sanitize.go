package llm

import (
	"math"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/resume-ingest/internal/entity"
)

// Sanitize coerces an untrusted model value into a fully populated ParsedData.
// It never fails: anything of the wrong type becomes the field's default.
func Sanitize(raw *structpb.Value) entity.ParsedData {
	f := raw.GetStructValue().GetFields()

	email := scalar(f, "email")
	if email != nil {
		lower := strings.ToLower(*email)
		email = &lower
	}

	return entity.ParsedData{
		FullName:       scalar(f, "fullName"),
		Email:          email,
		Phone:          scalar(f, "phone"),
		Address:        scalar(f, "address"),
		Summary:        scalar(f, "summary"),
		LinkedinLink:   scalar(f, "linkedinLink"),
		GithubLink:     scalar(f, "githubLink"),
		Skills:         stringList(f["skills"]),
		Languages:      stringList(f["languages"]),
		Certifications: stringList(f["certifications"]),
		Experience:     objects(f["experience"], experience),
		Education:      objects(f["education"], education),
		Projects:       objects(f["projects"], project),
	}
}

// SanitizeParsed re-applies Sanitize to an already typed value.
func SanitizeParsed(p entity.ParsedData) entity.ParsedData {
	v, err := ToValue(p)
	if err != nil {
		return entity.EmptyParsedData()
	}
	return Sanitize(v)
}

func experience(f map[string]*structpb.Value) entity.Experience {
	end := text(f, "endDate")
	return entity.Experience{
		Company:     text(f, "company"),
		Position:    text(f, "position"),
		StartDate:   text(f, "startDate"),
		EndDate:     end,
		Description: text(f, "description"),
		// a "present" end date marks the role current whatever the flag says
		IsCurrent: truthy(f["isCurrent"]) || strings.Contains(strings.ToLower(end), "present"),
	}
}

func education(f map[string]*structpb.Value) entity.Education {
	return entity.Education{
		Institution:  text(f, "institution"),
		Degree:       text(f, "degree"),
		FieldOfStudy: text(f, "fieldOfStudy"),
		StartDate:    text(f, "startDate"),
		EndDate:      text(f, "endDate"),
		GPA:          text(f, "gpa"),
		Description:  text(f, "description"),
	}
}

func project(f map[string]*structpb.Value) entity.Project {
	return entity.Project{
		Name:         text(f, "name"),
		Description:  text(f, "description"),
		Technologies: stringList(f["technologies"]),
		StartDate:    text(f, "startDate"),
		EndDate:      text(f, "endDate"),
		Link:         text(f, "link"),
	}
}

func str(v *structpb.Value) (string, bool) {
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", false
	}
	return s.StringValue, true
}

// scalar returns the trimmed string at key, or nil when absent, not a string or blank.
func scalar(f map[string]*structpb.Value, key string) *string {
	s, ok := str(f[key])
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func text(f map[string]*structpb.Value, key string) string {
	s, _ := str(f[key])
	return strings.TrimSpace(s)
}

func stringList(v *structpb.Value) []string {
	out := []string{}
	for _, e := range v.GetListValue().GetValues() {
		s, ok := str(e)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// objects keeps only struct elements of a list and maps each through fn.
func objects[T any](v *structpb.Value, fn func(map[string]*structpb.Value) T) []T {
	out := []T{}
	for _, e := range v.GetListValue().GetValues() {
		s, ok := e.GetKind().(*structpb.Value_StructValue)
		if !ok {
			continue
		}
		out = append(out, fn(s.StructValue.GetFields()))
	}
	return out
}

func truthy(v *structpb.Value) bool {
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_NumberValue:
		return k.NumberValue != 0 && !math.IsNaN(k.NumberValue)
	case *structpb.Value_StringValue:
		return k.StringValue != ""
	case *structpb.Value_StructValue, *structpb.Value_ListValue:
		return true
	default:
		return false
	}
}
