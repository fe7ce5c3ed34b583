package llm

import "testing"

func TestStripFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```json\n{\"fullName\": \"A\", \"skills\": []}\n```", `{"fullName": "A", "skills": []}`},
		{"```\n{}\n```", "{}"},
		{"```JSON{}```", "{}"},
		{"  {\"a\":1}  ", `{"a":1}`},
		{"{\"a\":1}\n```", `{"a":1}`},
		{"not json", "not json"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := StripFences(tc.in); got != tc.want {
			t.Fatalf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
