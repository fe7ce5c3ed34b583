package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// buildDOCX assembles the smallest container the docx reader accepts.
func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`</Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
			`</Relationships>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`,
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func para(runs ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for _, r := range runs {
		b.WriteString("<w:r>" + r + "</w:r>")
	}
	b.WriteString("</w:p>")
	return b.String()
}

func TestExtractDOCX(t *testing.T) {
	body := para(`<w:rPr><w:b/></w:rPr><w:t>Jane Doe</w:t>`) +
		para(`<w:t>Experience:</w:t>`, `<w:tab/>`, `<w:t xml:space="preserve">5  years</w:t>`) +
		para(`<w:t>Line one</w:t>`, `<w:br/>`, `<w:t>Line two</w:t>`)

	e := NewExtractor(nil)
	res, err := e.Extract(context.Background(), buildDOCX(t, body), constants.MediaTypeDOCX)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "Jane Doe\nExperience:\t5 years\nLine one\nLine two"
	if res.Text != want {
		t.Fatalf("text = %q, want %q", res.Text, want)
	}
	if res.MediaType != constants.MediaTypeDOCX {
		t.Fatalf("media type = %q", res.MediaType)
	}
}

// buildPDF writes an uncompressed PDF with one Helvetica text line per page
// and a byte-exact xref table.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	buf.WriteString("%PDF-1.4\n")

	var kids []string
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+2*i))
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	for i, text := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestExtractPDFPageOrder(t *testing.T) {
	data := buildPDF("Jane Doe Senior Engineer", "Education BS Computer Science")

	res, err := NewExtractor(nil).Extract(context.Background(), data, constants.MediaTypePDF)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Pages != 2 {
		t.Fatalf("pages = %d", res.Pages)
	}
	first := strings.Index(res.Text, "Jane Doe Senior Engineer")
	second := strings.Index(res.Text, "Education BS Computer Science")
	if first < 0 || second < 0 {
		t.Fatalf("page text missing from %q", res.Text)
	}
	if first > second {
		t.Fatalf("pages out of order: %q", res.Text)
	}
	if strings.Contains(res.Text, "\r") || strings.Contains(res.Text, "  ") {
		t.Fatalf("text not normalized: %q", res.Text)
	}
}

func TestExtractDOCXScenario(t *testing.T) {
	text := "Experience: 5 years. Education: BS CS. Skills: Go, Rust."
	data := buildDOCX(t, para(`<w:t>`+text+`</w:t>`))

	res, err := NewExtractor(nil).Extract(context.Background(), data, constants.MediaTypeDOCX)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text != text {
		t.Fatalf("text = %q, want %q", res.Text, text)
	}
	v := ValidateText(res.Text)
	if !v.IsValid {
		t.Fatalf("expected valid, errors = %v", v.Errors)
	}
	if len(v.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", v.Warnings)
	}
}

func TestExtractUnsupportedMediaType(t *testing.T) {
	_, err := NewExtractor(nil).Extract(context.Background(), []byte("hello"), constants.MediaType("text/plain"))
	if !errors.Is(err, common.ErrUnsupportedMediaType) {
		t.Fatalf("expected unsupported media type, got %v", err)
	}
}

func TestExtractCorruptFiles(t *testing.T) {
	cases := []struct {
		name string
		mt   constants.MediaType
		data []byte
	}{
		{"pdf garbage", constants.MediaTypePDF, []byte("this is definitely not a pdf document")},
		{"pdf empty", constants.MediaTypePDF, nil},
		{"docx not a zip", constants.MediaTypeDOCX, []byte("PK but not really")},
	}
	e := NewExtractor(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), tc.data, tc.mt)
			if !errors.Is(err, common.ErrExtractionFailed) {
				t.Fatalf("expected extraction failure, got %v", err)
			}
			if errors.Unwrap(err) == nil {
				t.Fatalf("expected cause to be attached")
			}
		})
	}
}

func TestExtractCustomDecoder(t *testing.T) {
	stub := DecoderFunc(func(context.Context, []byte) (string, error) {
		return "  a\r\n\r\n\r\n\r\nb   c  ", nil
	})
	e := NewExtractor(nil, WithDecoder(constants.MediaTypePDF, stub))
	res, err := e.Extract(context.Background(), []byte("%PDF"), constants.MediaTypePDF)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text != "a\n\nb c" {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"a\r\nb\rc", "a\nb\nc"},
		{"a\n\n\n\nb", "a\n\nb"},
		{"a    b\t\tc", "a b c"},
		{"a\tb", "a\tb"},
		{"  \n\n lead and trail \n\n ", "lead and trail"},
		{"x \r\n\r\n\r\n y", "x \n\n y"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"a\r\n\r\n\r\nb",
		" \t \n \n \n x  \f\v y \r\r\r\r z ",
		"Name\n\n\n\n\nSkills:  Go,\t\tRust\r\n",
		"\n \n \n \n",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestValidateText(t *testing.T) {
	t.Run("empty is blocking", func(t *testing.T) {
		for _, in := range []string{"", "   \n\t "} {
			v := ValidateText(in)
			if v.IsValid || len(v.Errors) != 1 {
				t.Fatalf("ValidateText(%q) = %+v", in, v)
			}
		}
	})

	t.Run("short non-keyword text warns", func(t *testing.T) {
		v := ValidateText("abcdefghij")
		if !v.IsValid {
			t.Fatalf("expected valid")
		}
		if len(v.Warnings) != 2 {
			t.Fatalf("expected short and keyword warnings, got %v", v.Warnings)
		}
	})

	t.Run("resume-like text has no keyword warning", func(t *testing.T) {
		text := "Work Experience at Acme. Education: University of Somewhere. Skills: Go." +
			strings.Repeat(" filler", 20)
		if n := len([]rune(text)); n < 200 {
			t.Fatalf("fixture too short: %d", n)
		}
		v := ValidateText(text)
		if !v.IsValid || len(v.Warnings) != 0 {
			t.Fatalf("unexpected result %+v", v)
		}
	})

	t.Run("very long text warns", func(t *testing.T) {
		text := "experience education skills " + strings.Repeat("x", MaxTextLength)
		v := ValidateText(text)
		if !v.IsValid || len(v.Warnings) != 1 || v.Warnings[0] != msgLongText {
			t.Fatalf("unexpected result %+v", v)
		}
	})

	t.Run("keywords are case insensitive", func(t *testing.T) {
		if n := countKeywords("EXPERIENCE Education sKiLLs"); n != 3 {
			t.Fatalf("countKeywords = %d", n)
		}
	})
}
