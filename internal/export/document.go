package export

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/entity"
)

// Document is the downloadable JSON form of one record.
type Document struct {
	Metadata   Metadata          `json:"metadata"`
	ParsedData entity.ParsedData `json:"parsedData"`
	RawText    *string           `json:"rawText,omitempty"`
}

type Metadata struct {
	FileName         string                     `json:"fileName"`
	UploadedAt       time.Time                  `json:"uploadedAt"`
	ProcessedAt      time.Time                  `json:"processedAt"`
	ProcessingStatus constants.ProcessingStatus `json:"processingStatus"`
	AIConfidence     *int                       `json:"aiConfidence"`
}

// BuildJSON assembles the export document. The extracted text is included
// only when asked for.
func BuildJSON(rec *entity.ResumeRecord, includeText bool) Document {
	doc := Document{
		Metadata: Metadata{
			FileName:         rec.OriginalFileName,
			UploadedAt:       rec.CreatedAt,
			ProcessedAt:      rec.UpdatedAt,
			ProcessingStatus: rec.Status,
			AIConfidence:     rec.AIConfidence,
		},
		ParsedData: rec.ParsedData.Normalized(),
	}
	if includeText {
		text := rec.ExtractedText
		doc.RawText = &text
	}
	return doc
}

// AttachmentName is the download file name for a record's JSON export.
func AttachmentName(rec *entity.ResumeRecord) string {
	name := strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, rec.OriginalFileName)
	if name == "" {
		name = rec.ID.String()
	}
	return name + ".json"
}
