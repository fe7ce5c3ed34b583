package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingest/constants"
)

// ResumeRecord represents a persisted upload and its processing results.
type ResumeRecord struct {
	ID               uuid.UUID                  `json:"id"`
	OwnerID          *uuid.UUID                 `json:"owner_id,omitempty"`
	FileName         string                     `json:"file_name"`
	OriginalFileName string                     `json:"original_file_name"`
	StorageKey       string                     `json:"storage_key"`
	FileSize         int64                      `json:"file_size"`
	MediaType        constants.MediaType        `json:"media_type"`
	ExtractedText    string                     `json:"extracted_text"`
	ParsedData       ParsedData                 `json:"parsed_data"`
	Status           constants.ProcessingStatus `json:"processing_status"`
	ProcessingError  *string                    `json:"processing_error,omitempty"`
	AIConfidence     *int                       `json:"ai_confidence,omitempty"`
	AIRawResponse    *string                    `json:"ai_raw_response,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// ResumeSummary is the list/response view of a record; it omits the raw text.
type ResumeSummary struct {
	ID               uuid.UUID                  `json:"id"`
	FileName         string                     `json:"file_name"`
	OriginalFileName string                     `json:"original_file_name"`
	FileSize         int64                      `json:"file_size"`
	Status           constants.ProcessingStatus `json:"processing_status"`
	ProcessingError  *string                    `json:"processing_error,omitempty"`
	AIConfidence     *int                       `json:"ai_confidence,omitempty"`
	ParsedData       ParsedData                 `json:"parsed_data"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

func (r *ResumeRecord) Summary() ResumeSummary {
	return ResumeSummary{
		ID:               r.ID,
		FileName:         r.FileName,
		OriginalFileName: r.OriginalFileName,
		FileSize:         r.FileSize,
		Status:           r.Status,
		ProcessingError:  r.ProcessingError,
		AIConfidence:     r.AIConfidence,
		ParsedData:       r.ParsedData,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// ResumeFilter narrows a listing. A nil OwnerID lists every owner.
type ResumeFilter struct {
	OwnerID *uuid.UUID
	Status  *constants.ProcessingStatus
	Search  string
	Page    int
	Limit   int
}

// Offset returns the zero-based row offset for Page/Limit (Page is 1-based).
func (f ResumeFilter) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// ResumeStats are the admin dashboard counters.
type ResumeStats struct {
	Total      int `json:"total"`
	Uploaded   int `json:"uploaded"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Recent     int `json:"recent"`
}
