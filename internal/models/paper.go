package models

import "time"

const PDFContentType = "application/pdf"

// Paper is the single persisted record type. FileData never leaves the
// server as JSON; it is only served raw through the download route.
type Paper struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string    `json:"title" gorm:"not null"`
	Summary     string    `json:"summary" gorm:"type:text;not null"`
	Citations   []string  `json:"citations" gorm:"type:jsonb;serializer:json"`
	Keywords    []string  `json:"keywords" gorm:"type:jsonb;serializer:json"`
	Methodology string    `json:"methodology,omitempty" gorm:"type:text"`
	FileName    string    `json:"fileName" gorm:"not null"`
	FileSize    int64     `json:"fileSize" gorm:"not null"`
	FileData    []byte    `json:"-" gorm:"type:bytea;not null"`
	ContentType string    `json:"contentType"`
	PageCount   int       `json:"pageCount"`
	UploadDate  time.Time `json:"uploadDate" gorm:"index;not null"`
}

// PaperFile is what the download route needs: bytes plus enough metadata
// to build the response headers.
type PaperFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// SummaryResult is the normalized shape of a model reply.
type SummaryResult struct {
	Summary     string   `json:"summary"`
	Citations   []string `json:"citations"`
	Keywords    []string `json:"keywords"`
	Methodology string   `json:"methodology,omitempty"`
}
