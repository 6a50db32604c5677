package services

import (
	"context"
	"io"
	"time"

	"research_copilot_go_backend/internal/models"

	"github.com/google/generative-ai-go/genai"
)

// ExtractedDocument is what a TextExtractor returns for one PDF.
type ExtractedDocument struct {
	Text      string
	PageCount int
}

type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (ExtractedDocument, error)
}

// Summarizer returns the model's raw reply. The text is untrusted and is
// unwrapped and validated by the pipeline.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// ContentGenerator is the slice of *genai.GenerativeModel the summarizer uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type PaperFilter struct {
	// Query matches title or any keyword, case-insensitively. Empty means all.
	Query string
}

type PaperServiceDB interface {
	CreatePaper(ctx context.Context, paper *models.Paper) error
	GetPaperByID(ctx context.Context, id string) (*models.Paper, error)
	GetPaperFile(ctx context.Context, id string) (*models.PaperFile, error)
	ListPapers(ctx context.Context, filter PaperFilter) ([]models.Paper, error)
}

type CloudStorageManager interface {
	UploadFile(ctx context.Context, objectName string, content io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, objectName string, expires time.Duration) (string, error)
}

type ProgressPublisher interface {
	Publish(topic string, msg interface{})
}
