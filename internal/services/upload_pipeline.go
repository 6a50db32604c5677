package services

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"research_copilot_go_backend/internal/errors"
	"research_copilot_go_backend/internal/metrics"
	"research_copilot_go_backend/internal/models"
	"research_copilot_go_backend/internal/utils/aijson"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxInputChars = 12000
	untitled             = "Untitled"
)

type Stage string

const (
	StageReceived    Stage = "received"
	StageExtracting  Stage = "extracting"
	StageSummarizing Stage = "summarizing"
	StageSaving      Stage = "saving"
	StageCompleted   Stage = "completed"
	StageFailed      Stage = "failed"
)

// ProgressEvent is published to UploadTopic(uploadID) as the pipeline runs.
type ProgressEvent struct {
	UploadID  string    `json:"uploadId"`
	Stage     Stage     `json:"stage"`
	PaperID   string    `json:"paperId,omitempty"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func UploadTopic(uploadID string) string {
	return "upload_" + uploadID
}

type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte
	// UploadID is optional; when set, progress events are published for it.
	UploadID string
}

type PipelineConfig struct {
	MaxInputChars int
	// ObjectPrefix is where mirrored PDFs go in the object store.
	ObjectPrefix string
}

type UploadPipeline struct {
	extractor  TextExtractor
	summarizer Summarizer
	store      PaperServiceDB
	mirror     CloudStorageManager
	progress   ProgressPublisher
	cfg        PipelineConfig
	now        func() time.Time
}

type PipelineOption func(*UploadPipeline)

func WithMirror(mirror CloudStorageManager) PipelineOption {
	return func(p *UploadPipeline) { p.mirror = mirror }
}

func WithProgress(progress ProgressPublisher) PipelineOption {
	return func(p *UploadPipeline) { p.progress = progress }
}

func WithClock(now func() time.Time) PipelineOption {
	return func(p *UploadPipeline) { p.now = now }
}

func NewUploadPipeline(extractor TextExtractor, summarizer Summarizer, store PaperServiceDB, cfg PipelineConfig, opts ...PipelineOption) *UploadPipeline {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.ObjectPrefix == "" {
		cfg.ObjectPrefix = "papers/"
	}
	p := &UploadPipeline{
		extractor:  extractor,
		summarizer: summarizer,
		store:      store,
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one upload from validation to persistence. It returns either
// the stored record or an *errors.CustomError describing which step failed.
func (p *UploadPipeline) Process(ctx context.Context, in UploadInput) (paper *models.Paper, err error) {
	logger := log.Ctx(ctx).With().Str("file_name", in.FileName).Int("file_size", len(in.Data)).Logger()
	p.publish(in.UploadID, StageReceived, nil, nil)

	defer func() {
		if err != nil {
			metrics.UploadsTotal.WithLabelValues(string(errors.TypeOf(err))).Inc()
			p.publish(in.UploadID, StageFailed, nil, err)
			logger.Warn().Err(err).Msg("Upload pipeline failed")
			return
		}
		metrics.UploadsTotal.WithLabelValues("ok").Inc()
		p.publish(in.UploadID, StageCompleted, paper, nil)
	}()

	if err := validateUpload(in); err != nil {
		return nil, err
	}

	p.publish(in.UploadID, StageExtracting, nil, nil)
	doc, err := timed("extract", func() (ExtractedDocument, error) {
		return p.extractor.ExtractText(ctx, in.Data)
	})
	if err != nil {
		return nil, errors.NewExtractionError(err)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, errors.NewEmptyDocumentError()
	}

	text := Truncate(doc.Text, p.cfg.MaxInputChars)

	p.publish(in.UploadID, StageSummarizing, nil, nil)
	reply, err := timed("summarize", func() (string, error) {
		return p.summarizer.Summarize(ctx, text)
	})
	if err != nil {
		return nil, errors.NewSummarizationError(err)
	}

	result, err := ParseSummary(reply)
	if err != nil {
		return nil, err
	}

	paper = &models.Paper{
		Title:       TitleFromFileName(in.FileName),
		Summary:     result.Summary,
		Citations:   result.Citations,
		Keywords:    result.Keywords,
		Methodology: result.Methodology,
		FileName:    in.FileName,
		FileSize:    int64(len(in.Data)),
		FileData:    in.Data,
		ContentType: models.PDFContentType,
		PageCount:   doc.PageCount,
		UploadDate:  p.now().UTC(),
	}

	p.publish(in.UploadID, StageSaving, nil, nil)
	if _, err := timed("persist", func() (struct{}, error) {
		return struct{}{}, p.store.CreatePaper(ctx, paper)
	}); err != nil {
		return nil, errors.NewPersistenceError(err)
	}

	p.mirrorPDF(ctx, logger, paper)
	logger.Info().Str("paper_id", paper.ID).Int("pages", paper.PageCount).Msg("Paper processed")

	return paper, nil
}

func validateUpload(in UploadInput) error {
	if len(in.Data) == 0 || in.FileName == "" {
		return errors.NewMissingFileError("No file uploaded")
	}

	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	switch contentType {
	case models.PDFContentType:
		return nil
	case "", "application/octet-stream":
		if strings.EqualFold(filepath.Ext(in.FileName), ".pdf") {
			return nil
		}
	}
	return errors.NewInvalidFileTypeError(in.ContentType)
}

// mirrorPDF copies the stored bytes to the object store. The database copy
// is authoritative, so failures are only logged.
func (p *UploadPipeline) mirrorPDF(ctx context.Context, logger zerolog.Logger, paper *models.Paper) {
	if p.mirror == nil {
		return
	}
	objectName := p.ObjectName(paper.ID)
	if err := p.mirror.UploadFile(ctx, objectName, bytes.NewReader(paper.FileData), paper.FileSize, paper.ContentType); err != nil {
		logger.Error().Err(err).Str("object", objectName).Msg("Failed to mirror PDF to object storage")
	}
}

func (p *UploadPipeline) ObjectName(paperID string) string {
	return p.cfg.ObjectPrefix + paperID + ".pdf"
}

func (p *UploadPipeline) publish(uploadID string, stage Stage, paper *models.Paper, err error) {
	if p.progress == nil || uploadID == "" {
		return
	}
	event := ProgressEvent{UploadID: uploadID, Stage: stage, Timestamp: p.now().UTC()}
	if paper != nil {
		event.PaperID = paper.ID
	}
	if err != nil {
		event.Code = string(errors.TypeOf(err))
		event.Message = err.Error()
	}
	p.progress.Publish(UploadTopic(uploadID), event)
}

func timed[T any](stage string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	metrics.PipelineStageSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return v, err
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func TitleFromFileName(fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	title := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if title == "" || title == "." || title == "/" {
		return untitled
	}
	return title
}

// ParseSummary unwraps a raw model reply and normalizes its fields.
func ParseSummary(reply string) (*models.SummaryResult, error) {
	obj, err := aijson.Unwrap(reply)
	if err != nil {
		return nil, errors.NewAIResponseFormatError(err)
	}
	return NormalizeSummary(obj)
}

func NormalizeSummary(obj map[string]any) (*models.SummaryResult, error) {
	summary, ok := obj["summary"].(string)
	if !ok || strings.TrimSpace(summary) == "" {
		return nil, errors.NewMissingSummaryError()
	}

	result := &models.SummaryResult{
		Summary:   summary,
		Citations: stringArray(obj["citations"]),
		Keywords:  stringArray(obj["keywords"]),
	}
	if methodology, ok := obj["methodology"].(string); ok {
		result.Methodology = methodology
	}
	return result, nil
}

// stringArray keeps only the string elements of v; anything that is not an
// array becomes an empty slice.
func stringArray(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
