package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"research_copilot_go_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaperService is the Postgres-backed store, selected with STORE_DRIVER=postgres.
type GormPaperService struct {
	db *gorm.DB
}

func NewGormPaperService(db *gorm.DB) *GormPaperService {
	return &GormPaperService{db: db}
}

func (s *GormPaperService) CreatePaper(ctx context.Context, paper *models.Paper) error {
	if paper.ID == "" {
		paper.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(paper).Error; err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}
	return nil
}

func (s *GormPaperService) GetPaperByID(ctx context.Context, id string) (*models.Paper, error) {
	var paper models.Paper
	err := s.db.WithContext(ctx).Omit("file_data").Where("id = ?", id).First(&paper).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find paper: %w", err)
	}
	return &paper, nil
}

func (s *GormPaperService) GetPaperFile(ctx context.Context, id string) (*models.PaperFile, error) {
	var paper models.Paper
	err := s.db.WithContext(ctx).Select("file_name", "content_type", "file_data").Where("id = ?", id).First(&paper).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find paper file: %w", err)
	}
	return &models.PaperFile{FileName: paper.FileName, ContentType: paper.ContentType, Data: paper.FileData}, nil
}

func (s *GormPaperService) ListPapers(ctx context.Context, filter PaperFilter) ([]models.Paper, error) {
	query := s.db.WithContext(ctx).Omit("file_data").Order("upload_date desc")
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + escapeLike(q) + "%"
		query = query.Where(
			"title ILIKE ? OR EXISTS (SELECT 1 FROM jsonb_array_elements_text(keywords) AS k WHERE k ILIKE ?)",
			like, like,
		)
	}

	papers := []models.Paper{}
	if err := query.Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	return papers, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
