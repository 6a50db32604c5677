package services

import (
	"context"
	stderrors "errors"
	"time"

	"research_copilot_go_backend/internal/errors"
	"research_copilot_go_backend/internal/models"
)

const paperNotFoundMessage = "Paper not found"

// PaperService serves the read side: list, get, download and share links.
type PaperService struct {
	db         PaperServiceDB
	storage    CloudStorageManager
	objectName func(paperID string) string
	linkTTL    time.Duration
	now        func() time.Time
}

func NewPaperService(db PaperServiceDB) *PaperService {
	return &PaperService{db: db, now: time.Now}
}

// WithShareLinks enables presigned download links for mirrored PDFs.
func (s *PaperService) WithShareLinks(storage CloudStorageManager, objectName func(string) string, ttl time.Duration) *PaperService {
	s.storage = storage
	s.objectName = objectName
	s.linkTTL = ttl
	return s
}

func (s *PaperService) ShareLinksEnabled() bool {
	return s.storage != nil
}

func (s *PaperService) ListPapers(ctx context.Context, filter PaperFilter) ([]models.Paper, error) {
	papers, err := s.db.ListPapers(ctx, filter)
	if err != nil {
		return nil, errors.New500Error(err)
	}
	if papers == nil {
		papers = []models.Paper{}
	}
	for i := range papers {
		ensureArrays(&papers[i])
	}
	return papers, nil
}

func (s *PaperService) GetPaper(ctx context.Context, id string) (*models.Paper, error) {
	paper, err := s.db.GetPaperByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	ensureArrays(paper)
	return paper, nil
}

func (s *PaperService) GetPaperFile(ctx context.Context, id string) (*models.PaperFile, error) {
	file, err := s.db.GetPaperFile(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	if file.ContentType == "" {
		file.ContentType = models.PDFContentType
	}
	return file, nil
}

// ShareLink returns a presigned URL for the mirrored copy of a paper.
func (s *PaperService) ShareLink(ctx context.Context, id string) (string, time.Time, error) {
	if s.storage == nil {
		return "", time.Time{}, errors.New404Error("Share links are not enabled")
	}
	if _, err := s.db.GetPaperByID(ctx, id); err != nil {
		return "", time.Time{}, lookupError(err)
	}

	url, err := s.storage.PresignedURL(ctx, s.objectName(id), s.linkTTL)
	if stderrors.Is(err, ErrObjectNotFound) {
		return "", time.Time{}, errors.New404Error("Paper file is not available in object storage")
	}
	if err != nil {
		return "", time.Time{}, errors.New500Error(err)
	}
	return url, s.now().Add(s.linkTTL).UTC(), nil
}

func lookupError(err error) error {
	if stderrors.Is(err, ErrPaperNotFound) {
		return errors.New404Error(paperNotFoundMessage)
	}
	return errors.New500Error(err)
}

func ensureArrays(p *models.Paper) {
	if p.Citations == nil {
		p.Citations = []string{}
	}
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
}
