package services

import (
	"context"
	"sort"
	"sync"

	"research_copilot_go_backend/internal/models"

	"github.com/google/uuid"
)

// MemoryPaperService keeps papers in a map. Used for STORE_DRIVER=memory and
// in tests.
type MemoryPaperService struct {
	mu     sync.RWMutex
	papers map[string]models.Paper
}

func NewMemoryPaperService() *MemoryPaperService {
	return &MemoryPaperService{papers: make(map[string]models.Paper)}
}

func (m *MemoryPaperService) CreatePaper(ctx context.Context, paper *models.Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if paper.ID == "" {
		paper.ID = uuid.NewString()
	}
	stored := *paper
	stored.FileData = append([]byte(nil), paper.FileData...)
	m.papers[paper.ID] = stored
	return nil
}

func (m *MemoryPaperService) GetPaperByID(ctx context.Context, id string) (*models.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.papers[id]
	if !ok {
		return nil, ErrPaperNotFound
	}
	p.FileData = nil
	return &p, nil
}

func (m *MemoryPaperService) GetPaperFile(ctx context.Context, id string) (*models.PaperFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.papers[id]
	if !ok {
		return nil, ErrPaperNotFound
	}
	return &models.PaperFile{FileName: p.FileName, ContentType: p.ContentType, Data: p.FileData}, nil
}

func (m *MemoryPaperService) ListPapers(ctx context.Context, filter PaperFilter) ([]models.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Paper, 0, len(m.papers))
	for _, p := range m.papers {
		if !matchesFilter(&p, filter) {
			continue
		}
		p.FileData = nil
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UploadDate.Equal(out[j].UploadDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].UploadDate.After(out[j].UploadDate)
	})
	return out, nil
}

// Count is used by tests to assert on inserts.
func (m *MemoryPaperService) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.papers)
}
