package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"research_copilot_go_backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrPaperNotFound = errors.New("paper not found")

const PapersCollection = "papers"

type paperDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Summary     string             `bson:"summary"`
	Citations   []string           `bson:"citations"`
	Keywords    []string           `bson:"keywords"`
	Methodology string             `bson:"methodology,omitempty"`
	FileName    string             `bson:"fileName"`
	FileSize    int64              `bson:"fileSize"`
	FileData    []byte             `bson:"fileData,omitempty"`
	ContentType string             `bson:"contentType"`
	PageCount   int                `bson:"pageCount"`
	UploadDate  time.Time          `bson:"uploadDate"`
}

func (d *paperDocument) toModel() models.Paper {
	return models.Paper{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Summary:     d.Summary,
		Citations:   d.Citations,
		Keywords:    d.Keywords,
		Methodology: d.Methodology,
		FileName:    d.FileName,
		FileSize:    d.FileSize,
		FileData:    d.FileData,
		ContentType: d.ContentType,
		PageCount:   d.PageCount,
		UploadDate:  d.UploadDate,
	}
}

// MongoPaperService stores papers, file bytes included, in one collection.
type MongoPaperService struct {
	col *mongo.Collection
}

func NewMongoPaperService(db *mongo.Database) *MongoPaperService {
	return &MongoPaperService{col: db.Collection(PapersCollection)}
}

// EnsureIndexes creates the index backing the newest-first listing.
func (s *MongoPaperService) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "uploadDate", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create uploadDate index: %w", err)
	}
	return nil
}

func (s *MongoPaperService) CreatePaper(ctx context.Context, paper *models.Paper) error {
	doc := paperDocument{
		Title:       paper.Title,
		Summary:     paper.Summary,
		Citations:   paper.Citations,
		Keywords:    paper.Keywords,
		Methodology: paper.Methodology,
		FileName:    paper.FileName,
		FileSize:    paper.FileSize,
		FileData:    paper.FileData,
		ContentType: paper.ContentType,
		PageCount:   paper.PageCount,
		UploadDate:  paper.UploadDate,
	}

	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	paper.ID = oid.Hex()
	return nil
}

func (s *MongoPaperService) GetPaperByID(ctx context.Context, id string) (*models.Paper, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrPaperNotFound
	}

	var doc paperDocument
	opts := options.FindOne().SetProjection(bson.M{"fileData": 0})
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("find paper: %w", err)
	}
	paper := doc.toModel()
	return &paper, nil
}

func (s *MongoPaperService) GetPaperFile(ctx context.Context, id string) (*models.PaperFile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrPaperNotFound
	}

	var doc paperDocument
	opts := options.FindOne().SetProjection(bson.M{"fileName": 1, "contentType": 1, "fileData": 1})
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("find paper file: %w", err)
	}
	return &models.PaperFile{FileName: doc.FileName, ContentType: doc.ContentType, Data: doc.FileData}, nil
}

func (s *MongoPaperService) ListPapers(ctx context.Context, filter PaperFilter) ([]models.Paper, error) {
	query := bson.M{}
	if q := strings.TrimSpace(filter.Query); q != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		query = bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"keywords": re},
		}}
	}

	opts := options.Find().
		SetProjection(bson.M{"fileData": 0}).
		SetSort(bson.D{{Key: "uploadDate", Value: -1}})
	cur, err := s.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer cur.Close(ctx)

	papers := []models.Paper{}
	for cur.Next(ctx) {
		var doc paperDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode paper: %w", err)
		}
		papers = append(papers, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate papers: %w", err)
	}
	return papers, nil
}

// matchesFilter is the in-process equivalent of the store-side query filter.
func matchesFilter(p *models.Paper, filter PaperFilter) bool {
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Title), q) {
		return true
	}
	for _, k := range p.Keywords {
		if strings.Contains(strings.ToLower(k), q) {
			return true
		}
	}
	return false
}
