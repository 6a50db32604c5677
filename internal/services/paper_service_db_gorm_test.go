package services

import (
	"context"
	"testing"

	"research_copilot_go_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// unreachableGorm returns a handle whose every query fails to connect.
func unreachableGorm(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1"), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestGormPaperService_WrapsStoreErrors(t *testing.T) {
	store := NewGormPaperService(unreachableGorm(t))
	ctx := context.Background()

	err := store.CreatePaper(ctx, &models.Paper{Title: "t", Summary: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert paper: ")

	_, err = store.GetPaperByID(ctx, "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPaperNotFound)
	assert.Contains(t, err.Error(), "find paper: ")

	_, err = store.GetPaperFile(ctx, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find paper file: ")

	_, err = store.ListPapers(ctx, PaperFilter{Query: "ml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list papers: ")
}
