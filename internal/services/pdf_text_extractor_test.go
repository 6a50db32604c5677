package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPDF(pages ...string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	for _, content := range pages {
		pdf.AddPage()
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(40, 10, content)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	return buf.Bytes(), err
}

func TestPDFTextExtractor_ExtractText(t *testing.T) {
	data, err := createTestPDF("Deep learning improves NLP", "Second page results")
	require.NoError(t, err)

	doc, err := NewPDFTextExtractor().ExtractText(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 2, doc.PageCount)
	assert.Contains(t, doc.Text, "Deep learning improves NLP")
	assert.Contains(t, doc.Text, "Second page results")
}

func TestPDFTextExtractor_BlankPageYieldsEmptyText(t *testing.T) {
	data, err := createTestPDF("")
	require.NoError(t, err)

	doc, err := NewPDFTextExtractor().ExtractText(context.Background(), data)
	require.NoError(t, err)
	assert.Empty(t, bytes.TrimSpace([]byte(doc.Text)))
}

func TestPDFTextExtractor_RejectsGarbage(t *testing.T) {
	extractor := NewPDFTextExtractor()

	_, err := extractor.ExtractText(context.Background(), []byte("this is not a pdf"))
	assert.Error(t, err)

	_, err = extractor.ExtractText(context.Background(), nil)
	assert.Error(t, err)
}

func TestPDFTextExtractor_TruncatedPDFDoesNotPanic(t *testing.T) {
	data, err := createTestPDF("will be cut")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		_, err = NewPDFTextExtractor().ExtractText(context.Background(), data[:len(data)/2])
	})
	assert.Error(t, err)
}
