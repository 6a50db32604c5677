package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// PDFTextExtractor validates uploads with pdfcpu and pulls plain text with
// ledongthuc/pdf, page by page.
type PDFTextExtractor struct {
	conf *model.Configuration
}

func NewPDFTextExtractor() *PDFTextExtractor {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFTextExtractor{conf: conf}
}

// ExtractText returns the concatenated page text. A document with no text
// layer yields an empty Text and no error; deciding what that means is left
// to the caller.
func (s *PDFTextExtractor) ExtractText(ctx context.Context, data []byte) (doc ExtractedDocument, err error) {
	// ledongthuc/pdf panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	if len(data) == 0 {
		return ExtractedDocument{}, fmt.Errorf("empty PDF payload")
	}

	pageCount, err := api.PageCount(bytes.NewReader(data), s.conf)
	if err != nil {
		return ExtractedDocument{}, fmt.Errorf("failed to validate PDF: %w", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ExtractedDocument{}, fmt.Errorf("failed to open PDF: %w", err)
	}

	var content strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return ExtractedDocument{}, err
		}

		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		content.WriteString(text)
		content.WriteString("\n\n")
	}

	return ExtractedDocument{Text: content.String(), PageCount: pageCount}, nil
}
