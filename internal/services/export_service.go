package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"research_copilot_go_backend/internal/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/nickng/bibtex"
)

var citeKeyCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// ExportService renders a stored paper into downloadable formats.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// SummaryPDF lays out title, metadata, summary, methodology, keywords and
// citations on A4 pages.
func (s *ExportService) SummaryPDF(paper *models.Paper) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(paper.Title, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 9, tr(paper.Title), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s  |  uploaded %s", paper.FileName, paper.UploadDate.Format("2006-01-02 15:04 MST"))), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section := func(heading, body string) {
		if strings.TrimSpace(body) == "" {
			return
		}
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 8, heading, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, tr(body), "", "L", false)
		pdf.Ln(3)
	}

	section("Summary", paper.Summary)
	section("Methodology", paper.Methodology)
	section("Keywords", strings.Join(paper.Keywords, ", "))

	if len(paper.Citations) > 0 {
		var sb strings.Builder
		for i, c := range paper.Citations {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
		}
		section("Key Citations", strings.TrimSuffix(sb.String(), "\n"))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render summary PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// CitationsBibTeX emits one @misc entry per extracted citation, keyed on the
// paper title, with the paper's keywords attached.
func (s *ExportService) CitationsBibTeX(paper *models.Paper) string {
	bib := bibtex.NewBibTex()
	base := citeKeyBase(paper.Title)
	keywords := strings.Join(paper.Keywords, ", ")

	for i, citation := range paper.Citations {
		entry := bibtex.NewBibEntry("misc", fmt.Sprintf("%s%d", base, i+1))
		entry.AddField("title", bibValue(paper.Title))
		entry.AddField("note", bibValue(citation))
		entry.AddField("year", bibtex.NewBibConst(paper.UploadDate.Format("2006")))
		if keywords != "" {
			entry.AddField("keywords", bibValue(keywords))
		}
		bib.AddEntry(entry)
	}
	return bib.PrettyString()
}

func citeKeyBase(title string) string {
	key := strings.Trim(citeKeyCleaner.ReplaceAllString(strings.ToLower(title), "_"), "_")
	if key == "" {
		return "paper"
	}
	if len(key) > 40 {
		key = strings.TrimRight(key[:40], "_")
	}
	return key
}

// bibValue braces the value so multi-word text survives as one field.
func bibValue(s string) bibtex.BibConst {
	escaped := strings.NewReplacer("{", `\{`, "}", `\}`, "%", `\%`, "&", `\&`).Replace(s)
	return bibtex.NewBibConst("{" + escaped + "}")
}
