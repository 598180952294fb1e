// Package report renders the grading and similarity workbooks and owns the
// collision-free naming of report files within the output directory.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/edtechlab/homework-controller/internal/similarity"
)

// Row is one graded submission in the grading report.
type Row struct {
	FirstName   string
	LastName    string
	ClassLabel  string
	Student     string
	FileName    string
	FileID      string
	DocLanguage string
	WordCount   int

	Total       int
	Content     int
	Structure   int
	Language    int
	Originality int
	Feedback    string
}

var gradingHeaders = []string{
	"first_name", "last_name", "class", "student", "file_name", "file_id",
	"doc_language", "word_count", "total", "content", "structure",
	"language", "originality", "feedback",
}

var similarityHeaders = []string{
	"file_a", "file_b", "combined(%)", "token_set(%)", "jaccard(%)",
	"ratio(%)", "partial(%)",
}

type Writer struct {
	outputDir string
	prefix    string
	logger    *slog.Logger

	// now is swappable in tests for deterministic dated names.
	now func() time.Time
}

func NewWriter(outputDir, prefix string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if outputDir == "" {
		outputDir = "outputs"
	}
	if prefix == "" {
		prefix = "grading-report"
	}
	return &Writer{outputDir: outputDir, prefix: prefix, logger: logger, now: time.Now}
}

// UniquePath returns the first free dated path for the given prefix:
// prefix_YYYY-MM-DD.xlsx, then prefix_YYYY-MM-DD_1.xlsx, _2, ...
// Probing is deterministic, so repeated same-day runs get increasing
// suffixes and never overwrite an earlier report.
func (w *Writer) UniquePath(prefix string) string {
	date := w.now().UTC().Format("2006-01-02")
	p := filepath.Join(w.outputDir, fmt.Sprintf("%s_%s.xlsx", prefix, date))
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p
	}
	for k := 1; ; k++ {
		cand := filepath.Join(w.outputDir, fmt.Sprintf("%s_%s_%d.xlsx", prefix, date, k))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

// WriteGradingReport writes the grading workbook and returns its path.
func (w *Writer) WriteGradingReport(rows []Row) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	const sheet = "Report"
	if err := prepareSheet(f, sheet, gradingHeaders); err != nil {
		return "", err
	}

	for i, r := range rows {
		values := []any{
			r.FirstName, r.LastName, r.ClassLabel, r.Student,
			r.FileName, r.FileID, r.DocLanguage, r.WordCount,
			r.Total, r.Content, r.Structure, r.Language, r.Originality,
			r.Feedback,
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return "", err
		}
	}

	_ = f.SetColWidth(sheet, "A", "F", 18)
	_ = f.SetColWidth(sheet, "G", "M", 12)
	_ = f.SetColWidth(sheet, "N", "N", 80) // feedback

	path := w.UniquePath(w.prefix)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("xlsx write: %w", err)
	}
	w.logger.Info("report.grading.ok", "path", path, "rows", len(rows))
	return path, nil
}

// WriteSimilarityReport writes the duplicate-pairs workbook and returns its
// path. Nothing is written for an empty pair list.
func (w *Writer) WriteSimilarityReport(pairs []similarity.Pair) (string, error) {
	if len(pairs) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	const sheet = "Plagiarism"
	if err := prepareSheet(f, sheet, similarityHeaders); err != nil {
		return "", err
	}

	for i, p := range pairs {
		values := []any{
			p.NameA, p.NameB,
			round2(p.Combined), round2(p.TokenSetRatio), round2(p.Jaccard3gram),
			round2(p.Ratio), round2(p.PartialRatio),
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return "", err
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 36)
	_ = f.SetColWidth(sheet, "C", "G", 14)

	path := w.UniquePath(w.prefix + "-similarity")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("xlsx write: %w", err)
	}
	w.logger.Info("report.similarity.ok", "path", path, "pairs", len(pairs))
	return path, nil
}

// prepareSheet renames the default sheet, writes the header row and applies
// the header style.
func prepareSheet(f *excelize.File, sheet string, headers []string) error {
	defaultSheet := f.GetSheetName(0)
	if defaultSheet != sheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return err
		}
	}
	if err := writeRow(f, sheet, 1, toAny(headers)); err != nil {
		return err
	}
	styleID, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4F81BD"}},
	})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, styleID)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
