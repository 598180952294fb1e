// Package batch runs the end-to-end grading pipeline: list the source
// folder, filter and cap, then per item download, extract, parse identity
// and grade. One bad item never aborts the run; it is recorded as a skip
// and the batch moves on. A cross-item similarity pass and the report
// workbooks close the run.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/edtechlab/homework-controller/constants"
	"github.com/edtechlab/homework-controller/internal/common"
	"github.com/edtechlab/homework-controller/internal/drive"
	"github.com/edtechlab/homework-controller/internal/extract"
	"github.com/edtechlab/homework-controller/internal/grader"
	"github.com/edtechlab/homework-controller/internal/langid"
	"github.com/edtechlab/homework-controller/internal/meta"
	"github.com/edtechlab/homework-controller/internal/report"
	"github.com/edtechlab/homework-controller/internal/similarity"
)

// Source lists and downloads submissions.
type Source interface {
	ListFolder(ctx context.Context, folderID string) ([]drive.Item, error)
	Download(ctx context.Context, fileID, destPath string) error
}

// Uploader publishes finished reports.
type Uploader interface {
	Upload(ctx context.Context, localPath, name, mimeType, parentFolderID string) (drive.UploadResult, error)
}

// Extractor recovers text from a downloaded file.
type Extractor interface {
	Extract(ctx context.Context, path, declaredMIME string) extract.Result
}

// ReportWriter renders the grading and similarity workbooks.
type ReportWriter interface {
	WriteGradingReport(rows []report.Row) (string, error)
	WriteSimilarityReport(pairs []similarity.Pair) (string, error)
}

// SkipRecord names one item the run passed over and why.
type SkipRecord struct {
	ItemName string
	Reason   string
}

// RunStats are the per-stage counters of one run.
type RunStats struct {
	Found      int
	Allowed    int
	Downloaded int
	Extracted  int
	Evaluated  int
	Skipped    []SkipRecord
}

// Summary is the outcome of one batch run.
type Summary struct {
	Rows         int
	ReportPath   string
	ReportLink   string
	SimilarPairs []similarity.Pair
	Stats        RunStats
	Duration     time.Duration
}

type Orchestrator struct {
	cfg       common.Config
	source    Source
	uploader  Uploader
	extractor Extractor
	grader    grader.Grader
	reports   ReportWriter
	logger    *slog.Logger
}

func NewOrchestrator(
	cfg common.Config,
	source Source,
	uploader Uploader,
	extractor Extractor,
	g grader.Grader,
	reports ReportWriter,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:       cfg,
		source:    source,
		uploader:  uploader,
		extractor: extractor,
		grader:    g,
		reports:   reports,
		logger:    logger,
	}
}

// Run executes one batch. limit caps processed items; 0 falls back to the
// configured MaxFilesPerRun, and 0 there means no cap. Listing failure is the
// only per-run fatal error; per-item failures become skip records.
func (o *Orchestrator) Run(ctx context.Context, limit int) (Summary, error) {
	start := time.Now()
	var sum Summary

	items, err := o.source.ListFolder(ctx, o.cfg.Drive.SourceFolderID)
	if err != nil {
		return sum, common.NewAppError("LIST_ERROR", "listing source folder", err)
	}
	sum.Stats.Found = len(items)

	allowed := o.filterAllowed(items)
	sum.Stats.Allowed = len(allowed)

	if limit <= 0 {
		limit = o.cfg.MaxFilesPerRun
	}
	if limit > 0 && len(allowed) > limit {
		allowed = allowed[:limit]
	}

	o.logger.Info("batch.run.start",
		"found", sum.Stats.Found,
		"allowed", sum.Stats.Allowed,
		"processing", len(allowed),
	)

	workDir, err := os.MkdirTemp("", "hc-batch-*")
	if err != nil {
		return sum, common.NewAppError("IO_ERROR", "creating work directory", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			o.logger.Warn("work directory cleanup failed", "dir", workDir, "error", err)
		}
	}()

	var rows []report.Row
	var simItems []similarity.Item

	for i, it := range allowed {
		name := constants.NormalizeDownloadFilename(it.Name, it.MIMEType)
		localPath := filepath.Join(workDir, fmt.Sprintf("%03d_%s", i, filepath.Base(name)))

		if err := o.source.Download(ctx, it.ID, localPath); err != nil {
			o.skip(&sum.Stats, it.Name, fmt.Sprintf("download failed: %v", err))
			continue
		}
		sum.Stats.Downloaded++

		res := o.extractor.Extract(ctx, localPath, it.MIMEType)
		if res.IsEmpty() {
			o.skip(&sum.Stats, it.Name, "empty or unreadable text")
			continue
		}
		sum.Stats.Extracted++

		id := meta.ParseMeta(name, res.Text)
		displayName := id.FullName
		if displayName == "" {
			displayName = name
		}

		ev, err := o.grader.Evaluate(ctx, res.Text, name)
		if err != nil {
			o.skip(&sum.Stats, it.Name, fmt.Sprintf("grading failed: %v", err))
			continue
		}
		sum.Stats.Evaluated++

		rows = append(rows, report.Row{
			FirstName:   id.FirstName,
			LastName:    id.LastName,
			ClassLabel:  id.ClassLabel,
			Student:     displayName,
			FileName:    it.Name,
			FileID:      it.ID,
			DocLanguage: langid.Detect(res.Text),
			WordCount:   len(strings.Fields(res.Text)),
			Total:       ev.Total,
			Content:     ev.Breakdown.Content,
			Structure:   ev.Breakdown.Structure,
			Language:    ev.Breakdown.Language,
			Originality: ev.Breakdown.Originality,
			Feedback:    ev.Feedback,
		})
		simItems = append(simItems, similarity.Item{
			ID:   it.ID,
			Name: displayName + " (" + it.Name + ")",
			Text: capText(res.Text, o.cfg.Similarity.MaxTextLen),
		})

		o.logger.Info("batch.item.ok",
			"file", it.Name,
			"student", displayName,
			"method", res.Method,
			"total", ev.Total,
		)
	}

	if sum.Stats.Evaluated == 0 {
		sum.Duration = time.Since(start)
		o.logger.Warn("batch.run.empty",
			"found", sum.Stats.Found,
			"skipped", len(sum.Stats.Skipped),
		)
		return sum, nil
	}

	sum.SimilarPairs = similarity.FindSimilar(simItems, o.cfg.Similarity.Threshold)

	reportPath, err := o.reports.WriteGradingReport(rows)
	if err != nil {
		return sum, common.NewAppError("REPORT_ERROR", "writing grading report", err)
	}
	sum.Rows = len(rows)
	sum.ReportPath = reportPath

	simPath, err := o.reports.WriteSimilarityReport(sum.SimilarPairs)
	if err != nil {
		o.logger.Error("batch.similarity_report.error", "error", err)
	}

	if o.cfg.Drive.ReportsFolderID != "" && o.uploader != nil {
		sum.ReportLink = o.uploadReport(ctx, reportPath)
		if simPath != "" {
			o.uploadReport(ctx, simPath)
		}
	}

	sum.Duration = time.Since(start)
	o.logger.Info("batch.run.ok",
		"rows", sum.Rows,
		"similar_pairs", len(sum.SimilarPairs),
		"skipped", len(sum.Stats.Skipped),
		"report", sum.ReportPath,
		"elapsed_ms", sum.Duration.Milliseconds(),
	)
	return sum, nil
}

// filterAllowed keeps items whose effective extension is on the allow-list.
// Items listed without an extension are judged by their declared MIME type.
func (o *Orchestrator) filterAllowed(items []drive.Item) []drive.Item {
	allowed := o.cfg.AllowedExtensions
	if len(allowed) == 0 {
		allowed = constants.AllowedExtensions
	}
	set := make(map[string]struct{}, len(allowed))
	for _, e := range allowed {
		set[strings.ToLower(e)] = struct{}{}
	}

	var out []drive.Item
	for _, it := range items {
		ext := strings.ToLower(filepath.Ext(constants.NormalizeDownloadFilename(it.Name, it.MIMEType)))
		if _, ok := set[ext]; ok {
			out = append(out, it)
			continue
		}
		o.logger.Debug("batch.item.filtered", "file", it.Name, "ext", ext)
	}
	return out
}

func (o *Orchestrator) skip(stats *RunStats, name, reason string) {
	stats.Skipped = append(stats.Skipped, SkipRecord{ItemName: name, Reason: reason})
	o.logger.Warn("batch.item.skip", "file", name, "reason", reason)
}

func (o *Orchestrator) uploadReport(ctx context.Context, path string) string {
	res, err := o.uploader.Upload(ctx, path, filepath.Base(path), constants.MIMEXlsx, o.cfg.Drive.ReportsFolderID)
	if err != nil {
		o.logger.Error("batch.upload.error", "path", path, "error", err)
		return ""
	}
	return res.Link
}

// capText bounds a document's contribution to the pairwise pass, cutting on
// a rune boundary.
func capText(t string, max int) string {
	if max <= 0 {
		return t
	}
	r := []rune(t)
	if len(r) <= max {
		return t
	}
	return string(r[:max])
}
