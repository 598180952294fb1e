package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/edtechlab/homework-controller/internal/batch"
	"github.com/edtechlab/homework-controller/internal/common"
	"github.com/edtechlab/homework-controller/internal/drive"
	"github.com/edtechlab/homework-controller/internal/extract"
	"github.com/edtechlab/homework-controller/internal/grader/openai"
	"github.com/edtechlab/homework-controller/internal/meta"
	"github.com/edtechlab/homework-controller/internal/report"
)

func main() {
	app := &cli.App{
		Name:  "homework-batch",
		Usage: "grade a Google Drive folder of homework submissions",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Usage: "only log errors"},
			&cli.BoolFlag{Name: "debug", Usage: "verbose logging"},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run one grading batch over the source folder",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "max files to process (0 = configured default)"},
					&cli.StringFlag{Name: "folder", Usage: "source folder ID or URL (overrides env)"},
				},
				Action: runAction,
			},
			{
				Name:      "extract",
				Usage:     "extract text from one local file and print it",
				ArgsUsage: "<path>",
				Action:    extractAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if c.Bool("quiet") {
		level = slog.LevelError
	}
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func runAction(c *cli.Context) error {
	logger := newLogger(c)
	ctx := c.Context

	cfg := common.LoadConfig()
	if f := c.String("folder"); f != "" {
		cfg.Drive.SourceFolderID = drive.ParseFolderID(f)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	driveClient, err := drive.NewClient(ctx, drive.Config{
		CredentialsJSON: cfg.Drive.CredentialsJSON,
		AccessToken:     cfg.Drive.AccessToken,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize Drive client", "error", err)
		return err
	}

	extractor := extract.NewExtractor(extract.Config{
		Pdftotext: cfg.OCR.Pdftotext,
		Pdftoppm:  cfg.OCR.Pdftoppm,
		Tesseract: cfg.OCR.Tesseract,
		Languages: cfg.OCR.Languages,
		DPI:       cfg.OCR.DPI,
	}, logger)

	grader := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	reports := report.NewWriter(cfg.Report.OutputDir, cfg.Report.Prefix, logger)

	orch := batch.NewOrchestrator(cfg, driveClient, driveClient, extractor, grader, reports, logger)
	sum, err := orch.Run(ctx, c.Int("limit"))
	if err != nil {
		logger.Error("batch run failed", "error", err)
		return err
	}

	fmt.Printf("Batch complete!\n")
	fmt.Printf("- Found: %d, allowed: %d\n", sum.Stats.Found, sum.Stats.Allowed)
	fmt.Printf("- Graded: %d, skipped: %d\n", sum.Stats.Evaluated, len(sum.Stats.Skipped))
	for _, s := range sum.Stats.Skipped {
		fmt.Printf("  - %s: %s\n", s.ItemName, s.Reason)
	}
	fmt.Printf("- Similar pairs: %d\n", len(sum.SimilarPairs))
	if sum.ReportPath != "" {
		fmt.Printf("- Report: %s\n", sum.ReportPath)
	}
	if sum.ReportLink != "" {
		fmt.Printf("- Link: %s\n", sum.ReportLink)
	}
	return nil
}

func extractAction(c *cli.Context) error {
	logger := newLogger(c)

	path := c.Args().First()
	if path == "" {
		return cli.Exit("Error: a file path is required", 1)
	}

	cfg := common.LoadConfig()
	extractor := extract.NewExtractor(extract.Config{
		Pdftotext: cfg.OCR.Pdftotext,
		Pdftoppm:  cfg.OCR.Pdftoppm,
		Tesseract: cfg.OCR.Tesseract,
		Languages: cfg.OCR.Languages,
		DPI:       cfg.OCR.DPI,
	}, logger)

	res := extractor.Extract(c.Context, path, "")
	id := meta.ParseMeta(path, res.Text)

	logger.Info("extract complete",
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"student", id.FullName,
		"class", id.ClassLabel,
	)
	fmt.Println(res.Text)
	return nil
}
