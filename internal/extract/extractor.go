package extract

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/edtechlab/homework-controller/constants"
)

// Extraction methods recorded on Result.
const (
	MethodTextLayer     = "text-layer"
	MethodOCRImage      = "ocr-image"
	MethodOCRRasterized = "ocr-rasterized-pdf"
	MethodPlainRead     = "plain-read"
	MethodUnsupported   = "unsupported"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	// Languages is the tesseract language specifier (e.g. "tur+eng+rus+kaz").
	// Passed through unmodified; never validated here.
	Languages string
	// FallbackLanguage is tried once when the multi-language model fails,
	// typically because a language pack is missing. Default "eng".
	FallbackLanguage string

	DPI      int // rasterization DPI for scanned PDFs, default 300
	MaxPages int // 0 = no limit

	// BinarizeThreshold is the fixed luminance cut for image preprocessing.
	BinarizeThreshold uint8
}

// Result is the outcome of one extraction. Extraction never fails outright:
// every cascade stage degrades to empty text and the zero Result is valid.
type Result struct {
	Text     string
	Method   string
	Pages    int
	Duration time.Duration
	Warnings []string
}

// IsEmpty reports whether the recovered text is empty or whitespace-only.
func (r Result) IsEmpty() bool {
	return strings.TrimSpace(r.Text) == ""
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = "eng"
	}
	if cfg.FallbackLanguage == "" {
		cfg.FallbackLanguage = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.BinarizeThreshold == 0 {
		cfg.BinarizeThreshold = 180
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Extract recovers text from the file at path. Dispatch is by extension
// first, declared MIME type second. It is total: any stage failure degrades
// to an empty result rather than an error.
func (e *Extractor) Extract(ctx context.Context, path, declaredMIME string) Result {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	format := constants.MapExtToFormat(ext)
	if format == "" {
		format = formatFromMIME(declaredMIME)
	}
	e.logger.Debug("extract.start", "path", path, "ext", ext, "format", string(format))

	var res Result
	switch format {
	case constants.TXT:
		res = e.extractPlainText(path, MethodPlainRead)
	case constants.DOCX:
		res = e.extractDocx(path)
	case constants.PDF:
		res = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res = e.extractImage(ctx, path)
	default:
		// Unrecognized type: best-effort plain decode.
		res = e.extractPlainText(path, MethodUnsupported)
	}
	res.Duration = time.Since(start)

	e.logger.Debug("extract.done",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"bytes", len(res.Text),
		"empty", res.IsEmpty(),
	)
	return res
}

func formatFromMIME(mime string) constants.Format {
	switch {
	case mime == constants.MIMEPDF:
		return constants.PDF
	case mime == constants.MIMEDocx:
		return constants.DOCX
	case strings.HasPrefix(mime, "image/"):
		return constants.IMAGE
	case strings.HasPrefix(mime, "text/"):
		return constants.TXT
	}
	return ""
}
