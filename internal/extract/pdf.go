package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// extractPDF tries the structured text layer first and falls back to
// rasterize+OCR only when the layer is empty. Native extraction is far
// cheaper than rendering pages, so the order is fixed.
func (e *Extractor) extractPDF(ctx context.Context, path string) Result {
	text, pages, warns, err := e.pdfTextLayer(ctx, path)
	if err == nil && strings.TrimSpace(text) != "" {
		return Result{Text: text, Method: MethodTextLayer, Pages: pages, Warnings: warns}
	}
	if err != nil {
		warns = append(warns, err.Error())
	}

	ocrText, ocrPages, ocrWarns, err := e.pdfOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	if err != nil {
		warns = append(warns, err.Error())
		return Result{Method: MethodOCRRasterized, Warnings: warns}
	}
	return Result{Text: ocrText, Method: MethodOCRRasterized, Pages: ocrPages, Warnings: warns}
}

func (e *Extractor) pdfTextLayer(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// A form-feed \f is used as page separator by default
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}

// pdfOCR renders every page at the configured DPI and OCRs them in page
// order, joining per-page text with newlines.
func (e *Extractor) pdfOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "hc-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("temp dir cleanup failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	return b.String(), len(matches), warns, nil
}
