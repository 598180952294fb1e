package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// extractImage preprocesses the raster image and OCRs the cleaned copy.
// If the multi-language model fails (typically a missing language pack),
// OCR is retried once against the fallback language.
func (e *Extractor) extractImage(ctx context.Context, path string) Result {
	ocrPath := path
	var warns []string

	cleaned, cleanup, err := e.preprocessToPNG(path)
	if err != nil {
		e.logger.Warn("image preprocess failed", "path", path, "error", err)
		return Result{Method: MethodOCRImage, Warnings: []string{err.Error()}}
	}
	defer cleanup()
	ocrPath = cleaned

	text, w, err := e.tesseractOCR(ctx, ocrPath)
	warns = append(warns, w...)
	if err != nil {
		warns = append(warns, err.Error())
		return Result{Method: MethodOCRImage, Warnings: warns}
	}
	return Result{Text: text, Method: MethodOCRImage, Pages: 1, Warnings: warns}
}

// tesseractOCR runs tesseract against the configured language specifier,
// retrying once with the fallback language before giving up.
func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.Languages)
	if err == nil {
		return string(out), nil, nil
	}
	warns := []string{string(errb)}
	if e.cfg.FallbackLanguage == "" || e.cfg.FallbackLanguage == e.cfg.Languages {
		return "", warns, fmt.Errorf("tesseract: %w", err)
	}

	e.logger.Warn("ocr retry with fallback language",
		"path", path, "lang", e.cfg.Languages, "fallback", e.cfg.FallbackLanguage)
	out, errb, err = e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.FallbackLanguage)
	if err != nil {
		warns = append(warns, string(errb))
		return "", warns, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), warns, nil
}

// preprocessToPNG writes the cleaned-up form of the image to a temp PNG and
// returns its path with a cleanup func.
func (e *Extractor) preprocessToPNG(path string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "hc-img-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	out := filepath.Join(tmpDir, "clean.png")
	if err := preprocessFile(path, out, e.cfg.BinarizeThreshold); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("preprocess %s: %w", filepath.Base(path), err)
	}
	return out, cleanup, nil
}
