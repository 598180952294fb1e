package extract

import (
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// extractPlainText reads the file as UTF-8, retrying with a permissive
// single-byte decode when the content is not valid UTF-8. The method label
// distinguishes the txt path from the unknown-type best-effort path.
func (e *Extractor) extractPlainText(path, method string) Result {
	raw, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("plain read failed", "path", path, "error", err)
		return Result{Method: method, Warnings: []string{err.Error()}}
	}

	if utf8.Valid(raw) {
		return Result{Text: string(raw), Method: method, Pages: 1}
	}

	// ISO 8859-1 accepts every byte, so this decode cannot fail.
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return Result{Method: method, Warnings: []string{err.Error()}}
	}
	return Result{
		Text:     string(decoded),
		Method:   method,
		Pages:    1,
		Warnings: []string{"not valid UTF-8; decoded as ISO 8859-1"},
	}
}
