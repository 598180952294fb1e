// Package langid identifies the dominant language of extracted submission
// text, used as a report column.
package langid

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// minTextLen below which detection is too unreliable to report.
const minTextLen = 20

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// Detect returns a lowercase ISO 639-1 code for the dominant language of
// text, or "" when the text is too short or detection is inconclusive.
// The detector is restricted to the languages the batch actually sees.
func Detect(text string) string {
	text = strings.TrimSpace(text)
	if len(text) < minTextLen {
		return ""
	}
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.Turkish,
				lingua.English,
				lingua.Russian,
				lingua.Kazakh,
			).
			Build()
	})
	lang, ok := detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
