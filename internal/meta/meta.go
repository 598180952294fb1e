// Package meta recovers student identity fields (name, class label) from
// submission filenames and, when the filename is not enough, from a bounded
// prefix of the extracted body text.
//
// The rules are heuristic pattern matches over mixed Latin/Cyrillic/Turkish/
// Kazakh text; edge-case filenames can mismatch and that is accepted.
package meta

import (
	"path/filepath"
	"regexp"
	"strings"
)

// letters is the combined alphabet a class-section letter or name token may
// draw from: Latin, Cyrillic, Turkish and Kazakh letters.
const letters = `A-Za-zА-Яа-яЁёĞÜŞİÖÇğüşıiöçӘәІіҚқҢңҰұҮүҺһ`

// bodyPrefixLen bounds how far into the document body the rules look, so a
// label deep inside the text never wins over the header area.
const bodyPrefixLen = 800

// Field sources recorded on Identity.
const (
	SourceFilename = "filename"
	SourceBody     = "body"
)

// Identity is the parsed authorship metadata. Any field may be empty.
// FullName is always the trimmed concatenation of FirstName and LastName.
type Identity struct {
	FirstName  string
	LastName   string
	ClassLabel string
	FullName   string
	Source     FieldSources
}

// FieldSources records which rule chain produced each resolved field.
type FieldSources struct {
	FirstName  string
	LastName   string
	ClassLabel string
}

// classRules match a one- or two-digit grade adjacent to a single section
// letter, optionally separated by a hyphen or slash, optionally preceded by a
// labeled keyword in any supported language. Tried in order; first match wins.
var classRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:sınıfı|sınıf|sinif|grade|class|класс|сынып)\s*[:\-]?\s*(\d{1,2}\s*[-/]?\s*[` + letters + `])`),
	regexp.MustCompile(`(?i)(?:^|[^0-9` + letters + `])(\d{1,2}\s*[-/]\s*[` + letters + `])(?:[^0-9` + letters + `]|$)`),
	regexp.MustCompile(`(?i)(?:^|[^0-9` + letters + `])(\d{1,2}\s*[` + letters + `])(?:[^0-9` + letters + `]|$)`),
}

// nameLabelRules match multilingual labeled name fields in body text and
// capture the rest of the labeled segment.
var nameLabelRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:adı\s*soyadı|adi\s*soyadi|ad[\s:]+soyad|isim\s*soyisim)\s*[:\-]?\s*([^,;:]+)`),
	regexp.MustCompile(`(?i)(?:name\s*surname|student\s*name)\s*[:\-]?\s*([^,;:]+)`),
	regexp.MustCompile(`(?i)(?:имя\s*фамилия)\s*[:\-]?\s*([^,;:]+)`),
	regexp.MustCompile(`(?i)(?:аты\s*жөні|аты\s*жони|аты-жөні)\s*[:\-]?\s*([^,;:]+)`),
}

var (
	reSeparators = regexp.MustCompile(`[_\-.]`)
	reSpaces     = regexp.MustCompile(`\s+`)
	reLetter     = regexp.MustCompile(`[` + letters + `]`)
	reDigit      = regexp.MustCompile(`[0-9]`)
	reClassSep   = regexp.MustCompile(`[\s\-/]`)
)

// ParseMeta derives identity fields from the filename first and, for any
// field still missing, from the body text prefix. It is total: unparseable
// input yields empty fields, never an error.
func ParseMeta(filename, bodyText string) Identity {
	first, last, class := fromFilename(filename)

	src := FieldSources{}
	if first != "" {
		src.FirstName = SourceFilename
	}
	if last != "" {
		src.LastName = SourceFilename
	}
	if class != "" {
		src.ClassLabel = SourceFilename
	}

	if (first == "" || last == "" || class == "") && bodyText != "" {
		bFirst, bLast, bClass := fromBody(bodyText)
		if first == "" && bFirst != "" {
			first, src.FirstName = bFirst, SourceBody
		}
		if last == "" && bLast != "" {
			last, src.LastName = bLast, SourceBody
		}
		if class == "" && bClass != "" {
			class, src.ClassLabel = bClass, SourceBody
		}
	}

	return Identity{
		FirstName:  first,
		LastName:   last,
		ClassLabel: class,
		FullName:   strings.TrimSpace(first + " " + last),
		Source:     src,
	}
}

// normalize turns filename separators into spaces and collapses whitespace.
func normalize(s string) string {
	s = reSeparators.ReplaceAllString(s, " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// findClass returns the normalized class label and the matched span, or "".
func findClass(s string) (label, matched string) {
	for _, re := range classRules {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		return reClassSep.ReplaceAllString(m[1], ""), m[0]
	}
	return "", ""
}

func fromFilename(filename string) (first, last, class string) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	s := normalize(stem)

	class, span := findClass(s)
	if span != "" {
		s = strings.Replace(s, span, " ", 1)
	}

	var tokens []string
	for _, t := range strings.Fields(s) {
		// A name token has letters and no digits; this keeps artifacts like
		// "scan001" out of the name fields.
		if reLetter.MatchString(t) && !reDigit.MatchString(t) {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) > 0 {
		first = tokens[0]
	}
	if len(tokens) > 1 {
		last = tokens[1]
	}
	return first, last, class
}

func fromBody(body string) (first, last, class string) {
	runes := []rune(body)
	if len(runes) > bodyPrefixLen {
		runes = runes[:bodyPrefixLen]
	}
	snippet := normalize(string(runes))

	class, _ = findClass(snippet)

	for _, re := range nameLabelRules {
		m := re.FindStringSubmatch(snippet)
		if m == nil {
			continue
		}
		parts := strings.Fields(m[1])
		if len(parts) > 0 {
			first = parts[0]
		}
		if len(parts) > 1 {
			last = parts[1]
		}
		break
	}
	return first, last, class
}
