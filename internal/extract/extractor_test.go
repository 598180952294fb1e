package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordedCall struct {
	name string
	args []string
}

// fakeRunner stands in for the external tools. pdftoppm calls materialize
// renderPages PNG files at the requested prefix so the page glob finds them.
type fakeRunner struct {
	t *testing.T

	pdftotextOut string
	pdftotextErr error
	renderPages  int
	pdftoppmErr  error
	pageTexts    []string
	tessErrFirst bool

	calls     []recordedCall
	tessCalls int
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.t.Helper()
	f.calls = append(f.calls, recordedCall{name: name, args: args})

	switch name {
	case "pdftotext":
		if f.pdftotextErr != nil {
			return nil, []byte("pdftotext failed"), f.pdftotextErr
		}
		return []byte(f.pdftotextOut), nil, nil

	case "pdftoppm":
		if f.pdftoppmErr != nil {
			return nil, []byte("pdftoppm failed"), f.pdftoppmErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= f.renderPages; i++ {
			path := fmt.Sprintf("%s-%d.png", prefix, i)
			if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
				f.t.Fatalf("writing fake page: %v", err)
			}
		}
		return nil, nil, nil

	case "tesseract":
		call := f.tessCalls
		f.tessCalls++
		if f.tessErrFirst && call == 0 {
			return nil, []byte("Error opening data file kaz.traineddata"), errors.New("exit status 1")
		}
		if call < len(f.pageTexts) {
			return []byte(f.pageTexts[call]), nil, nil
		}
		return []byte(""), nil, nil
	}
	return nil, nil, fmt.Errorf("unexpected tool %q", name)
}

func (f *fakeRunner) countCalls(name string) int {
	n := 0
	for _, c := range f.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

func newTestExtractor(t *testing.T, fr *fakeRunner, cfg Config) *Extractor {
	t.Helper()
	e := NewExtractor(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.runner = fr
	return e
}

func tempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// tempPNG writes a small decodable grayscale PNG.
func tempPNG(t *testing.T, name string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(60 * (x + y))})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return tempFile(t, name, buf.Bytes())
}

func TestExtractPDFTextLayer(t *testing.T) {
	fr := &fakeRunner{t: t, pdftotextOut: "Hamlet essay\fpage two"}
	e := newTestExtractor(t, fr, Config{})

	path := tempFile(t, "essay.pdf", []byte("%PDF-1.4"))
	res := e.Extract(context.Background(), path, "application/pdf")

	if res.Method != MethodTextLayer {
		t.Fatalf("method = %q, want %q", res.Method, MethodTextLayer)
	}
	if res.Pages != 2 {
		t.Errorf("pages = %d, want 2", res.Pages)
	}
	if !strings.Contains(res.Text, "Hamlet essay") {
		t.Errorf("text missing expected content: %q", res.Text)
	}
	if n := fr.countCalls("tesseract"); n != 0 {
		t.Errorf("tesseract called %d times for a text-layer PDF, want 0", n)
	}
	if n := fr.countCalls("pdftoppm"); n != 0 {
		t.Errorf("pdftoppm called %d times for a text-layer PDF, want 0", n)
	}
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	fr := &fakeRunner{
		t:            t,
		pdftotextOut: "  \n ", // whitespace-only layer
		renderPages:  2,
		pageTexts:    []string{"birinci sayfa", "ikinci sayfa"},
	}
	e := newTestExtractor(t, fr, Config{Languages: "tur+eng"})

	path := tempFile(t, "scan.pdf", []byte("%PDF-1.4"))
	res := e.Extract(context.Background(), path, "")

	if res.Method != MethodOCRRasterized {
		t.Fatalf("method = %q, want %q", res.Method, MethodOCRRasterized)
	}
	if res.Pages != 2 {
		t.Errorf("pages = %d, want 2", res.Pages)
	}
	want := "birinci sayfa\nikinci sayfa"
	if res.Text != want {
		t.Errorf("text = %q, want %q", res.Text, want)
	}
	if n := fr.countCalls("tesseract"); n != 2 {
		t.Errorf("tesseract called %d times, want 2", n)
	}
}

func TestExtractPDFMaxPages(t *testing.T) {
	fr := &fakeRunner{
		t:           t,
		renderPages: 5,
		pageTexts:   []string{"p1", "p2", "p3", "p4", "p5"},
	}
	e := newTestExtractor(t, fr, Config{MaxPages: 2})

	path := tempFile(t, "long.pdf", []byte("%PDF-1.4"))
	res := e.Extract(context.Background(), path, "")

	if res.Pages != 2 {
		t.Errorf("pages = %d, want 2 with MaxPages=2", res.Pages)
	}
	if n := fr.countCalls("tesseract"); n != 2 {
		t.Errorf("tesseract called %d times, want 2", n)
	}
}

func TestExtractImageRetriesWithFallbackLanguage(t *testing.T) {
	fr := &fakeRunner{
		t:            t,
		tessErrFirst: true,
		pageTexts:    []string{"", "recovered text"},
	}
	e := newTestExtractor(t, fr, Config{Languages: "tur+eng+rus+kaz", FallbackLanguage: "eng"})

	path := tempPNG(t, "photo.png")
	res := e.Extract(context.Background(), path, "")

	if res.Method != MethodOCRImage {
		t.Fatalf("method = %q, want %q", res.Method, MethodOCRImage)
	}
	if res.Text != "recovered text" {
		t.Errorf("text = %q, want fallback OCR output", res.Text)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a warning from the failed first OCR pass")
	}

	last := fr.calls[len(fr.calls)-1]
	if last.name != "tesseract" {
		t.Fatalf("last call = %q, want tesseract", last.name)
	}
	if got := last.args[len(last.args)-1]; got != "eng" {
		t.Errorf("retry language = %q, want eng", got)
	}
}

func TestExtractIsTotalOnToolFailure(t *testing.T) {
	fr := &fakeRunner{
		t:            t,
		pdftotextErr: errors.New("exit status 99"),
		pdftoppmErr:  errors.New("exit status 99"),
	}
	e := newTestExtractor(t, fr, Config{})

	path := tempFile(t, "broken.pdf", []byte("not a pdf"))
	res := e.Extract(context.Background(), path, "")

	if !res.IsEmpty() {
		t.Errorf("expected empty result, got %q", res.Text)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected warnings recording the tool failures")
	}
}

func TestExtractPlainTextUTF8(t *testing.T) {
	fr := &fakeRunner{t: t}
	e := newTestExtractor(t, fr, Config{})

	path := tempFile(t, "odev.txt", []byte("Osmanlı İmparatorluğu üzerine bir deneme"))
	res := e.Extract(context.Background(), path, "text/plain")

	if res.Method != MethodPlainRead {
		t.Fatalf("method = %q, want %q", res.Method, MethodPlainRead)
	}
	if !strings.Contains(res.Text, "İmparatorluğu") {
		t.Errorf("text = %q", res.Text)
	}
	if len(fr.calls) != 0 {
		t.Errorf("no external tools should run for txt, got %d calls", len(fr.calls))
	}
}

func TestExtractPlainTextLatin1Fallback(t *testing.T) {
	fr := &fakeRunner{t: t}
	e := newTestExtractor(t, fr, Config{})

	// "café" in ISO 8859-1, invalid as UTF-8.
	path := tempFile(t, "notes.txt", []byte{'c', 'a', 'f', 0xe9})
	res := e.Extract(context.Background(), path, "")

	if res.Text != "café" {
		t.Errorf("text = %q, want %q", res.Text, "café")
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a decode warning")
	}
}

func TestExtractUnknownExtensionBestEffort(t *testing.T) {
	fr := &fakeRunner{t: t}
	e := newTestExtractor(t, fr, Config{})

	path := tempFile(t, "mystery.xyz", []byte("plain content after all"))
	res := e.Extract(context.Background(), path, "")

	if res.Method != MethodUnsupported {
		t.Fatalf("method = %q, want %q", res.Method, MethodUnsupported)
	}
	if res.Text != "plain content after all" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtractDispatchesByMIMEWithoutExtension(t *testing.T) {
	fr := &fakeRunner{t: t, pdftotextOut: "from mime dispatch"}
	e := newTestExtractor(t, fr, Config{})

	path := tempFile(t, "upload", []byte("%PDF-1.4"))
	res := e.Extract(context.Background(), path, "application/pdf")

	if res.Method != MethodTextLayer {
		t.Fatalf("method = %q, want %q", res.Method, MethodTextLayer)
	}
	if res.Text != "from mime dispatch" {
		t.Errorf("text = %q", res.Text)
	}
}
