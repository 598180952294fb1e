package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// extractDocx concatenates the paragraph text nodes of a Word document in
// document order, one paragraph per line. Formatting is discarded.
func (e *Extractor) extractDocx(path string) Result {
	content, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("docx read failed", "path", path, "error", err)
		return Result{Method: MethodTextLayer, Warnings: []string{err.Error()}}
	}

	text, err := docxParagraphText(content)
	if err != nil {
		e.logger.Warn("docx parse failed", "path", path, "error", err)
		return Result{Method: MethodTextLayer, Warnings: []string{err.Error()}}
	}
	return Result{Text: text, Method: MethodTextLayer, Pages: 1}
}

func docxParagraphText(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	docXML, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("read document.xml: %w", err)
	}

	return parseDocxParagraphs(docXML)
}

// parseDocxParagraphs walks word/document.xml collecting the text runs of
// each w:p element. Tabs and explicit breaks inside runs are preserved.
func parseDocxParagraphs(data []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var paragraphs []string
	var inParagraph bool
	var inRun bool
	var current strings.Builder

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "r":
				if inParagraph {
					inRun = true
				}
			case "tab":
				if inRun {
					current.WriteString("\t")
				}
			case "br":
				if inRun {
					current.WriteString("\n")
				}
			case "t":
				if inRun {
					var text string
					if err := decoder.DecodeElement(&text, &t); err == nil {
						current.WriteString(text)
					}
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inParagraph {
					paragraphs = append(paragraphs, current.String())
					inParagraph = false
				}
			case "r":
				inRun = false
			}
		}
	}

	return strings.Join(paragraphs, "\n"), nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}
