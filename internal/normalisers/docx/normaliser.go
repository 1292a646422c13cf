package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Archive members read by the normaliser.
const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Normaliser handles Office Open XML word processing files.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".docx"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the body text of a document. Paragraphs are separated
// by blank lines and each table row becomes one paragraph with its cells
// joined by " | ". Files that are not DOCX archives are rejected with
// domain.ErrInvalidInput.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", domain.ErrInvalidInput, err)
	}

	doc, err := archive.Open(documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, documentPart)
	}
	defer doc.Close()

	text, err := bodyText(doc)
	if err != nil {
		return nil, err
	}

	title := coreTitle(archive)
	if title == "" {
		name := strings.TrimSuffix(filepath.Base(raw.Path), filepath.Ext(raw.Path))
		title = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	}

	return &domain.ExtractedContent{
		Title:  title,
		Text:   text,
		Format: "docx",
	}, nil
}

// bodyText walks the WordprocessingML tokens of document.xml. Element
// names are matched without their namespace.
func bodyText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		para       strings.Builder
		cell       []string
		row        []string
		inText     bool
		tables     int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: malformed %s: %v", domain.ErrInvalidInput, documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			case "tbl":
				tables++
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(para.String())
				para.Reset()
				switch {
				case text == "":
				case tables > 0:
					cell = append(cell, text)
				default:
					paragraphs = append(paragraphs, text)
				}
			case "tc":
				// Nested tables stay inside the outer cell.
				if tables == 1 {
					row = append(row, strings.Join(cell, " "))
					cell = nil
				}
			case "tr":
				if tables == 1 {
					if line := strings.Join(row, " | "); strings.Trim(line, " |") != "" {
						paragraphs = append(paragraphs, line)
					}
					row = nil
				}
			case "tbl":
				tables--
			}

		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}

	return strings.Join(paragraphs, "\n\n"), nil
}

// coreTitle returns the dc:title of the document properties, if any.
func coreTitle(archive fs.FS) string {
	data, err := fs.ReadFile(archive, corePart)
	if err != nil {
		return ""
	}
	var core struct {
		Title string `xml:"title"`
	}
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
