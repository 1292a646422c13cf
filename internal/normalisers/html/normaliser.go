package html

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// droppedElements never carry readable text.
const droppedElements = "head, script, style, noscript, svg, template, iframe"

// blockElements start and end a line of text.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Figcaption: true, atom.Footer: true, atom.Form: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tr: true, atom.Ul: true,
}

// cellElements are separated by a space within their row.
var cellElements = map[atom.Atom]bool{
	atom.Td: true,
	atom.Th: true,
}

// lineBreaks in source text are layout, not content.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Normaliser handles HTML files.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts readable text from an HTML file. The title comes from
// the <title> element, then the first <h1>, then the filename.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", raw.Path, err)
	}

	title := pageTitle(doc)
	if title == "" {
		title = titleFromPath(raw.Path)
	}

	return &domain.ExtractedContent{
		Title:  title,
		Text:   documentText(doc),
		Format: "html",
	}, nil
}

// Text returns the readable text of an HTML fragment or document.
func Text(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return documentText(doc), nil
}

func documentText(doc *goquery.Document) string {
	doc.Find(droppedElements).Remove()
	return readableText(doc.Find("body"))
}

func pageTitle(doc *goquery.Document) string {
	for _, selector := range []string{"title", "h1"} {
		if title := collapse(doc.Find(selector).First().Text()); title != "" {
			return title
		}
	}
	return ""
}

// titleFromPath turns "my_policy-v2.html" into "my policy v2".
func titleFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

// readableText renders the text of sel with one line per block element.
func readableText(sel *goquery.Selection) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(lineBreaks.Replace(n.Data))
			return
		case html.ElementNode:
			if blockElements[n.DataAtom] {
				b.WriteByte('\n')
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode {
			switch {
			case blockElements[n.DataAtom]:
				b.WriteByte('\n')
			case cellElements[n.DataAtom]:
				b.WriteByte(' ')
			}
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = collapse(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
