package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/normalisers/html"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxDepth bounds nested multipart bodies.
const maxDepth = 8

// renderedHeaders are written above the body, in this order.
var renderedHeaders = []string{"From", "To", "Cc", "Date", "Subject"}

// Normaliser handles RFC 5322 message files.
type Normaliser struct{}

// New creates a new email normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".eml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise renders the message headers and body as text. In a multipart
// body, text/plain parts win over text/html parts; attachments are skipped.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawFile) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: not an email message: %v", domain.ErrInvalidInput, err)
	}

	var text strings.Builder
	for _, name := range renderedHeaders {
		if value := decodeHeader(msg.Header.Get(name)); value != "" {
			fmt.Fprintf(&text, "%s: %s\n", name, value)
		}
	}
	text.WriteString("\n")

	b := &body{}
	if err := b.read(msg.Header, msg.Body, 0); err != nil {
		return nil, fmt.Errorf("read body of %s: %w", raw.Path, err)
	}
	text.WriteString(b.String())

	title := decodeHeader(msg.Header.Get("Subject"))
	if title == "" {
		name := strings.TrimSuffix(filepath.Base(raw.Path), filepath.Ext(raw.Path))
		title = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	}

	return &domain.ExtractedContent{
		Title:  title,
		Text:   strings.TrimSpace(text.String()),
		Format: "eml",
	}, nil
}

// decodeHeader decodes RFC 2047 encoded words, keeping the raw value when
// they are malformed.
func decodeHeader(value string) string {
	if value == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// header is the subset of mail and MIME part headers the body reader needs.
type header interface {
	Get(key string) string
}

// body collects the text parts of a message.
type body struct {
	plain []string
	html  []string
}

// String joins the plain parts, or the HTML parts when there are none.
func (b *body) String() string {
	if len(b.plain) > 0 {
		return strings.Join(b.plain, "\n")
	}
	return strings.Join(b.html, "\n")
}

func (b *body) read(h header, r io.Reader, depth int) error {
	mediaType, params, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
	}
	if disposition, _, err := mime.ParseMediaType(h.Get("Content-Disposition")); err == nil && disposition == "attachment" {
		return nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxDepth || params["boundary"] == "" {
			return nil
		}
		return b.readMultipart(r, params["boundary"], depth)
	}
	if mediaType != "text/plain" && mediaType != "text/html" {
		return nil
	}

	content, err := io.ReadAll(decodeTransfer(h.Get("Content-Transfer-Encoding"), r))
	if err != nil {
		return fmt.Errorf("read %s part: %w", mediaType, err)
	}

	if mediaType == "text/html" {
		text, err := html.Text(content)
		if err != nil {
			return err
		}
		b.html = append(b.html, text)
		return nil
	}
	b.plain = append(b.plain, strings.TrimRight(string(content), "\r\n"))
	return nil
}

func (b *body) readMultipart(r io.Reader, boundary string, depth int) error {
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextRawPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// A truncated message keeps the parts read so far.
			return nil //nolint:nilerr
		}
		err = b.read(part.Header, part, depth+1)
		_ = part.Close()
		if err != nil {
			return err
		}
	}
}

// decodeTransfer undoes the Content-Transfer-Encoding of a part.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
