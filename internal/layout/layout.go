// Package layout turns documents into per-page ordered text spans.
package layout

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
)

// ErrUnsupportedFormat is returned for file extensions with no provider.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Document is an opened layout source. Pages are 1-indexed. Spans and
// RawText report a broken page as an error; callers skip that page.
type Document interface {
	PageCount() int
	Spans(page int) ([]doctree.TextSpan, error)
	RawText(page int) (string, error)
	Close() error
}

// Provider opens documents of one format.
type Provider interface {
	Open(path string) (Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
	".csv":      true,
}

// ForFile returns the provider for a filename.
func ForFile(filename string) (Provider, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFProvider{}, nil
	case ".docx":
		return &DOCXProvider{}, nil
	case ".html", ".htm":
		return &HTMLProvider{}, nil
	case ".md", ".markdown":
		return &MarkdownProvider{}, nil
	case ".txt":
		return &TextProvider{}, nil
	case ".csv":
		return &CSVProvider{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Open picks the provider for path and opens it.
func Open(path string) (Document, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	return p.Open(path)
}

// Pages holds collected spans; Pages[i] are the spans of page i+1 in layout order.
type Pages [][]doctree.TextSpan

// Count returns the number of spans across all pages.
func (p Pages) Count() int {
	n := 0
	for _, spans := range p {
		n += len(spans)
	}
	return n
}

// Collect reads every page of doc, cleans span text, drops empty spans and
// derives boldness from the font name. Pages that fail are logged and left
// empty.
func Collect(doc Document, log *slog.Logger) Pages {
	if log == nil {
		log = slog.Default()
	}
	n := doc.PageCount()
	pages := make(Pages, n)
	for i := 1; i <= n; i++ {
		raw, err := safeSpans(doc, i)
		if err != nil {
			log.Warn("skipping unreadable page", "page", i, "error", err)
			continue
		}
		spans := make([]doctree.TextSpan, 0, len(raw))
		for _, s := range raw {
			s.Text = CleanText(s.Text)
			if s.Text == "" {
				continue
			}
			s.Bold = s.Bold || IsBold(s.Font)
			s.Page = i
			spans = append(spans, s)
		}
		pages[i-1] = spans
	}
	return pages
}

func safeSpans(doc Document, page int) (spans []doctree.TextSpan, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: panic: %v", page, r)
		}
	}()
	return doc.Spans(page)
}

// SafeRawText returns the raw text of page, converting provider panics into errors.
func SafeRawText(doc Document, page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: panic: %v", page, r)
		}
	}()
	return doc.RawText(page)
}

// CleanText collapses runs of whitespace to a single space and trims.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsBold reports whether a font name denotes a bold face.
func IsBold(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "bold") || strings.Contains(f, "bld")
}

// SpoolTemp copies r into a temp file carrying filename's extension. The
// returned cleanup removes the file.
func SpoolTemp(r io.Reader, filename string) (string, func(), error) {
	ext := strings.ToLower(filepath.Ext(filename))
	tmp, err := os.CreateTemp("", "docintel-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	path := tmp.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return path, cleanup, nil
}
