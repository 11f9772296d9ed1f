package pagetext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/dgallion1/docintel/internal/lang"
	"github.com/dgallion1/docintel/internal/layout"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// LayoutStrategy reads text from the layout provider that produced the spans.
type LayoutStrategy struct {
	Doc layout.Document
}

func (s LayoutStrategy) Name() string { return "layout" }

func (s LayoutStrategy) PageText(_ context.Context, page int) (string, error) {
	return layout.SafeRawText(s.Doc, page)
}

// PDFFile lazily parses a PDF with pdfcpu. The parsed context is shared by
// the content-stream and OCR strategies of one document.
type PDFFile struct {
	path string

	once sync.Once
	ctx  *model.Context
	err  error
}

func NewPDFFile(path string) *PDFFile { return &PDFFile{path: path} }

func (f *PDFFile) load() (*model.Context, error) {
	f.once.Do(func() {
		file, err := os.Open(f.path)
		if err != nil {
			f.err = fmt.Errorf("open pdf: %w", err)
			return
		}
		defer file.Close()

		conf := model.NewDefaultConfiguration()
		conf.ValidationMode = model.ValidationRelaxed
		f.ctx, f.err = api.ReadValidateAndOptimize(file, conf)
		if f.err != nil {
			f.err = fmt.Errorf("pdfcpu read: %w", f.err)
		}
	})
	return f.ctx, f.err
}

// PageImages returns the encoded image streams placed on page, ordered by
// object number.
func (f *PDFFile) PageImages(page int) ([][]byte, error) {
	ctx, err := f.load()
	if err != nil {
		return nil, err
	}
	imgs, err := pdfcpu.ExtractPageImages(ctx, page, false)
	if err != nil {
		return nil, fmt.Errorf("extract page images: %w", err)
	}
	objNrs := make([]int, 0, len(imgs))
	for nr := range imgs {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	out := make([][]byte, 0, len(objNrs))
	for _, nr := range objNrs {
		data, err := io.ReadAll(imgs[nr])
		if err != nil {
			return out, fmt.Errorf("read image %d: %w", nr, err)
		}
		out = append(out, data)
	}
	return out, nil
}

// ContentStrategy scans the page content stream for text-showing operators.
type ContentStrategy struct {
	File *PDFFile
}

func (s ContentStrategy) Name() string { return "pdfcpu" }

func (s ContentStrategy) PageText(_ context.Context, page int) (string, error) {
	ctx, err := s.File.load()
	if err != nil {
		return "", err
	}
	r, err := pdfcpu.ExtractPageContent(ctx, page)
	if err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return ScanContentStream(data), nil
}

var pdfString = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// ScanContentStream pulls literal strings shown by Tj, TJ and ' and turns
// Td/TD/T* positioning into whitespace.
func ScanContentStream(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case len(line) == 0:
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfString.FindAllSubmatch(line, -1) {
				sb.WriteString(decodeLiteral(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfString.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodeLiteral(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}
	return collapseSpace(sb.String())
}

// decodeLiteral resolves the escapes allowed inside a PDF literal string.
func decodeLiteral(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 == len(raw) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch e := raw[i]; e {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := int(e - '0')
			for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
				i++
				v = v*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(v))
		default:
			sb.WriteByte(e)
		}
	}
	return sb.String()
}

func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !space && sb.Len() > 0 {
				sb.WriteByte(' ')
				space = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			space = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// Recognizer turns an image into text.
type Recognizer interface {
	Recognize(image []byte) (string, error)
}

// ImageSource lists the images placed on a page.
type ImageSource interface {
	PageImages(page int) ([][]byte, error)
}

// OCRStrategy recognizes every image on a page and joins the results.
type OCRStrategy struct {
	Images     ImageSource
	Recognizer Recognizer
}

func (s OCRStrategy) Name() string { return "ocr" }

func (s OCRStrategy) PageText(ctx context.Context, page int) (string, error) {
	imgs, err := s.Images.PageImages(page)
	if err != nil {
		return "", err
	}
	var parts []string
	for _, img := range imgs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := s.Recognizer.Recognize(img)
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// Factory builds a Chain per opened document.
type Factory struct {
	Classifier *lang.Classifier
	Recognizer Recognizer // nil disables OCR
	Log        *slog.Logger
}

// ForDocument returns the layout provider's own text strategy and, for PDFs,
// a content-stream scan followed by OCR of the page images.
func (f Factory) ForDocument(doc layout.Document, path string) *Chain {
	strategies := []Strategy{LayoutStrategy{Doc: doc}}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pdf := NewPDFFile(path)
		strategies = append(strategies, ContentStrategy{File: pdf})
		if f.Recognizer != nil {
			strategies = append(strategies, OCRStrategy{Images: pdf, Recognizer: f.Recognizer})
		}
	}
	return NewChain(f.Classifier, f.Log, strategies...)
}
