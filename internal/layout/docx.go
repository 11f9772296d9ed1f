package layout

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXProvider handles .docx files. Heading styles become large bold spans,
// paragraphs whose runs are all bold become bold body spans.
type DOCXProvider struct{}

func (p *DOCXProvider) Open(path string) (Document, error) {
	doc, err := ParseDOCX(path)
	if err != nil {
		return nil, err
	}

	var b flowBuilder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text, bold := docxParagraphText(para)
		if text == "" {
			continue
		}
		switch level := docxHeadingLevel(para); {
		case level > 0:
			b.heading(level, text)
		case docxIsListItem(para):
			b.bullet(text)
		case bold:
			b.add(text, bodySize, true)
		default:
			b.body(text)
		}
	}
	return b.document(), nil
}

// ParseDOCX opens and parses a .docx file.
func ParseDOCX(path string) (*docx.Docx, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat docx: %w", err)
	}
	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	return doc, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	switch style {
	case "title", "heading1":
		return 1
	case "subtitle", "heading2":
		return 2
	case "heading3":
		return 3
	case "heading4":
		return 4
	case "heading5":
		return 5
	case "heading6":
		return 6
	}
	return 0
}

func docxIsListItem(para *docx.Paragraph) bool {
	return para.Properties != nil && para.Properties.NumProperties != nil
}

// docxParagraphText returns the paragraph text and whether every text run
// is bold.
func docxParagraphText(para *docx.Paragraph) (string, bool) {
	var buf strings.Builder
	allBold, seen := true, false
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			t, ok := rc.(*docx.Text)
			if !ok {
				continue
			}
			buf.WriteString(t.Text)
			if strings.TrimSpace(t.Text) == "" {
				continue
			}
			seen = true
			if run.RunProperties == nil || run.RunProperties.Bold == nil {
				allBold = false
			}
		}
	}
	return strings.TrimSpace(buf.String()), seen && allBold
}

// DOCXCellText returns the text of a table cell.
func DOCXCellText(cell *docx.WTableCell) string {
	var parts []string
	for _, para := range cell.Paragraphs {
		if t, _ := docxParagraphText(para); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
