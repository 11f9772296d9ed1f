package layout

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// TextProvider handles plain text files. Each paragraph becomes a body
// span; form feeds separate pages.
type TextProvider struct{}

func (p *TextProvider) Open(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open text: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var b flowBuilder
	b.newPage()
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			b.body(current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		for strings.Contains(line, "\f") {
			before, after, _ := strings.Cut(line, "\f")
			appendLine(&current, before)
			flush()
			b.newPage()
			line = after
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if startsListItem(line) {
			flush()
			b.body(line)
			continue
		}
		appendLine(&current, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	return b.document(), nil
}

// startsListItem reports whether a line opens with a bullet glyph, a hyphen,
// an asterisk or a digit.
func startsListItem(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	r := []rune(line)[0]
	return strings.ContainsRune("•‣◦⁃∙-*", r) || (r >= '0' && r <= '9')
}

func appendLine(sb *strings.Builder, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if sb.Len() > 0 {
		sb.WriteByte(' ')
	}
	sb.WriteString(line)
}

// CSVProvider opens CSV files as documents without pages. CSV files only
// contribute tables.
type CSVProvider struct{}

func (p *CSVProvider) Open(path string) (Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	return &flowDocument{}, nil
}
