// Package evaluate measures outline quality: heading precision and recall
// against ground truth, and script validity of multilingual text.
package evaluate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/dgallion1/docintel/internal/doctree"
)

// HeadingMetrics counts heading matches. A predicted heading matches a
// ground-truth heading with the same level and the same text, compared
// case-insensitively after trimming.
type HeadingMetrics struct {
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1_score"`
}

// Metrics derives precision, recall and F1 from raw counts. Undefined ratios
// are zero.
func Metrics(tp, fp, fn int) HeadingMetrics {
	m := HeadingMetrics{TruePositives: tp, FalsePositives: fp, FalseNegatives: fn}
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

type flatHeading struct {
	level doctree.HeadingLevel
	lang  doctree.Lang
	text  string
	page  int
}

func flatten(o doctree.Outline) []flatHeading {
	var out []flatHeading
	for _, h := range o.Outline {
		h.Text.Each(func(l doctree.Lang, s string) {
			out = append(out, flatHeading{level: h.Level, lang: l, text: s, page: h.Page})
		})
	}
	return out
}

func matchKey(level doctree.HeadingLevel, text string) string {
	return string(level) + "\x00" + strings.ToLower(strings.TrimSpace(text))
}

// CompareHeadings scores predicted against truth. Every language entry of a
// heading counts separately, and each ground-truth entry matches at most once.
func CompareHeadings(predicted, truth doctree.Outline) HeadingMetrics {
	remaining := make(map[string]int)
	gt := flatten(truth)
	for _, h := range gt {
		remaining[matchKey(h.level, h.text)]++
	}
	pred := flatten(predicted)
	tp := 0
	for _, h := range pred {
		k := matchKey(h.level, h.text)
		if remaining[k] > 0 {
			remaining[k]--
			tp++
		}
	}
	return Metrics(tp, len(pred)-tp, len(gt)-tp)
}

// Issue kinds.
const (
	IssueGarbledDevanagari  = "garbled_devanagari"
	IssueMixedScripts       = "mixed_scripts"
	IssueRepeatedCharacters = "repeated_characters"
	IssueNoScript           = "unrecognized_script"
)

// Issue is a suspicious text entry.
type Issue struct {
	Kind  string       `json:"kind"`
	Lang  doctree.Lang `json:"lang"`
	Text  string       `json:"text"`
	Page  int          `json:"page,omitempty"`
	Where string       `json:"where"`
}

// CheckText returns the issue kinds found in text tagged l.
func CheckText(text string, l doctree.Lang) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var deva, latin int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Devanagari, r):
			deva++
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			latin++
		}
	}

	var kinds []string
	if l.IsDevanagari() && deva == 0 {
		kinds = append(kinds, IssueGarbledDevanagari)
	}
	if deva > 0 && latin > 0 {
		kinds = append(kinds, IssueMixedScripts)
	}
	if deva == 0 && latin == 0 {
		kinds = append(kinds, IssueNoScript)
	}
	if hasRepeatedRun(text, 3) {
		kinds = append(kinds, IssueRepeatedCharacters)
	}
	return kinds
}

// hasRepeatedRun reports whether some letter occurs n or more times in a row.
func hasRepeatedRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev && unicode.IsLetter(r) {
			run++
			if run >= n {
				return true
			}
			continue
		}
		prev, run = r, 1
	}
	return false
}

// Validate checks the title, headings and table headers of o.
func Validate(o doctree.Outline) []Issue {
	issues := []Issue{}
	add := func(where string, page int, l doctree.Lang, text string) {
		for _, kind := range CheckText(text, l) {
			issues = append(issues, Issue{Kind: kind, Lang: l, Text: text, Page: page, Where: where})
		}
	}
	o.Title.Each(func(l doctree.Lang, s string) { add("title", 0, l, s) })
	for _, h := range flatten(o) {
		add("heading", h.page, h.lang, h.text)
	}
	for _, t := range o.Tables {
		t.Headers.Each(func(l doctree.Lang, cols []string) {
			for _, c := range cols {
				add("table_header", t.Page, l, c)
			}
		})
	}
	return issues
}

// Report is the evaluation of one document.
type Report struct {
	Document       string          `json:"document"`
	Headings       int             `json:"total_headings"`
	TitleDetected  bool            `json:"title_detected"`
	TitleLanguages []doctree.Lang  `json:"title_languages"`
	Issues         []Issue         `json:"multilingual_issues"`
	Metrics        *HeadingMetrics `json:"metrics,omitempty"`
}

// Evaluate builds the report for one outline. truth may be nil.
func Evaluate(name string, predicted doctree.Outline, truth *doctree.Outline) Report {
	langs := predicted.Title.Langs()
	if langs == nil {
		langs = []doctree.Lang{}
	}
	r := Report{
		Document:       name,
		Headings:       len(flatten(predicted)),
		TitleDetected:  !predicted.Title.IsEmpty(),
		TitleLanguages: langs,
		Issues:         Validate(predicted),
	}
	if truth != nil {
		m := CompareHeadings(predicted, *truth)
		r.Metrics = &m
	}
	return r
}

// Summary aggregates reports. Micro sums counts across the documents that
// had ground truth.
type Summary struct {
	Documents     int            `json:"documents"`
	WithTruth     int            `json:"documents_with_ground_truth"`
	Headings      int            `json:"total_headings"`
	Issues        int            `json:"multilingual_issues"`
	TitleDetected int            `json:"titles_detected"`
	Micro         HeadingMetrics `json:"micro"`
}

func Summarize(reports []Report) Summary {
	var s Summary
	var tp, fp, fn int
	for _, r := range reports {
		s.Documents++
		s.Headings += r.Headings
		s.Issues += len(r.Issues)
		if r.TitleDetected {
			s.TitleDetected++
		}
		if r.Metrics != nil {
			s.WithTruth++
			tp += r.Metrics.TruePositives
			fp += r.Metrics.FalsePositives
			fn += r.Metrics.FalseNegatives
		}
	}
	s.Micro = Metrics(tp, fp, fn)
	return s
}

// LoadOutline reads an outline JSON file.
func LoadOutline(path string) (doctree.Outline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return doctree.Outline{}, err
	}
	var o doctree.Outline
	if err := json.Unmarshal(data, &o); err != nil {
		return doctree.Outline{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return o, nil
}

// Dirs evaluates every .json outline in predDir, pairing it with the file of
// the same name in truthDir when one exists. truthDir may be empty.
func Dirs(predDir, truthDir string) ([]Report, error) {
	entries, err := os.ReadDir(predDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", predDir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	reports := make([]Report, 0, len(names))
	for _, name := range names {
		pred, err := LoadOutline(filepath.Join(predDir, name))
		if err != nil {
			return reports, err
		}
		var truth *doctree.Outline
		if truthDir != "" {
			t, err := LoadOutline(filepath.Join(truthDir, name))
			switch {
			case err == nil:
				truth = &t
			case !os.IsNotExist(err):
				return reports, err
			}
		}
		reports = append(reports, Evaluate(name, pred, truth))
	}
	return reports, nil
}
