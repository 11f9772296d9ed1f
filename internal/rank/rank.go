// Package rank scores outline headings against a persona and task by
// embedding similarity and returns them in relevance order with excerpts.
package rank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/embed"
	"github.com/dgallion1/docintel/internal/excerpt"
)

// ErrNoQuery is returned when persona and job are both blank.
var ErrNoQuery = errors.New("rank: persona and job are both empty")

// TimestampFormat is the layout of Metadata.ProcessingTimestamp.
const TimestampFormat = "2006-01-02T15:04:05"

// Options controls section selection.
type Options struct {
	ExcerptSize    int      // characters per excerpt, default 200
	KeywordFilter  bool     // drop sections whose excerpts contain no keyword
	Keywords       []string // matched case-insensitively as substrings
	MaxEmbedTokens int      // cap on text sent to the embedder, 0 = none
}

// Page is the raw text of one page and its detected language.
type Page struct {
	Text string
	Lang doctree.Lang
}

// Document is one input to a ranking run. Pages[i] is page i+1.
type Document struct {
	Name    string
	Outline doctree.Outline
	Pages   []Page
}

// Ranker holds the embedder for the lifetime of the process.
type Ranker struct {
	embedder embed.Embedder
	opts     Options
	log      *slog.Logger
	now      func() time.Time
}

func New(e embed.Embedder, opts Options, log *slog.Logger) *Ranker {
	if opts.ExcerptSize <= 0 {
		opts.ExcerptSize = excerpt.DefaultSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ranker{embedder: e, opts: opts, log: log, now: time.Now}
}

// QueryText joins persona and job the way the query is embedded.
func QueryText(persona, job string) string {
	return persona + " " + job
}

// Sections builds the candidate sections of doc in outline order. For each
// language of a heading, the excerpt comes from the heading's page when the
// page is in that language; English headings always use the page. Headings
// with no non-empty excerpt are dropped, as are sections failing the keyword
// gate.
func (r *Ranker) Sections(doc Document) []doctree.Section {
	var out []doctree.Section
	for _, h := range doc.Outline.Outline {
		var page Page
		if h.Page >= 1 && h.Page <= len(doc.Pages) {
			page = doc.Pages[h.Page-1]
		}
		if page.Text == "" {
			continue
		}

		var title, refined doctree.LocalizedText
		h.Text.Each(func(l doctree.Lang, text string) {
			if page.Lang != l && l != doctree.LangEN {
				return
			}
			para, _ := excerpt.Locate(page.Text, text, r.opts.ExcerptSize)
			if para == "" {
				return
			}
			title.Set(l, text)
			refined.Set(l, para)
		})

		if refined.IsEmpty() {
			r.log.Debug("no excerpt for heading", "doc", doc.Name, "page", h.Page)
			continue
		}
		if r.opts.KeywordFilter && !containsKeyword(doctree.Joined(refined, " "), r.opts.Keywords) {
			r.log.Debug("section filtered by keywords", "doc", doc.Name, "page", h.Page)
			continue
		}
		out = append(out, doctree.Section{
			Document:     doc.Name,
			PageNumber:   h.Page,
			SectionTitle: title,
			RefinedText:  refined,
		})
	}
	return out
}

func containsKeyword(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// SectionText is the string embedded for a section: its titles followed by
// its excerpts, in language order.
func SectionText(s doctree.Section) string {
	var parts []string
	s.SectionTitle.Each(func(_ doctree.Lang, t string) { parts = append(parts, t) })
	s.RefinedText.Each(func(_ doctree.Lang, t string) { parts = append(parts, t) })
	return strings.Join(parts, " ")
}

// Score embeds every section and sets RelevanceScore to its dot product with
// query. Any embedding failure aborts scoring.
func (r *Ranker) Score(ctx context.Context, query []float32, sections []doctree.Section) error {
	for i := range sections {
		text := excerpt.TruncateTokens(SectionText(sections[i]), r.opts.MaxEmbedTokens)
		vec, err := r.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embed section %d of %s: %w", i, sections[i].Document, err)
		}
		score, err := embed.Dot(query, vec)
		if err != nil {
			return fmt.Errorf("score section %d of %s: %w", i, sections[i].Document, err)
		}
		sections[i].RelevanceScore = score
	}
	return nil
}

// Rank runs one query over docs. Sections are ordered by relevance only;
// equal scores keep discovery order. Embedding failures are returned rather
// than yielding an empty ranking.
func (r *Ranker) Rank(ctx context.Context, persona, job string, docs []Document) (doctree.RankedResult, error) {
	if strings.TrimSpace(persona) == "" && strings.TrimSpace(job) == "" {
		return doctree.RankedResult{}, ErrNoQuery
	}
	query, err := r.embedder.Embed(ctx, excerpt.TruncateTokens(QueryText(persona, job), r.opts.MaxEmbedTokens))
	if err != nil {
		r.log.Error("query embedding failed", "error", err)
		return doctree.RankedResult{}, fmt.Errorf("embed query: %w", err)
	}

	names := make([]string, 0, len(docs))
	var sections []doctree.Section
	for _, d := range docs {
		names = append(names, d.Name)
		sections = append(sections, r.Sections(d)...)
	}
	if len(sections) == 0 {
		r.log.Warn("no sections found after extraction and filtering", "documents", len(docs))
	}

	if err := r.Score(ctx, query, sections); err != nil {
		r.log.Error("section embedding failed", "error", err)
		return doctree.RankedResult{}, err
	}
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].RelevanceScore > sections[j].RelevanceScore
	})

	res := doctree.RankedResult{
		Metadata: doctree.Metadata{
			InputDocuments:      names,
			Persona:             persona,
			JobToBeDone:         job,
			ProcessingTimestamp: r.now().Format(TimestampFormat),
		},
		ExtractedSections:  make([]doctree.ExtractedSection, 0, len(sections)),
		SubSectionAnalysis: make([]doctree.SubSection, 0, len(sections)),
	}
	for i, s := range sections {
		res.ExtractedSections = append(res.ExtractedSections, doctree.ExtractedSection{
			Document:       s.Document,
			PageNumber:     s.PageNumber,
			SectionTitle:   s.SectionTitle,
			ImportanceRank: i + 1,
		})
		res.SubSectionAnalysis = append(res.SubSectionAnalysis, doctree.SubSection{
			Document:    s.Document,
			RefinedText: s.RefinedText,
			PageNumber:  s.PageNumber,
		})
	}
	return res, nil
}
