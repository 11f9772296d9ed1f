// Package pagetext obtains the raw text of each page together with its
// language. Strategies are tried in order; a later strategy runs when the
// previous one failed, or when its text is tagged hi or mr but holds no
// Devanagari.
package pagetext

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/lang"
	"github.com/dgallion1/docintel/internal/normalize"
)

// Strategy produces the text of one page.
type Strategy interface {
	Name() string
	PageText(ctx context.Context, page int) (string, error)
}

// Result is the outcome for one page. Strategy names the strategy whose text
// was kept, or is empty when every strategy was exhausted.
type Result struct {
	Page     int
	Text     string
	Lang     doctree.Lang
	Strategy string
	Errors   []error
}

// StrategyError records a failed strategy.
type StrategyError struct {
	Strategy string
	Page     int
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("%s: page %d: %v", e.Strategy, e.Page, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// Chain runs strategies in order.
type Chain struct {
	strategies []Strategy
	classifier *lang.Classifier
	log        *slog.Logger
}

func NewChain(c *lang.Classifier, log *slog.Logger, strategies ...Strategy) *Chain {
	if log == nil {
		log = slog.Default()
	}
	return &Chain{strategies: strategies, classifier: c, log: log}
}

// needsFallback reports whether text tagged l was likely decoded through a
// broken font mapping.
func needsFallback(text string, l doctree.Lang) bool {
	return l.IsDevanagari() && normalize.HasInvalidDevanagari(text)
}

// Page extracts one page. A failed strategy contributes empty text, keeps the
// previous language tag and is recorded in Errors; the next strategy is then
// tried.
func (c *Chain) Page(ctx context.Context, page int) Result {
	res := Result{Page: page, Lang: doctree.LangEN}
	failed := false
	for i, s := range c.strategies {
		if i > 0 && !failed && !needsFallback(res.Text, res.Lang) {
			break
		}
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, err)
			break
		}
		text, err := s.PageText(ctx, page)
		if err != nil {
			res.Errors = append(res.Errors, &StrategyError{Strategy: s.Name(), Page: page, Err: err})
			res.Text, res.Strategy = "", ""
			failed = true
			continue
		}
		failed = false
		res.Text, res.Strategy = text, s.Name()
		res.Lang = c.classifier.Detect(text)
	}
	if needsFallback(res.Text, res.Lang) {
		res.Text, res.Strategy = "", ""
	}
	if len(res.Errors) > 0 {
		c.log.Warn("page text fallback", "page", page, "strategy", res.Strategy, "errors", len(res.Errors))
	}
	return res
}

// Pages extracts pages 1..n in order.
func (c *Chain) Pages(ctx context.Context, n int) []Result {
	out := make([]Result, 0, n)
	for p := 1; p <= n; p++ {
		out = append(out, c.Page(ctx, p))
	}
	return out
}
