package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docintel/internal/doctree"
	"github.com/dgallion1/docintel/internal/layout"
	"github.com/dgallion1/docintel/internal/outline"
	"github.com/dgallion1/docintel/internal/pagetext"
	"github.com/dgallion1/docintel/internal/rank"
	"github.com/dgallion1/docintel/internal/store"
	"github.com/dgallion1/docintel/internal/tables"
)

// Input is a document to process. Name is what appears in results; Path is
// where the bytes live, which may be a spooled temp file.
type Input struct {
	Name string
	Path string
}

// FileInputs names each path by its base name.
func FileInputs(paths ...string) []Input {
	out := make([]Input, len(paths))
	for i, p := range paths {
		out[i] = Input{Name: filepath.Base(p), Path: p}
	}
	return out
}

// Runner wires the extraction stages for a batch of documents.
type Runner struct {
	outlines *outline.Extractor
	tables   *tables.Extractor
	pagetext pagetext.Factory
	ranker   *rank.Ranker
	store    *store.Store
	parallel int
	log      *slog.Logger
}

// RunnerDeps are the collaborators of a Runner. Store is optional; without
// it every document is extracted afresh.
type RunnerDeps struct {
	Outlines *outline.Extractor
	Tables   *tables.Extractor
	PageText pagetext.Factory
	Ranker   *rank.Ranker
	Store    *store.Store
	Parallel int
}

func NewRunner(deps RunnerDeps, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if deps.Parallel <= 0 {
		deps.Parallel = 4
	}
	return &Runner{
		outlines: deps.Outlines,
		tables:   deps.Tables,
		pagetext: deps.PageText,
		ranker:   deps.Ranker,
		store:    deps.Store,
		parallel: deps.Parallel,
		log:      log,
	}
}

// Ranker returns the ranker used by Rank.
func (r *Runner) Ranker() *rank.Ranker { return r.ranker }

// Outline returns the outline of one document with its tables merged in.
// Unreadable documents yield an empty outline.
func (r *Runner) Outline(ctx context.Context, in Input) doctree.Outline {
	log := r.log.With("doc", in.Name)
	hash, cached, ok := r.cached(ctx, in, log)
	if ok {
		return cached
	}
	doc, err := layout.Open(in.Path)
	if err != nil {
		log.Warn("open failed", "error", err)
		return doctree.EmptyOutline()
	}
	defer doc.Close()
	return r.build(ctx, in, hash, doc, log)
}

// Outlines processes inputs concurrently. out[i] belongs to inputs[i]. The
// only error is cancellation of ctx.
func (r *Runner) Outlines(ctx context.Context, inputs []Input) ([]doctree.Outline, error) {
	out := make([]doctree.Outline, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = r.Outline(gctx, in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prepare builds the ranking input of every document: its outline and the
// text of each page. done, when set, is called once per finished document.
func (r *Runner) Prepare(ctx context.Context, inputs []Input, done func()) ([]rank.Document, error) {
	out := make([]rank.Document, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = r.prepare(gctx, in)
			if done != nil {
				done()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Runner) prepare(ctx context.Context, in Input) rank.Document {
	log := r.log.With("doc", in.Name)
	d := rank.Document{Name: in.Name, Outline: doctree.EmptyOutline()}

	hash, cached, ok := r.cached(ctx, in, log)
	doc, err := layout.Open(in.Path)
	if err != nil {
		log.Warn("open failed", "error", err)
		if ok {
			d.Outline = cached
		}
		return d
	}
	defer doc.Close()

	if ok {
		d.Outline = cached
	} else {
		d.Outline = r.build(ctx, in, hash, doc, log)
	}

	results := r.pagetext.ForDocument(doc, in.Path).Pages(ctx, doc.PageCount())
	d.Pages = make([]rank.Page, len(results))
	for i, res := range results {
		d.Pages[i] = rank.Page{Text: res.Text, Lang: res.Lang}
	}
	log.Info("document prepared", "headings", len(d.Outline.Outline), "pages", len(d.Pages), "cached", ok)
	return d
}

// Rank prepares inputs and ranks their sections for persona and job.
func (r *Runner) Rank(ctx context.Context, persona, job string, inputs []Input) (doctree.RankedResult, error) {
	docs, err := r.Prepare(ctx, inputs, nil)
	if err != nil {
		return doctree.RankedResult{}, err
	}
	return r.ranker.Rank(ctx, persona, job, docs)
}

// cached hashes the input and looks it up in the store. hash is empty when
// the file could not be read.
func (r *Runner) cached(ctx context.Context, in Input, log *slog.Logger) (hash string, o doctree.Outline, ok bool) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return "", doctree.Outline{}, false
	}
	hash = ContentHashHex(data)
	if r.store == nil {
		return hash, doctree.Outline{}, false
	}
	o, ok, err = r.store.GetOutline(ctx, hash)
	if err != nil {
		log.Warn("outline cache lookup failed", "error", err)
		return hash, doctree.Outline{}, false
	}
	if ok {
		log.Debug("outline cache hit", "hash", hash)
	}
	return hash, o, ok
}

func (r *Runner) build(ctx context.Context, in Input, hash string, doc layout.Document, log *slog.Logger) doctree.Outline {
	o := r.outlines.Build(layout.Collect(doc, log))
	o.Tables = r.tables.Extract(in.Path)
	if r.store != nil && hash != "" {
		if err := r.store.PutOutline(ctx, hash, in.Name, o); err != nil {
			log.Warn("outline cache write failed", "error", err)
		}
	}
	return o
}
