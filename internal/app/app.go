// Package app assembles the long-lived services shared by the server and
// the command-line tool.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docintel/internal/config"
	"github.com/dgallion1/docintel/internal/embed"
	"github.com/dgallion1/docintel/internal/lang"
	"github.com/dgallion1/docintel/internal/normalize"
	"github.com/dgallion1/docintel/internal/ocr"
	"github.com/dgallion1/docintel/internal/outline"
	"github.com/dgallion1/docintel/internal/pagetext"
	"github.com/dgallion1/docintel/internal/pipeline"
	"github.com/dgallion1/docintel/internal/rank"
	"github.com/dgallion1/docintel/internal/store"
	"github.com/dgallion1/docintel/internal/tables"
)

// App holds the services built from a Config. The embedder is constructed
// once here and reused for every ranking run.
type App struct {
	Runner   *pipeline.Runner
	Store    *store.Store
	Embedder embed.Embedder
	Stats    *embed.Stats // nil for the local hash embedder

	closers []func() error
}

// Options adjusts what Build creates.
type Options struct {
	// NoStore skips opening the outline cache.
	NoStore bool
}

// Build wires the pipeline. OCR is attached only when compiled in.
func Build(cfg config.Config, opts Options, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{}

	classifier := lang.NewClassifier(nil)
	normalizer := normalize.New(normalize.Options{PunctuationFallback: cfg.PunctuationFallback})

	switch cfg.EmbedProvider {
	case config.EmbedOpenAI:
		a.Stats = embed.NewStats(15 * time.Minute)
		e := embed.NewOpenAI(embed.OpenAIConfig{
			BaseURL:    cfg.EmbedBaseURL,
			APIKey:     cfg.EmbedAPIKey,
			Model:      cfg.EmbedModel,
			Dimensions: cfg.EmbedDimensions,
			Timeout:    cfg.EmbedTimeout,
			MaxRetries: cfg.EmbedMaxRetries,
		}, a.Stats, log)
		a.Embedder = e
		a.closers = append(a.closers, func() error { e.Close(); return nil })
	case config.EmbedHash, "":
		a.Embedder = embed.NewHash(cfg.EmbedDimensions)
	default:
		return nil, fmt.Errorf("unknown embed provider %q", cfg.EmbedProvider)
	}

	factory := pagetext.Factory{Classifier: classifier, Log: log}
	client, err := ocr.New(cfg.OCRLanguages)
	switch {
	case err == nil:
		factory.Recognizer = client
		a.closers = append(a.closers, client.Close)
	case errors.Is(err, ocr.ErrOCRNotEnabled):
		log.Info("ocr disabled in this build")
	default:
		log.Warn("ocr unavailable", "error", err)
	}

	if !opts.NoStore && cfg.StorePath != "" {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Store = st
		a.closers = append(a.closers, st.Close)
	}

	ranker := rank.New(a.Embedder, rank.Options{
		ExcerptSize:    cfg.ExcerptSize,
		KeywordFilter:  cfg.KeywordFilter,
		Keywords:       cfg.Keywords,
		MaxEmbedTokens: cfg.MaxEmbedTokens,
	}, log)

	a.Runner = pipeline.NewRunner(pipeline.RunnerDeps{
		Outlines: outline.NewExtractor(classifier, normalizer, log),
		Tables:   tables.NewExtractor(classifier, normalizer, log),
		PageText: factory,
		Ranker:   ranker,
		Store:    a.Store,
		Parallel: cfg.ParallelDocuments,
	}, log)
	return a, nil
}

// Close releases services in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
