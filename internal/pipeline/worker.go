package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docintel/internal/store"
)

// Worker processes a single ranking job.
type Worker struct {
	runner *Runner
	store  *store.Store
	log    *slog.Logger
}

func NewWorker(runner *Runner, st *store.Store, log *slog.Logger) *Worker {
	return &Worker{runner: runner, store: st, log: log}
}

// Process prepares every document of the job, ranks the sections and stores
// the result. Temp files of the job are released when it finishes.
func (w *Worker) Process(ctx context.Context, job *Job) {
	defer job.release()
	log := w.log.With("job_id", job.ID)

	// Phase 1: outlines and page text.
	job.SetStatus(StatusPreparing, "preparing")
	inputs := job.Inputs()
	docs, err := w.runner.Prepare(ctx, inputs, job.IncrDocumentsProcessed)
	if err != nil {
		log.Error("prepare failed", "error", err)
		job.AddError(fmt.Sprintf("prepare: %s", err))
		job.SetStatus(StatusFailed, "preparing")
		return
	}

	// Phase 2: rank.
	job.SetStatus(StatusRanking, "ranking")
	res, err := w.runner.Ranker().Rank(ctx, job.Persona, job.JobToBeDone, docs)
	if err != nil {
		log.Error("ranking failed", "error", err)
		job.AddError(fmt.Sprintf("rank: %s", err))
		job.SetStatus(StatusFailed, "ranking")
		return
	}
	job.SetResult(res)
	log.Info("ranking complete", "documents", len(inputs), "sections", len(res.ExtractedSections))

	// Phase 3: persist.
	if w.store != nil {
		job.SetStatus(StatusStoring, "storing")
		if err := w.store.PutResult(ctx, job.ID, res); err != nil {
			log.Warn("result store failed", "error", err)
			job.AddError(fmt.Sprintf("store: %s", err))
		}
	}
	job.SetStatus(StatusCompleted, "done")
}
