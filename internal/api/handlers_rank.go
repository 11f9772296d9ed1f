package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docintel/internal/pipeline"
)

// handleRank queues a ranking job over the uploaded files.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	persona := strings.TrimSpace(r.FormValue("persona"))
	task := strings.TrimSpace(r.FormValue("job_to_be_done"))
	if persona == "" && task == "" {
		jsonError(w, "persona or job_to_be_done is required", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	inputs := make([]pipeline.Input, 0, len(files))
	cleanups := make([]func(), 0, len(files))
	release := func() {
		for _, fn := range cleanups {
			fn()
		}
	}
	for _, fh := range files {
		in, _, cleanup, err := s.spoolUpload(fh)
		if err != nil {
			release()
			writeUploadError(w, err)
			return
		}
		inputs = append(inputs, in)
		cleanups = append(cleanups, cleanup)
	}

	job := pipeline.NewJob(persona, task, inputs, cleanups...)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     job.ID,
		"status":     pipeline.StatusQueued,
		"documents":  len(inputs),
		"poll_url":   fmt.Sprintf("/api/jobs/%s", job.ID),
		"result_url": fmt.Sprintf("/api/jobs/%s/result", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	res, ok, err := s.orchestrator.Result(r.Context(), jobID)
	if err != nil {
		jsonError(w, "failed to load result: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if ok {
		writeJSON(w, http.StatusOK, res)
		return
	}
	if job := s.orchestrator.GetJob(jobID); job != nil {
		snap := job.Snapshot()
		jsonError(w, fmt.Sprintf("job is %s", snap.Status), http.StatusConflict)
		return
	}
	jsonError(w, "job not found", http.StatusNotFound)
}
