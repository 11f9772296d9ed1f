package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docintel/internal/layout"
	"github.com/dgallion1/docintel/internal/pipeline"
)

// handleOutline extracts the outline of one uploaded document synchronously.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}

	in, hash, cleanup, err := s.spoolUpload(files[0])
	if err != nil {
		writeUploadError(w, err)
		return
	}
	defer cleanup()

	outline := s.orchestrator.Runner().Outline(r.Context(), in)
	w.Header().Set("X-Content-Hash", hash)
	writeJSON(w, http.StatusOK, outline)
}

// uploadError carries the status code for a rejected upload.
type uploadError struct {
	msg  string
	code int
}

func (e *uploadError) Error() string { return e.msg }

// spoolUpload validates one uploaded file and copies it to a temp file.
func (s *Server) spoolUpload(fh *multipart.FileHeader) (pipeline.Input, string, func(), error) {
	filename := sanitizeFilename(fh.Filename)
	if !layout.IsSupportedExtension(filename) {
		return pipeline.Input{}, "", nil, &uploadError{
			msg:  fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)),
			code: http.StatusBadRequest,
		}
	}

	f, err := fh.Open()
	if err != nil {
		return pipeline.Input{}, "", nil, &uploadError{msg: "failed to open file", code: http.StatusBadRequest}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return pipeline.Input{}, "", nil, &uploadError{msg: "failed to read file", code: http.StatusInternalServerError}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return pipeline.Input{}, "", nil, &uploadError{
			msg:  fmt.Sprintf("%s exceeds max size (%d bytes)", filename, s.cfg.MaxUploadBytes),
			code: http.StatusRequestEntityTooLarge,
		}
	}

	path, cleanup, err := layout.SpoolTemp(bytes.NewReader(data), filename)
	if err != nil {
		return pipeline.Input{}, "", nil, err
	}
	return pipeline.Input{Name: filename, Path: path}, pipeline.ContentHashHex(data), cleanup, nil
}

func writeUploadError(w http.ResponseWriter, err error) {
	var ue *uploadError
	if errors.As(err, &ue) {
		jsonError(w, ue.msg, ue.code)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
