package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dgallion1/outline/internal/parser"
	"github.com/dgallion1/outline/internal/pipeline"
	"github.com/dgallion1/outline/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/go-homedir"
)

// handleSave writes the document. The optional JSON body {"backup": bool}
// overrides the configured backup policy.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Backup *bool `json:"backup"`
	}{}
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	backup := s.cfg.Backup
	if req.Backup != nil {
		backup = *req.Backup
	}

	res, err := s.sess.Save(backup)
	if err != nil {
		if errors.Is(err, session.ErrNoFile) {
			jsonError(w, err.Error(), http.StatusConflict)
			return
		}
		jsonError(w, "save failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	resp := map[string]any{"path": res.Path, "bytes": res.Bytes}
	if res.Warning != nil {
		resp["warning"] = res.Warning.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleOpen switches the session to another document file, {"path": ...},
// and remembers it for the next start.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Path == "" {
		jsonError(w, "path is required", http.StatusBadRequest)
		return
	}
	path, err := homedir.Expand(req.Path)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.sess.Open(path); err != nil {
		sessionError(w, err)
		return
	}
	s.log.Info("document opened", "path", path)
	s.writeDocument(w)
}

// handleReload discards unsaved changes by rereading the document file.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Reload(); err != nil {
		sessionError(w, err)
		return
	}
	s.writeDocument(w)
}

// handleRestore replaces the outline with the file's last backup. Nothing is
// written until the next save.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Restore(); err != nil {
		sessionError(w, err)
		return
	}
	s.writeDocument(w)
}

func (s *Server) writeDocument(w http.ResponseWriter) {
	resp := s.activeView()
	resp["file"] = s.sess.Path()
	resp["nodes"] = s.sess.Tree().Len()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	page, err := s.sess.ExportHTML("")
	if err != nil {
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

// handleImport grafts an uploaded file under a new top-level node. With
// ?async=true the file is parsed by the background pipeline and the job is
// returned instead.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		job := pipeline.NewJob(filename, data)
		if err := s.imports.Submit(job); err != nil {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.log.Info("import queued", "job_id", job.ID, "filename", filename, "size", len(data))
		writeJSON(w, http.StatusAccepted, job.Snapshot())
		return
	}

	if _, err := s.sess.ImportReader(bytes.NewReader(data), filename); err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusCreated, s.activeView())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job := s.imports.GetJob(chi.URLParam(r, "id"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
