package api

import (
	"net/http"
)

func (s *Server) found(w http.ResponseWriter, status string, ok bool) {
	resp := map[string]any{"found": ok, "status": status}
	if ok {
		for k, v := range s.activeView() {
			resp[k] = v
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}
	_, status, ok := s.sess.Find(q)
	s.found(w, status, ok)
}

func (s *Server) handleFindNext(w http.ResponseWriter, r *http.Request) {
	_, status, ok := s.sess.FindNext()
	s.found(w, status, ok)
}

func (s *Server) handleFindPrevious(w http.ResponseWriter, r *http.Request) {
	_, status, ok := s.sess.FindPrevious()
	s.found(w, status, ok)
}

func (s *Server) handleResetFind(w http.ResponseWriter, r *http.Request) {
	s.sess.ResetFind()
	w.WriteHeader(http.StatusNoContent)
}
