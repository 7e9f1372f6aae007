package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/outline/internal/doctree"
	"github.com/dgallion1/outline/internal/session"
)

// nodeView is the JSON form of a node. Body is left out of tree listings.
type nodeView struct {
	ID       doctree.NodeID `json:"id"`
	Path     string         `json:"path"`
	Title    string         `json:"title"`
	Body     *string        `json:"body,omitempty"`
	Children []nodeView     `json:"children,omitempty"`
}

func view(t *doctree.Tree, id doctree.NodeID, withBody bool) nodeView {
	n, _ := t.Get(id)
	path, _ := t.PathOf(id)
	v := nodeView{ID: id, Path: path, Title: n.DisplayTitle()}
	if withBody {
		body := n.Body
		v.Body = &body
	}
	return v
}

func outline(t *doctree.Tree, ids []doctree.NodeID) []nodeView {
	out := make([]nodeView, 0, len(ids))
	for _, id := range ids {
		v := view(t, id, false)
		v.Children = outline(t, t.Children(id))
		out = append(out, v)
	}
	return out
}

// activeView is the selected node with body and breadcrumb.
func (s *Server) activeView() map[string]any {
	n, ok := s.sess.Active()
	if !ok {
		return map[string]any{"node": nil}
	}
	return map[string]any{
		"node":       view(s.sess.Tree(), n.ID, true),
		"breadcrumb": s.sess.Breadcrumb(),
		"cursor":     s.sess.Cursor(),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// sessionError maps a session or tree error to a status code.
func sessionError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, doctree.ErrCannotDeleteLastNode), errors.Is(err, session.ErrNoSelection),
		errors.Is(err, session.ErrNoFile), errors.Is(err, session.ErrNoBackup):
		code = http.StatusConflict
	case errors.Is(err, doctree.ErrNodeNotFound), errors.Is(err, doctree.ErrInvalidPath):
		code = http.StatusNotFound
	case errors.Is(err, doctree.ErrInvalidMove):
		code = http.StatusBadRequest
	}
	jsonError(w, err.Error(), code)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
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
