package api

import (
	"net/http"

	"github.com/dgallion1/outline/internal/doctree"
	"github.com/dgallion1/outline/internal/editing"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	t := s.sess.Tree()
	active := ""
	if n, ok := s.sess.Active(); ok {
		active, _ = t.PathOf(n.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active":  active,
		"version": t.Version(),
		"nodes":   outline(t, t.Roots()),
	})
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(s.sess.Markdown()))
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	t := s.sess.Tree()
	id, err := t.NodeAt(chi.URLParam(r, "path"))
	if err != nil {
		sessionError(w, err)
		return
	}
	v := view(t, id, true)
	v.Children = outline(t, t.Children(id))
	writeJSON(w, http.StatusOK, map[string]any{
		"node":       v,
		"breadcrumb": t.Breadcrumb(id),
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.sess.SelectPath(req.Path); err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.activeView())
}

// handleBody replaces the active body. With a key the auto-indent rules for
// that key are applied first.
func (s *Server) handleBody(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body   string `json:"body"`
		Cursor *int   `json:"cursor"`
		Key    string `json:"key"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	cursor := len(req.Body)
	if req.Cursor != nil {
		cursor = *req.Cursor
	}

	var err error
	if req.Key != "" {
		err = s.sess.Type(req.Body, cursor, editing.Key(req.Key))
	} else {
		err = s.sess.Edit(req.Body, cursor)
	}
	if err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.activeView())
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	applied := s.sess.Undo()
	resp := s.activeView()
	resp["applied"] = applied
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	applied := s.sess.Redo()
	resp := s.activeView()
	resp["applied"] = applied
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInsertSibling(w http.ResponseWriter, r *http.Request) {
	s.inserted(w, s.sess.InsertSibling)
}

func (s *Server) handleInsertChild(w http.ResponseWriter, r *http.Request) {
	s.inserted(w, s.sess.InsertChild)
}

func (s *Server) inserted(w http.ResponseWriter, insert func() (doctree.NodeID, error)) {
	if _, err := insert(); err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.activeView())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Delete(); err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.activeView())
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.sess.Rename(req.Title); err != nil {
		sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.activeView())
}

// handleMove reparents the node at path. An empty parent means top level.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path   string `json:"path"`
		Parent string `json:"parent"`
		Index  int    `json:"index"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	t := s.sess.Tree()
	id, err := t.NodeAt(req.Path)
	if err != nil {
		sessionError(w, err)
		return
	}
	parent := doctree.Root
	if req.Parent != "" {
		if parent, err = t.NodeAt(req.Parent); err != nil {
			sessionError(w, err)
			return
		}
	}
	if err := s.sess.Move(id, parent, req.Index); err != nil {
		sessionError(w, err)
		return
	}
	v := view(t, id, false)
	writeJSON(w, http.StatusOK, map[string]any{"node": v})
}
