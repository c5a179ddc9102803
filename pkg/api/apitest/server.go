// Package apitest provides an in-memory data API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/devicelab-dev/joplin-runner/pkg/api"
)

// Server is a fake data API. Items are listed in creation order.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	folders   []api.Notebook
	notes     []api.Note
	tags      []api.Tag
	noteTags  map[string][]string
	nextID    int
	PageSize  int
	Requests  []string
	FailPaths map[string]int // path -> status code returned instead of serving
}

// NewServer starts a server that is closed with the test.
func NewServer(t testing.TB) *Server {
	s := &Server{
		noteTags:  map[string][]string{},
		PageSize:  10,
		FailPaths: map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Client returns an api.Client pointed at the server.
func (s *Server) Client() *api.Client {
	return api.NewClient(s.URL, api.WithToken("test-token"))
}

func (s *Server) id() string {
	s.nextID++
	return fmt.Sprintf("%032x", s.nextID)
}

// AddNotebook seeds a notebook and returns its ID.
func (s *Server) AddNotebook(nb api.Notebook) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nb.ID == "" {
		nb.ID = s.id()
	}
	s.folders = append(s.folders, nb)
	return nb.ID
}

// AddNote seeds a note and returns its ID.
func (s *Server) AddNote(n api.Note) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = s.id()
	}
	s.notes = append(s.notes, n)
	return n.ID
}

// AddTag seeds a tag and returns its ID.
func (s *Server) AddTag(tag api.Tag) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tag.ID == "" {
		tag.ID = s.id()
	}
	s.tags = append(s.tags, tag)
	return tag.ID
}

// Notebooks returns a copy of the stored notebooks.
func (s *Server) Notebooks() []api.Notebook {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Notebook(nil), s.folders...)
}

// Notes returns a copy of the stored notes.
func (s *Server) Notes() []api.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Note(nil), s.notes...)
}

// Tags returns a copy of the stored tags.
func (s *Server) Tags() []api.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Tag(nil), s.tags...)
}

// UpdateNote changes a stored note as if the UI had done it. It reports
// whether the note exists.
func (s *Server) UpdateNote(id string, change func(*api.Note)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			change(&s.notes[i])
			return true
		}
	}
	return false
}

// RemoveNote deletes a note as if the UI had done it.
func (s *Server) RemoveNote(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = filter(s.notes, func(n api.Note) bool { return n.ID != id })
}

// RemoveNotebook deletes a notebook as if the UI had done it.
func (s *Server) RemoveNotebook(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteFolder(id)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func paginate[T any](w http.ResponseWriter, r *http.Request, size int, items []T) {
	p, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if p < 1 {
		p = 1
	}
	start := (p - 1) * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	page := append([]T{}, items[start:end]...)
	writeJSON(w, map[string]interface{}{"items": page, "has_more": end < len(items)})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, r.Method+" "+r.URL.Path)
	if code, ok := s.FailPaths[r.URL.Path]; ok {
		http.Error(w, "forced failure", code)
		return
	}
	if r.URL.Path == "/ping" {
		w.Write([]byte("JoplinClipperServer"))
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodGet && len(parts) == 1:
		switch parts[0] {
		case "folders":
			paginate(w, r, s.PageSize, s.folders)
		case "notes":
			paginate(w, r, s.PageSize, s.notes)
		case "tags":
			paginate(w, r, s.PageSize, s.tags)
		default:
			http.NotFound(w, r)
		}
	case r.Method == http.MethodGet && len(parts) == 2 && parts[0] == "notes":
		for _, n := range s.notes {
			if n.ID == parts[1] {
				writeJSON(w, n)
				return
			}
		}
		http.NotFound(w, r)
	case r.Method == http.MethodGet && len(parts) == 3 && parts[0] == "folders" && parts[2] == "notes":
		var in []api.Note
		for _, n := range s.notes {
			if n.ParentID == parts[1] {
				in = append(in, n)
			}
		}
		paginate(w, r, s.PageSize, in)
	case r.Method == http.MethodPost && len(parts) == 1:
		s.create(w, r, parts[0])
	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "tags" && parts[2] == "notes":
		var body struct {
			ID string `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		s.noteTags[parts[1]] = append(s.noteTags[parts[1]], body.ID)
		writeJSON(w, map[string]string{})
	case r.Method == http.MethodDelete && len(parts) == 2:
		switch parts[0] {
		case "folders":
			s.deleteFolder(parts[1])
		case "notes":
			s.notes = filter(s.notes, func(n api.Note) bool { return n.ID != parts[1] })
		case "tags":
			s.tags = filter(s.tags, func(t api.Tag) bool { return t.ID != parts[1] })
		}
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, kind string) {
	switch kind {
	case "folders":
		var nb api.Notebook
		json.NewDecoder(r.Body).Decode(&nb)
		if nb.ID == "" {
			nb.ID = s.id()
		}
		s.folders = append(s.folders, nb)
		writeJSON(w, nb)
	case "notes":
		var n api.Note
		json.NewDecoder(r.Body).Decode(&n)
		if n.ID == "" {
			n.ID = s.id()
		}
		if n.ParentID == "" && len(s.folders) > 0 {
			n.ParentID = s.folders[0].ID
		}
		s.notes = append(s.notes, n)
		writeJSON(w, n)
	case "tags":
		var tag api.Tag
		json.NewDecoder(r.Body).Decode(&tag)
		if tag.ID == "" {
			tag.ID = s.id()
		}
		s.tags = append(s.tags, tag)
		writeJSON(w, tag)
	default:
		http.NotFound(w, r)
	}
}

// deleteFolder removes a folder, its sub-folders and their notes.
func (s *Server) deleteFolder(id string) {
	doomed := map[string]bool{id: true}
	for changed := true; changed; {
		changed = false
		for _, f := range s.folders {
			if doomed[f.ParentID] && !doomed[f.ID] {
				doomed[f.ID] = true
				changed = true
			}
		}
	}
	s.folders = filter(s.folders, func(f api.Notebook) bool { return !doomed[f.ID] })
	s.notes = filter(s.notes, func(n api.Note) bool { return !doomed[n.ParentID] })
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := items[:0:0]
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// NoteTags returns the note IDs attached to a tag, sorted.
func (s *Server) NoteTags(tagID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := append([]string(nil), s.noteTags[tagID]...)
	sort.Strings(ids)
	return ids
}
