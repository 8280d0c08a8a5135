package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
	"github.com/ziadkadry99/lecturedoc/internal/render"
	"github.com/ziadkadry99/lecturedoc/internal/search"
	"github.com/ziadkadry99/lecturedoc/internal/source"
	"github.com/ziadkadry99/lecturedoc/internal/viewer"
)

// ensureLoaded loads the catalog on first use, so a server started while
// offline without a cache recovers once the source is reachable.
func (s *Server) ensureLoaded(ctx context.Context) error {
	if s.viewer.Snapshot() != nil {
		return nil
	}
	return s.viewer.Load(ctx)
}

// statusFor maps viewer errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, viewer.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, source.ErrFetch), errors.Is(err, catalog.ErrDecode):
		return http.StatusBadGateway
	case errors.Is(err, viewer.ErrNoSnapshot):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func cacheHeader(res *viewer.Result) string {
	if res.FromCache {
		return "hit"
	}
	return "miss"
}

// navState reads the sidebar state for a lecture page. The lecture is
// expanded unless ?expanded names another lecture or "none".
func navState(r *http.Request, id string) render.NavState {
	state := render.NavState{Selected: id, Expanded: id}
	switch q := r.URL.Query().Get("expanded"); q {
	case "":
	case "none":
		state.Expanded = ""
	default:
		state.Expanded = q
	}
	return state
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.ensureLoaded(r.Context()); err != nil {
		s.writePage(w, statusFor(err), "", render.NavState{}, render.ErrorHTML(err))
		return
	}
	id, ok := s.viewer.Default()
	if !ok {
		s.writePage(w, http.StatusNotFound, "", render.NavState{}, render.ErrorHTML(errors.New("the catalog has no lectures")))
		return
	}
	http.Redirect(w, r, "/lectures/"+url.PathEscape(id), http.StatusFound)
}

func handleStylesheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write([]byte(render.Stylesheet))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state := navState(r, id)

	if err := s.ensureLoaded(r.Context()); err != nil {
		s.logger.Error("loading catalog", "error", err)
		s.writePage(w, statusFor(err), "", state, render.ErrorHTML(err))
		return
	}

	res, err := s.viewer.Select(r.Context(), id)
	if err != nil {
		s.logger.Error("selecting lecture", "lecture", id, "error", err)
		s.writePage(w, statusFor(err), "", state, render.ErrorHTML(err))
		return
	}

	w.Header().Set("X-Cache", cacheHeader(res))
	s.writePage(w, http.StatusOK, res.Name, state, res.HTML)
}

func (s *Server) writePage(w http.ResponseWriter, status int, title string, state render.NavState, article string) {
	var nav string
	if s.viewer.Catalog() != nil {
		var err error
		if nav, err = s.viewer.Nav(state, render.ServerLinks); err != nil {
			s.logger.Error("rendering nav", "error", err)
		}
	}

	page, err := render.Page(render.PageData{
		Title:      title,
		Stylesheet: "/style.css",
		Nav:        template.HTML(nav),
		Article:    template.HTML(article),
		LiveReload: true,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(page))
}

type lecturesResponse struct {
	Lectures    []render.NavItem `json:"lectures"`
	Fingerprint string           `json:"fingerprint"`
	Offline     bool             `json:"offline"`
}

func (s *Server) handleLectures(w http.ResponseWriter, r *http.Request) {
	if err := s.ensureLoaded(r.Context()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	q := r.URL.Query()
	state := render.NavState{Selected: q.Get("selected"), Expanded: q.Get("expanded")}

	writeJSON(w, http.StatusOK, lecturesResponse{
		Lectures:    s.viewer.NavItems(state, render.ServerLinks),
		Fingerprint: s.viewer.Snapshot().Fingerprint,
		Offline:     s.viewer.Offline(),
	})
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := s.ensureLoaded(r.Context()); err != nil {
		w.WriteHeader(statusFor(err))
		w.Write([]byte(render.ErrorHTML(err)))
		return
	}

	res, err := s.viewer.Select(r.Context(), id)
	if err != nil {
		w.WriteHeader(statusFor(err))
		w.Write([]byte(render.ErrorHTML(err)))
		return
	}
	w.Header().Set("X-Cache", cacheHeader(res))
	w.Write([]byte(res.HTML))
}

type refreshResponse struct {
	Changed     bool   `json:"changed"`
	Fingerprint string `json:"fingerprint"`
	Offline     bool   `json:"offline"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.viewer.Snapshot() == nil {
		if err := s.viewer.Load(r.Context()); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		s.hub.Broadcast(Event{Type: EventChanged, Fingerprint: s.viewer.Snapshot().Fingerprint})
		writeJSON(w, http.StatusOK, refreshResponse{Changed: true, Fingerprint: s.viewer.Snapshot().Fingerprint, Offline: s.viewer.Offline()})
		return
	}

	changed, err := s.refresh(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Changed:     changed,
		Fingerprint: s.viewer.Snapshot().Fingerprint,
		Offline:     s.viewer.Offline(),
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.viewer.Cache().Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.viewer.Cache().Clear(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cleared": n})
}

type searchRequest struct {
	Query     string `json:"query"`
	Limit     int    `json:"limit,omitempty"`
	LectureID string `json:"lecture_id,omitempty"`
}

type searchResponse struct {
	Results []search.Hit `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("search is not configured"))
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	hits, err := s.index.Search(r.Context(), req.Query, req.Limit, req.LectureID)
	if errors.Is(err, search.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: hits})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
