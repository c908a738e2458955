package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Venue search limits.
const (
	defaultPaperLimit = 10
	maxPaperLimit     = 10
)

// resolveAuthor handles GET /authors/resolve?name=.
func (s *Server) resolveAuthor(w http.ResponseWriter, r *http.Request) {
	name, ok := requiredQuery(w, r, "name")
	if !ok {
		return
	}

	author, err := s.authors.ResolveAuthor(r.Context(), name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, author)
}

// getAuthorByExternalID handles GET /authors/external/{externalID}.
func (s *Server) getAuthorByExternalID(w http.ResponseWriter, r *http.Request) {
	author, err := s.authors.GetAuthorByID(r.Context(), chi.URLParam(r, "externalID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, author)
}

// searchVenuePapers handles GET /conferences/papers?name=&limit=.
func (s *Server) searchVenuePapers(w http.ResponseWriter, r *http.Request) {
	name, ok := requiredQuery(w, r, "name")
	if !ok {
		return
	}

	limit := defaultPaperLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPaperLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 10")
			return
		}
		limit = n
	}

	papers := s.authors.SearchPapersByVenue(r.Context(), name, limit)
	writeJSON(w, http.StatusOK, venuePapersResponse{Papers: papers, Count: len(papers)})
}

// getConferenceInfo handles GET /conferences/info?name=.
func (s *Server) getConferenceInfo(w http.ResponseWriter, r *http.Request) {
	name, ok := requiredQuery(w, r, "name")
	if !ok {
		return
	}

	info, err := s.authors.GetConferenceInfo(r.Context(), name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// classify handles POST /classify.
func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if msg := validateStruct(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	cls, err := s.classifier.Classify(req.Name, req.Titles)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cls)
}

// rank handles POST /rank.
func (s *Server) rank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if msg := validateStruct(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	writeJSON(w, http.StatusOK, s.ranker.Rank(r.Context(), req.Classification, req.Papers))
}

func requiredQuery(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		writeError(w, http.StatusBadRequest, key+" query parameter is required")
		return "", false
	}
	return v, true
}
