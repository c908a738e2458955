package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/observability"
)

const defaultMaxBodyBytes = 1 << 20

// createSubmission handles POST /submissions.
// It validates the submission, enriches it and queues it for admin review.
func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	var sub domain.Submission
	if !s.decodeBody(w, r, &sub) {
		return
	}
	if msg := validateStruct(&sub); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	pending, err := s.submissions.Submit(r.Context(), &sub)
	if err != nil {
		s.logFailure(r, err, "submission failed")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPendingResponse(pending))
}

// listPending handles GET /admin/pending.
func (s *Server) listPending(w http.ResponseWriter, r *http.Request) {
	subs, err := s.submissions.ListPending(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]pendingResponse, len(subs))
	for i, sub := range subs {
		out[i] = toPendingResponse(sub)
	}
	writeJSON(w, http.StatusOK, listPendingResponse{Submissions: out, TotalCount: len(out)})
}

// deleteAllPending handles DELETE /admin/pending.
func (s *Server) deleteAllPending(w http.ResponseWriter, r *http.Request) {
	n, err := s.submissions.DeleteAllPending(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{
		Message:      fmt.Sprintf("Deleted %d pending submission(s)", n),
		DeletedCount: n,
	})
}

// getPending handles GET /admin/pending/{submissionID}.
func (s *Server) getPending(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "submissionID"), "submission_id")
	if !ok {
		return
	}

	sub, err := s.submissions.GetPending(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPendingResponse(sub))
}

// updatePending handles PUT /admin/pending/{submissionID}.
// The body is {"payload": {...}}.
func (s *Server) updatePending(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "submissionID"), "submission_id")
	if !ok {
		return
	}

	var req updatePendingRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Payload == nil {
		writeError(w, http.StatusBadRequest, "payload is required")
		return
	}

	sub, err := s.submissions.UpdatePending(r.Context(), id, req.Payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPendingResponse(sub))
}

// approveSubmission handles POST /admin/pending/{submissionID}/approve.
func (s *Server) approveSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "submissionID"), "submission_id")
	if !ok {
		return
	}

	result, err := s.submissions.Approve(r.Context(), id)
	if err != nil {
		s.logFailure(r, err, "approval failed")
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, approveResponse{
		Message:        "Conference created with papers and authors",
		ApprovalResult: result,
	})
}

// rejectSubmission handles POST /admin/pending/{submissionID}/reject.
func (s *Server) rejectSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "submissionID"), "submission_id")
	if !ok {
		return
	}

	if err := s.submissions.Reject(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rejectResponse{Message: "Submission rejected", ID: id.String()})
}

// recomputeRank handles POST /admin/pending/{submissionID}/rank.
func (s *Server) recomputeRank(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "submissionID"), "submission_id")
	if !ok {
		return
	}

	sub, err := s.submissions.RecomputeRank(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPendingResponse(sub))
}

// refreshAuthor handles POST /admin/authors/{authorID}/refresh.
func (s *Server) refreshAuthor(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "authorID"), "author_id")
	if !ok {
		return
	}

	author, err := s.submissions.RefreshAuthor(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAuthorResponse(author))
}

// clearCaches handles DELETE /admin/cache.
func (s *Server) clearCaches(w http.ResponseWriter, _ *http.Request) {
	s.submissions.ClearCaches()
	writeJSON(w, http.StatusOK, map[string]string{"message": "caches cleared"})
}

// decodeBody reads a size-limited JSON body into v. It writes a 400 and
// returns false on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if int64(len(body)) > s.cfg.MaxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}
	return true
}

func (s *Server) logFailure(r *http.Request, err error, msg string) {
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidState) {
		return
	}
	logger := observability.LoggerFromContext(r.Context(), s.logger)
	logger.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			writeError(w, http.StatusNotFound, nf.Error())
		} else {
			writeError(w, http.StatusNotFound, "resource not found")
		}
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrInvalidState):
		var se *domain.StateError
		if errors.As(err, &se) {
			writeError(w, http.StatusBadRequest, se.Message)
		} else {
			writeError(w, http.StatusBadRequest, "invalid state")
		}
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "resource already exists")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	case errors.Is(err, domain.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "upstream timeout")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseUUID parses s or writes a 400.
func parseUUID(w http.ResponseWriter, s, fieldName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a valid UUID", fieldName))
		return uuid.Nil, false
	}
	return id, true
}
