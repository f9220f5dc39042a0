package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/mhpenta/stylegen"
)

const maxJSONBody = 64 << 10

type sessionResponse struct {
	ID        string `json:"id"`
	ModeID    string `json:"modeId,omitempty"`
	HasAPIKey bool   `json:"hasApiKey"`
	stylegen.State
}

type selectModeRequest struct {
	ModeID string `json:"modeId"`
}

type credentialsRequest struct {
	APIKey string `json:"apiKey"`
}

type uploadResponse struct {
	Preview  string `json:"preview"`
	MIMEType string `json:"mimeType"`
	Size     int    `json:"size"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	info := s.orch.Info()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"provider": info.Provider,
		"model":    info.Model,
	})
}

func (s *Server) listModes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Modes().List())
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess := stylegen.NewSession(s.orch)
	if s.defaultAPIKey != "" {
		sess.SetAPIKey(s.defaultAPIKey)
	}
	id := uuid.NewString()

	s.mu.Lock()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		writeError(w, http.StatusServiceUnavailable, "too many sessions")
		return
	}
	s.sessions[id] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetActiveSessions(count)
	}
	writeJSON(w, http.StatusCreated, s.view(sessionRef{id: id, session: sess}, sess.Snapshot()))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	ref := sessionFrom(r)
	writeJSON(w, http.StatusOK, s.view(ref, ref.session.Snapshot()))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	ref := sessionFrom(r)

	s.mu.Lock()
	delete(s.sessions, ref.id)
	count := len(s.sessions)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetActiveSessions(count)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) selectMode(w http.ResponseWriter, r *http.Request) {
	var req selectModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref := sessionFrom(r)
	ref.session.SelectMode(req.ModeID)
	writeJSON(w, http.StatusOK, s.view(ref, ref.session.Snapshot()))
}

func (s *Server) setCredentials(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref := sessionFrom(r)
	ref.session.SetAPIKey(req.APIKey)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, stylegen.MaxImageSize+(1<<20))

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, stylegen.ErrImageTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"image\" is required")
		return
	}
	defer file.Close()

	up, err := stylegen.ReadImage(file, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sessionFrom(r).session.SetImage(up.Image)
	writeJSON(w, http.StatusOK, uploadResponse{
		Preview:  up.Preview,
		MIMEType: up.Image.MIMEType,
		Size:     len(up.Image.Data),
	})
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	ref := sessionFrom(r)
	st, err := ref.session.Generate(r.Context())

	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, stylegen.ErrGenerationInFlight):
		status = http.StatusConflict
	case stylegen.IsValidationError(err):
		status = http.StatusUnprocessableEntity
	case stylegen.IsRateLimitError(err):
		status = http.StatusTooManyRequests
		var rlErr *stylegen.RateLimitError
		if errors.As(err, &rlErr) && rlErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rlErr.RetryAfter.Seconds()))))
		}
	default:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, s.view(ref, st))
}

func (s *Server) clearError(w http.ResponseWriter, r *http.Request) {
	ref := sessionFrom(r)
	ref.session.ClearError()
	writeJSON(w, http.StatusOK, s.view(ref, ref.session.Snapshot()))
}

func (s *Server) view(ref sessionRef, st stylegen.State) sessionResponse {
	if st.History == nil {
		st.History = []stylegen.GeneratedImage{}
	}
	return sessionResponse{
		ID:        ref.id,
		ModeID:    ref.session.ModeID(),
		HasAPIKey: ref.session.HasAPIKey(),
		State:     st,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
