package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/auth"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
)

// handleHealth reports liveness and the state of the import limiter.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"imports": s.service.ImportLimiter().Status(),
	})
}

// SessionRequest asks for a session token. Subject names the operator for
// logs and change events; Role defaults to admin.
type SessionRequest struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

// SessionResponse carries a freshly issued session token.
type SessionResponse struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	Role      auth.Role `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleCreateSession exchanges a valid X-API-Key for a session token.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.issuer == nil {
		respondError(w, r, errSessionsDisabled)
		return
	}

	key := r.Header.Get("X-API-Key")
	if key == "" {
		respondError(w, r, errMissingCredentials)
		return
	}
	if !auth.ValidAPIKey(key, s.cfg.Security.APIKeys) {
		respondError(w, r, auth.ErrInvalidToken)
		return
	}

	var req SessionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, auth.ErrInvalidRole)
		return
	}
	if req.Subject == "" {
		req.Subject = "api-key"
	}
	role := auth.RoleAdmin
	if req.Role != "" {
		parsed, err := auth.ParseRole(req.Role)
		if err != nil {
			respondError(w, r, err)
			return
		}
		role = parsed
	}

	token, err := s.issuer.Issue(auth.Identity{Subject: req.Subject, Role: role})
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("session issued", "subject", req.Subject, "role", role)
	writeJSONStatus(w, http.StatusCreated, SessionResponse{
		Token:     token,
		Subject:   req.Subject,
		Role:      role,
		ExpiresAt: time.Now().Add(s.issuer.TTL()).UTC(),
	})
}
