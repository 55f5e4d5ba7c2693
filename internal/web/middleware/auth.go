package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/auth"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
)

var (
	errMissingCredentials = errors.New("missing credentials")
	errPermissionDenied   = errors.New("permission denied")
)

// AnonymousIdentity is attached to requests when authentication is disabled.
var AnonymousIdentity = auth.Identity{Subject: "anonymous", Role: auth.RoleAdmin}

// AuthConfig configures Authenticate.
type AuthConfig struct {
	// Required rejects requests without valid credentials. When false,
	// requests without credentials run as AnonymousIdentity.
	Required bool
	// Issuer verifies bearer session tokens. May be nil when only API keys
	// are accepted.
	Issuer *auth.Issuer
	// APIKeys are accepted in the X-API-Key header with the admin role.
	APIKeys []string
}

// Authenticate resolves the caller from an "Authorization: Bearer" session
// token or an X-API-Key header and stores the identity in the request
// context. Presented credentials are always checked, even when
// authentication is not required.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := identify(r, cfg)
			if err != nil {
				slog.Warn("auth: rejected credentials",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				writeAuthError(w, http.StatusUnauthorized, err, "Unauthorized")
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), id)
			ctx = core.ContextWithActor(ctx, id.Subject)
			ctx = logging.ContextWith(ctx, "actor", id.Subject, "role", string(id.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identify(r *http.Request, cfg AuthConfig) (auth.Identity, error) {
	if token, ok := bearerToken(r); ok {
		if cfg.Issuer == nil {
			return auth.Identity{}, auth.ErrInvalidToken
		}
		id, err := cfg.Issuer.Verify(token)
		if err != nil {
			return auth.Identity{}, err
		}
		return *id, nil
	}

	if key := r.Header.Get("X-API-Key"); key != "" {
		if !auth.ValidAPIKey(key, cfg.APIKeys) {
			return auth.Identity{}, auth.ErrInvalidToken
		}
		return auth.Identity{Subject: "api-key", Role: auth.RoleAdmin}, nil
	}

	if cfg.Required {
		return auth.Identity{}, errMissingCredentials
	}
	return AnonymousIdentity, nil
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[7:])
	return token, token != ""
}

// RequirePermission rejects callers for which allowed returns false.
// It must run after Authenticate.
func RequirePermission(allowed func(auth.Identity) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, errMissingCredentials, "Unauthorized")
				return
			}
			if !allowed(id) {
				logging.FromContext(r.Context()).Warn("auth: permission denied",
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeAuthError(w, http.StatusForbidden, errPermissionDenied, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CanEdit and CanExport adapt the identity checks for RequirePermission.
func CanEdit(id auth.Identity) bool   { return id.CanEdit() }
func CanExport(id auth.Identity) bool { return id.CanExport() }

func writeAuthError(w http.ResponseWriter, status int, err error, kind string) {
	msg := core.MapError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   msg.Message,
		"message": msg.Message,
		"action":  msg.Action,
		"code":    msg.Code,
		"kind":    kind,
	})
}
