// Package auth issues and verifies operator session tokens.
//
// Sessions are HS256-signed JWTs carrying the operator's subject and role.
// The role decides which marker operations the operator may perform:
//
//	admin   - everything
//	editor  - read, create, update, delete, import, export
//	viewer  - read and export
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role names an operator role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

var roles = []Role{RoleAdmin, RoleEditor, RoleViewer}

// DefaultSessionTTL is used when an Issuer is created without a TTL.
const DefaultSessionTTL = 12 * time.Hour

var (
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidRole is returned when a token or identity names an unknown role.
	ErrInvalidRole = errors.New("invalid role")

	// ErrMissingSecret is returned by NewIssuer without a signing secret.
	ErrMissingSecret = errors.New("auth signing secret is required")
)

// ParseRole validates s as a role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !slices.Contains(roles, r) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Identity is the authenticated caller of a request.
type Identity struct {
	Subject string `json:"subject"`
	Role    Role   `json:"role"`
}

// CanEdit reports whether the identity may change markers and options.
func (id Identity) CanEdit() bool {
	return id.Role == RoleAdmin || id.Role == RoleEditor
}

// CanExport reports whether the identity may download exports.
func (id Identity) CanExport() bool {
	return slices.Contains(roles, id.Role)
}

// Issuer signs and verifies session tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A zero ttl means DefaultSessionTTL.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed session token for id.
func (i *Issuer) Issue(id Identity) (string, error) {
	if id.Subject == "" {
		return "", errors.New("auth: identity subject is required")
	}
	if _, err := ParseRole(string(id.Role)); err != nil {
		return "", err
	}

	now := i.now()
	claims := jwt.MapClaims{
		"sub":  id.Subject,
		"role": string(id.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(i.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks the signature and expiry of tokenString and returns the
// identity it carries.
func (i *Issuer) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	subject, _ := claims["sub"].(string)
	roleName, _ := claims["role"].(string)
	if subject == "" {
		return nil, ErrInvalidToken
	}
	role, err := ParseRole(roleName)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{Subject: subject, Role: role}, nil
}

// ValidAPIKey reports whether key matches one of validKeys.
// Every key is compared so the timing does not depend on which one matched.
func ValidAPIKey(key string, validKeys []string) bool {
	if key == "" {
		return false
	}
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
