package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"mollie-gateway/internal/infra/logging"
)

var (
	errMissingToken = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
)

// HostClaims identify the billing host calling the dispatch routes.
// An empty Modules list grants every module.
type HostClaims struct {
	Modules []string `json:"modules,omitempty"`
	jwt.RegisteredClaims
}

func (c *HostClaims) allows(module string) bool {
	if len(c.Modules) == 0 {
		return true
	}
	for _, m := range c.Modules {
		if strings.EqualFold(m, module) {
			return true
		}
	}
	return false
}

// AuthManager verifies HS256 bearer tokens signed with the shared host secret.
type AuthManager struct {
	secret []byte
	issuer string
}

func NewAuthManager(secret string) *AuthManager {
	return &AuthManager{secret: []byte(secret), issuer: "billing-host"}
}

// Mint signs a token for subject. Used by tooling and tests; the host
// normally mints its own.
func (a *AuthManager) Mint(subject string, ttl time.Duration, modules ...string) (string, error) {
	now := time.Now()
	claims := HostClaims{
		Modules: modules,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*HostClaims, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return nil, errMissingToken
	}
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return nil, errInvalidToken
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *AuthManager) parse(tok string) (*HostClaims, error) {
	claims := &HostClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tkn.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

// Require rejects requests without a valid host token for the routed module.
func (a *AuthManager) Require(logger *zerolog.Logger, module func(r *http.Request) string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.ParseFromRequest(r)
			if err != nil {
				logging.With(r.Context(), logger).Warn().Err(err).Msg("host auth failed")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !claims.allows(module(r)) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
