package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"gradebook.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/login",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.auth.Authenticate(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
	})
}

// requireRole returns the caller's claims when its role is one of the
// allowed ones, writing the error response otherwise.
func (a *API) requireRole(w http.ResponseWriter, r *http.Request, roles ...string) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	for _, role := range roles {
		if claims.Role == role {
			return claims, true
		}
	}
	writeError(w, r, http.StatusForbidden, "insufficient role")
	return nil, false
}

func (a *API) requireStaff(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	return a.requireRole(w, r, auth.RoleAdmin, auth.RoleTeacher)
}

func (a *API) requireAdmin(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	return a.requireRole(w, r, auth.RoleAdmin)
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
