package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"settleline.app/internal/auth"
	"settleline.app/internal/settle"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/api/info",
	"/api/auth/demo-login",
	"/",
}
var publicPrefixes = []string{
	"/api/referrals/qr/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := auth.ParseAndValidate(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			} else {
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		principal := auth.Principal{
			ExternalID: claims.Subject,
			Email:      claims.Email,
			Name:       claims.Name,
			Role:       claims.Role,
		}
		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser resolves the authenticated principal to a stored user,
// provisioning the record on first sight of the identity subject. The
// create/find fallback keeps provisioning idempotent under races.
func (a *API) requireUser(w http.ResponseWriter, r *http.Request) (*settle.User, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}

	user, err := a.store.Users().FindByExternalID(r.Context(), principal.ExternalID)
	if err == nil {
		return user, true
	}
	if !errors.Is(err, settle.ErrNotFound) {
		handleStoreError(w, r, err)
		return nil, false
	}

	user = &settle.User{
		ExternalID: principal.ExternalID,
		Email:      principal.Email,
		Name:       principal.Name,
		Role:       principal.Role,
	}
	if err := a.store.Users().Create(r.Context(), user); err != nil {
		if errors.Is(err, settle.ErrAlreadyExists) {
			user, err = a.store.Users().FindByExternalID(r.Context(), principal.ExternalID)
			if err == nil {
				return user, true
			}
		}
		handleStoreError(w, r, err)
		return nil, false
	}
	a.audit(r.Context(), "user.provision", "user", user.ID, map[string]string{"role": user.Role})
	return user, true
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
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
