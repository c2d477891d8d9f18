package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "tenancy/pkg/domain"
	"tenancy/pkg/platform/httputil"
	"tenancy/pkg/requestcontext"
)

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

const unauthenticated = "unauthenticated"

// RequireAuth admits requests carrying a valid bearer token and stores the
// caller as a requestcontext.Principal. Anything else gets 401.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "rejected request without bearer token",
					"request_id", requestcontext.RequestID(ctx))
				reject(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "rejected request with invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx))
				reject(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, requestcontext.Principal{
				UserID:    id.UserID(claims.Subject),
				FirstName: claims.GivenName,
				LastName:  claims.FamilyName,
			})))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

func reject(w http.ResponseWriter, description string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tenancy"`)
	httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
		Error:            unauthenticated,
		ErrorDescription: description,
	})
}
