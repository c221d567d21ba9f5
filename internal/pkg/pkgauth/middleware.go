package pkgauth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkgerror"
	"github.com/likhith1253/chemicalanalyzer/internal/pkg/pkglog"
)

// Authenticator resolves an API token to its principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// TokenFromHeader extracts the key from "Token <key>" or "Bearer <key>".
func TokenFromHeader(header string) string {
	scheme, key, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}

	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return strings.TrimSpace(key)
	default:
		return ""
	}
}

// Middleware rejects requests without a valid token and stores the principal
// in the request context otherwise.
func Middleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromHeader(r.Header.Get("Authorization"))
			if token == "" {
				writeUnauthorized(w, "authentication credentials were not provided")
				return
			}

			p, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				var perr *pkgerror.Error
				if errors.As(err, &perr) && perr.Code() == pkgerror.CodeUnauthorized {
					writeUnauthorized(w, perr.Msg())
					return
				}

				slog.ErrorContext(r.Context(), "failed to authenticate token", "error", err)
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				//nolint:errcheck,gosec // response is already committed
				json.NewEncoder(w).Encode(map[string]string{"message": "Internal server error"})
				return
			}

			ctx := pkglog.SetUserID(WithPrincipal(r.Context(), p), p.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("WWW-Authenticate", "Token")
	w.WriteHeader(http.StatusUnauthorized)
	//nolint:errcheck,gosec // response is already committed
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
