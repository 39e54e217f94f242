package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserID returns the authenticated user's id from the request context.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// responseRecorder wraps http.ResponseWriter to capture the status code.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	// Default to 200 OK if WriteHeader is not called.
	return &responseRecorder{w, http.StatusOK}
}

func (rr *responseRecorder) WriteHeader(statusCode int) {
	rr.statusCode = statusCode
	rr.ResponseWriter.WriteHeader(statusCode)
}

// LoggingMiddleware logs details about each incoming request.
func (a *API) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rr := newResponseRecorder(w)
		next.ServeHTTP(rr, r)

		a.logger.Info("processed request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"status", rr.statusCode,
			"user_agent", r.UserAgent(),
		)
	})
}

// TimeoutMiddleware bounds request handling time through the context.
func (a *API) TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthMiddleware requires a valid bearer token and stashes the caller's
// user id in the context.
func (a *API) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := a.auth.VerifyToken(token)
		if err != nil {
			httpError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
