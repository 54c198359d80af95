package api

import (
	"context"
	"net/http"

	"github.com/felixge/httpsnoop"
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/apperr"
)

type ctxKey struct{}

func userID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.Logger.Info("handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Duration("duration", m.Duration),
			zap.Int64("bytes", m.Written))
	})
}

// protectHandler rejects requests without a valid session cookie and
// stores the caller's id in the request context.
func (s *server) protectHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.Tokens.FromRequest(r)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, apperr.Public(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *server) protect(fn http.HandlerFunc) http.Handler {
	return s.protectHandler(fn)
}
