package realtime

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/presence"
)

// Verifier extracts the authenticated user id from a request.
type Verifier interface {
	FromRequest(r *http.Request) (string, error)
}

// Handler upgrades /ws requests whose session cookie matches ?userId=.
type Handler struct {
	verifier Verifier
	registry *presence.Registry
	upgrader websocket.Upgrader
	opts     Options
	logger   *zap.Logger
}

func NewHandler(verifier Verifier, registry *presence.Registry, allowedOrigins []string, opts Options, logger *zap.Logger) *Handler {
	allowed, allowAll := normalizeOrigins(allowedOrigins)
	h := &Handler{
		verifier: verifier,
		registry: registry,
		opts:     opts,
		logger:   logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowAll {
				return true
			}
			norm, ok := normalizeOrigin(origin)
			if ok && allowed[norm] {
				return true
			}
			logger.Warn("blocked websocket origin", zap.String("origin", origin))
			return false
		},
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	subject, err := h.verifier.FromRequest(r)
	if err != nil || userID == "" || subject != userID {
		writeUnauthorized(w)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	conn := NewConn(ws, userID, h.opts, h.logger)
	h.logger.Info("realtime connected", zap.String("user_id", userID), zap.String("handle", conn.ID()))
	h.registry.Register(userID, conn)
	conn.Run()
	h.registry.Release(conn)
	h.logger.Info("realtime disconnected", zap.String("user_id", userID), zap.String("handle", conn.ID()))
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized - Invalid Token"})
}

func normalizeOrigins(origins []string) (map[string]bool, bool) {
	allowed := make(map[string]bool, len(origins))
	allowAll := false
	for _, o := range origins {
		o = strings.TrimSpace(o)
		switch {
		case o == "":
		case o == "*":
			allowAll = true
		default:
			if norm, ok := normalizeOrigin(o); ok {
				allowed[norm] = true
			}
		}
	}
	return allowed, allowAll
}

func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}
