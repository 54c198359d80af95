// Package api exposes accounts, contacts, conversations and the realtime
// upgrade over HTTP.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/account"
	"github.com/matheus3301/chatline/internal/auth"
	"github.com/matheus3301/chatline/internal/messaging"
)

// maxBodyBytes leaves room for a base64 image inside a JSON body.
const maxBodyBytes = 8 << 20

// MediaFiles resolves stored upload names to paths on disk.
type MediaFiles interface {
	Path(name string) (string, bool)
}

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Tokens   *auth.Tokens
	Accounts *account.Service
	Messages *messaging.Service
	Realtime http.Handler
	Media    MediaFiles
	Logger   *zap.Logger
}

type server struct {
	Deps
}

// NewRouter wires every route.
func NewRouter(d Deps) *mux.Router {
	s := &server{Deps: d}
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(s.healthz)
	r.Methods(http.MethodGet).Path("/media/{name}").HandlerFunc(s.serveMedia)
	r.Methods(http.MethodGet).Path("/ws").Handler(d.Realtime)

	a := r.PathPrefix("/api/auth").Subrouter()
	a.Methods(http.MethodPost).Path("/signup").HandlerFunc(s.signup)
	a.Methods(http.MethodPost).Path("/login").HandlerFunc(s.login)
	a.Methods(http.MethodPost).Path("/logout").HandlerFunc(s.logout)
	a.Methods(http.MethodGet).Path("/check").Handler(s.protect(s.checkAuth))
	a.Methods(http.MethodPut).Path("/update-profile").Handler(s.protect(s.updateProfile))

	m := r.PathPrefix("/api/messages").Subrouter()
	m.Use(s.protectHandler)
	m.Methods(http.MethodGet).Path("/users").HandlerFunc(s.listUsers)
	m.Methods(http.MethodPost).Path("/send/{id}").HandlerFunc(s.sendMessage)
	m.Methods(http.MethodGet).Path("/{id}").HandlerFunc(s.conversation)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	return r
}

func (s *server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) serveMedia(w http.ResponseWriter, r *http.Request) {
	path, ok := s.Media.Path(mux.Vars(r)["name"])
	if !ok {
		writeMessage(w, http.StatusNotFound, "Not found")
		return
	}
	http.ServeFile(w, r, path)
}
