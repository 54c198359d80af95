// Package apitest starts a fully wired chatline HTTP server for tests.
package apitest

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/account"
	"github.com/matheus3301/chatline/internal/api"
	"github.com/matheus3301/chatline/internal/auth"
	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/media"
	"github.com/matheus3301/chatline/internal/messaging"
	"github.com/matheus3301/chatline/internal/presence"
	"github.com/matheus3301/chatline/internal/realtime"
	"github.com/matheus3301/chatline/internal/relay"
	"github.com/matheus3301/chatline/internal/store"
)

// Server is a running test server and the state behind it.
type Server struct {
	*httptest.Server
	DB       *store.DB
	Registry *presence.Registry
	Bus      *bus.Bus
}

// Start serves the full router on a random port until the test ends.
func Start(t testing.TB) *Server {
	t.Helper()
	logger := zap.NewNop()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "chatline.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	tokens, err := auth.NewTokens("test-secret", time.Hour, false)
	if err != nil {
		t.Fatal(err)
	}

	b := bus.New()
	reg := presence.NewRegistry(presence.NewBroadcaster(logger), b, logger)
	srv := httptest.NewUnstartedServer(nil)

	uploader, err := media.NewDiskUploader(filepath.Join(dir, "media"), "http://"+srv.Listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	srv.Config.Handler = api.NewRouter(api.Deps{
		Tokens:   tokens,
		Accounts: account.NewService(db, uploader, logger),
		Messages: messaging.NewService(db, uploader, relay.New(reg, b, logger), b, logger),
		Realtime: realtime.NewHandler(tokens, reg, []string{"*"}, realtime.DefaultOptions(), logger),
		Media:    uploader,
		Logger:   logger,
	})
	srv.Start()

	t.Cleanup(func() {
		for _, h := range reg.Handles() {
			_ = h.Close()
		}
		srv.Close()
		_ = db.Close()
	})
	return &Server{Server: srv, DB: db, Registry: reg, Bus: b}
}
