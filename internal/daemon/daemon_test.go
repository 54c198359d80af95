package daemon

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/matheus3301/chatline/internal/config"
	"github.com/matheus3301/chatline/internal/control"
)

func testParams(t *testing.T) Params {
	t.Helper()
	// Short path keeps the socket under the 104-char unix limit on macOS.
	home, err := os.MkdirTemp("/tmp", "chatline-d-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(home) })
	t.Setenv("CHATLINE_HOME", home)

	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.JWTSecret = "test-secret"
	cfg.Sanitize()
	return Params{
		Instance:   "test",
		SocketPath: filepath.Join(home, "c.sock"),
		Config:     cfg,
	}
}

func TestDaemonLifecycle(t *testing.T) {
	p := testParams(t)

	var httpSrv *HTTPServer
	app := fx.New(Module(p), fx.NopLogger, fx.Populate(&httpSrv))
	if err := app.Err(); err != nil {
		t.Fatalf("fx.New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var (
		resp *http.Response
		err  error
	)
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + httpSrv.Addr() + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "ok") {
		t.Errorf("healthz = %d %s", resp.StatusCode, body)
	}

	client, err := control.Dial(p.SocketPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = client.Close() }()
	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if st.Instance != "test" || st.OnlineCount != 0 || st.UserCount != 0 {
		t.Errorf("status = %+v", st)
	}

	if err := app.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if _, err := os.Stat(p.SocketPath); !os.IsNotExist(err) {
		t.Errorf("control socket still present after stop: %v", err)
	}
}

func TestSecondDaemonRefused(t *testing.T) {
	p := testParams(t)

	first := fx.New(Module(p), fx.NopLogger)
	if err := first.Err(); err != nil {
		t.Fatalf("first daemon: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := first.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = first.Stop(ctx) }()

	p2 := p
	p2.SocketPath = p.SocketPath + "2"
	second := fx.New(Module(p2), fx.NopLogger)
	if err := second.Err(); err == nil || !strings.Contains(err.Error(), "instance already served") {
		t.Errorf("second daemon err = %v, want lock held", err)
	}
}
