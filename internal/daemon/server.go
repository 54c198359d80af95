package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/matheus3301/chatline/internal/api"
	"github.com/matheus3301/chatline/internal/config"
	"github.com/matheus3301/chatline/internal/control"
	"github.com/matheus3301/chatline/internal/instance"
)

// Server manages the control-plane gRPC server on the instance's unix socket.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger
}

// NewServer binds the control socket with 0600 permissions.
func NewServer(p Params, logger *zap.Logger, svc *control.Service) (*Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = instance.ControlSocketPath(p.Instance)
	}

	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	srv := grpc.NewServer()
	control.Register(srv, svc)

	return &Server{
		grpcServer: srv,
		listener:   listener,
		socketPath: socketPath,
		logger:     logger,
	}, nil
}

// Start serves until Stop. Blocks.
func (s *Server) Start() error {
	s.logger.Info("control server starting", zap.String("socket", s.socketPath))
	return s.grpcServer.Serve(s.listener)
}

// Stop closes open watch streams and removes the socket file.
func (s *Server) Stop(_ context.Context) {
	s.logger.Info("control server stopping")
	s.grpcServer.Stop()
	_ = os.Remove(s.socketPath)
}

// HTTPServer serves the public API and the realtime endpoint.
type HTTPServer struct {
	srv      *http.Server
	listener net.Listener
	logger   *zap.Logger
}

func NewHTTPServer(cfg *config.Config, deps api.Deps, logger *zap.Logger) (*HTTPServer, error) {
	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	return &HTTPServer{
		srv:      &http.Server{Handler: api.NewRouter(deps), ReadHeaderTimeout: 10 * time.Second},
		listener: listener,
		logger:   logger,
	}, nil
}

// Addr is the bound listen address.
func (h *HTTPServer) Addr() string { return h.listener.Addr().String() }

func (h *HTTPServer) Start() error {
	h.logger.Info("http server starting", zap.String("addr", h.Addr()))
	if err := h.srv.Serve(h.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("http server stopping")
	return h.srv.Shutdown(ctx)
}
