package webserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/stake-plus/govproposals/src/actions/core"
)

var _ core.Module = (*Server)(nil)

// Server runs the HTTP API as a lifecycle module.
type Server struct {
	srv *http.Server
}

func NewServer(listen string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Name implements actions.Module.
func (s *Server) Name() string { return "api" }

// Start binds the listener before returning so address errors fail startup.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", s.srv.Addr, err)
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("api: serve: %v", err)
		}
	}()
	log.Printf("api: listening on %s", ln.Addr())
	return nil
}

func (s *Server) Stop(ctx context.Context) {
	shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutCtx); err != nil {
		log.Printf("api: shutdown: %v", err)
	}
}
