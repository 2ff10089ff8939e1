// SPDX-License-Identifier: ice License 1.0

package internal

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"errors"

	"github.com/gookit/goutil/errorx"

	"github.com/bloodconnect/bloodconnect/server/ws/internal/config"

	"log"
)

func NewWSServer(routes RegisterRoutes, cfg *config.Config) Server {
	return &srv{cfg: cfg, routesSetup: routes}
}

func (s *srv) ListenAndServe(ctx context.Context, cancel context.CancelFunc) {
	s.router = NewRouter(s.cfg)
	s.routesSetup.RegisterRoutes(ctx, s.router)
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%v", s.cfg.Port),
		Handler: s.router,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	go s.startServer(ctx)
	s.wait(ctx)
	s.shutDown() //nolint:contextcheck // Nope, we want to gracefully shutdown on a different context.
}

func (s *srv) startServer(_ context.Context) {
	defer log.Printf("server stopped listening")
	log.Printf("server started listening on %v...", s.cfg.Port)

	isUnexpectedError := func(err error) bool {
		return err != nil && !errors.Is(err, http.ErrServerClosed)
	}

	var err error
	if s.cfg.CertPath != "" && s.cfg.KeyPath != "" {
		err = s.server.ListenAndServeTLS(s.cfg.CertPath, s.cfg.KeyPath)
	} else {
		err = s.server.ListenAndServe()
	}
	if isUnexpectedError(err) {
		s.quit <- syscall.SIGTERM
		log.Printf("ERROR:%v", errorx.With(err, "server.ListenAndServe failed"))
	}
}

func (s *srv) wait(ctx context.Context) {
	quit := make(chan os.Signal, 1)
	s.quit = quit
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case <-quit:
	}
}

func (s *srv) shutDown() {
	log.Printf("shutting down server...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Printf("ERROR:%v", errorx.With(err, "server shutdown failed"))
	} else {
		log.Printf("server shutdown succeeded")
	}
}
