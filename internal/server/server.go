package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const shutdownGrace = 5 * time.Second

// Server binds the API to a listen address and manages graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// NewServer wires the API routes into an HTTP server.
func NewServer(addr string, api *API, logger *log.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           api.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.WithPrefix("server"),
	}
}

// Run serves until the context is cancelled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Bootstrap creates the configured tables and seats their bots.
func Bootstrap(cfg *Config, svc *Service, logger *log.Logger) error {
	ids := make(map[string]string, len(cfg.Tables))
	for _, tc := range cfg.Tables {
		id, err := svc.CreateTable(tc.SmallBlind, tc.BigBlind, tc.StartingStack)
		if err != nil {
			return err
		}
		ids[tc.Name] = id
		logger.Info("boot table created", "name", tc.Name, "table", id)
	}

	for _, bc := range cfg.Bots {
		for _, tableName := range bc.Tables {
			id, ok := ids[tableName]
			if !ok {
				logger.Warn("bot references unknown table", "bot", bc.Name, "table", tableName)
				continue
			}
			if _, err := svc.AddBot(id, bc.Name, bc.Strategy); err != nil {
				return err
			}
		}
	}
	return nil
}
