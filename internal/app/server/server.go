package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"campaign-console/internal/api"
	"campaign-console/internal/campaign"
	"campaign-console/internal/config"
	"campaign-console/internal/listener"
	"campaign-console/internal/storage"
)

// Server is the sandbox campaign backend.
type Server struct {
	cfg     config.Config
	store   api.CampaignStore
	handler http.Handler
}

func New(cfg config.Config, store api.CampaignStore) *Server {
	h := api.NewCampaignHandler(store)
	return &Server{
		cfg:     cfg,
		store:   store,
		handler: api.Router(h, api.RequireAuth(cfg.API.QueryToken, cfg.Sandbox.Secret)),
	}
}

func (s *Server) Handler() http.Handler { return s.handler }

// Seed loads campaigns from the configured seed file, if any.
func (s *Server) Seed(ctx context.Context) error {
	if s.cfg.Sandbox.SeedFile == "" {
		return nil
	}
	cs, err := campaign.LoadSeedFile(s.cfg.Sandbox.SeedFile)
	if err != nil {
		return err
	}
	for _, c := range cs {
		if err := s.store.UpsertCampaign(ctx, c); err != nil {
			return fmt.Errorf("seed campaign %s: %w", c.ID(), err)
		}
	}
	log.Info().Int("count", len(cs)).Str("file", s.cfg.Sandbox.SeedFile).Msg("seeded campaigns")
	return nil
}

// Serve runs the HTTP server until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", s.cfg.Server.Addr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server crashed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutdown...")
		shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shCancel()
		return srv.Shutdown(shCtx)
	})
	return g.Wait()
}

func Run(cfg config.Config) error {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Sandbox.Secret == "" {
		return errors.New("sandbox.secret is required")
	}

	cache := storage.NewCache()
	var store api.CampaignStore = cache

	if cfg.UsePostgres() {
		pg, err := storage.New(rootCtx, cfg)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer pg.Close()
		if err := pg.Migrate(rootCtx); err != nil {
			return err
		}
		store = storage.NewCachedStore(pg, cache)
		go listener.ListenAndInvalidate(rootCtx, pg, cache, cfg.Backoff())
	}

	srv := New(cfg, store)
	if err := srv.Seed(rootCtx); err != nil {
		return err
	}
	return srv.Serve(rootCtx)
}
