package main

import (
	"context"
	"errors"

	"github.com/desertthunder/ytmp/internal/health"
	"github.com/desertthunder/ytmp/internal/repositories"
	"github.com/desertthunder/ytmp/internal/server"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP server and the health prober under one supervisor until ctx is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config
	if host := cmd.String("host"); host != "" {
		cfg.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.Server.Port = port
	}

	var (
		events  server.EventStore
		counter health.ErrorCounter
		store   health.Store
	)
	db, err := shared.OpenDatabase(cfg.Database)
	switch {
	case errors.Is(err, shared.ErrStoreDisabled):
		r.logger.Info("persistence disabled, error and probe history are not recorded")
	case err != nil:
		return err
	default:
		defer db.Close()
		repo := repositories.NewErrorEventRepository(db)
		events, counter = repo, repo
		store = repositories.NewHealthCheckRepository(db)
		r.logger.Info("persistence enabled", "path", cfg.Database.Path)
	}

	prober := health.NewProber(r.client, store, cfg.Health, shared.WithLogger(r.logger, "component", "health"))
	srv := server.New(server.Options{
		Config:   cfg,
		Engine:   r.engine,
		Prober:   prober,
		Reporter: health.NewReporter(prober, counter, r.version),
		Events:   events,
		Logger:   r.logger,
		Version:  r.version,
	})

	handler := &sutureslog.Handler{Logger: shared.SlogLogger(r.logger)}
	sup := suture.New("ytmp", suture.Spec{
		EventHook: handler.MustHook(),
		Timeout:   cfg.Server.ShutdownTimeout,
	})
	sup.Add(srv.Service())
	if !cmd.Bool("no-probe") {
		sup.Add(prober)
	}

	r.logger.Info("starting proxy", "addr", cfg.Server.Addr(), "routes", len(srv.Routes()), "docs", cfg.Server.Docs)
	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	r.logger.Info("proxy stopped")
	return nil
}
