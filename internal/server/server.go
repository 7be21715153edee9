// Package server boots every long-running part of markethub: the HTTP API,
// the gRPC health service, queue workers and the scheduler.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/markethub/app/jobs"
	"github.com/shashiranjanraj/markethub/app/listeners"
	"github.com/shashiranjanraj/markethub/app/routes"
	appschedule "github.com/shashiranjanraj/markethub/app/schedule"
	"github.com/shashiranjanraj/markethub/config"
	"github.com/shashiranjanraj/markethub/internal/kernel"
	"github.com/shashiranjanraj/markethub/pkg/cache"
	"github.com/shashiranjanraj/markethub/pkg/database"
	"github.com/shashiranjanraj/markethub/pkg/grpc"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/queue"
	"github.com/shashiranjanraj/markethub/pkg/router"
	"github.com/shashiranjanraj/markethub/pkg/schedule"
	"github.com/shashiranjanraj/markethub/pkg/session"
	"github.com/shashiranjanraj/markethub/pkg/sse"
	"github.com/shashiranjanraj/markethub/pkg/storage"
	"github.com/shashiranjanraj/markethub/pkg/ws"
)

const shutdownGrace = 15 * time.Second

// Options picks which background parts run next to the HTTP server.
type Options struct {
	Workers   int
	Scheduler bool
}

// Boot loads configuration and connects the shared clients. The returned
// func releases them.
func Boot(ctx context.Context) (func(), error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	release := func() {}
	if uri := config.LogMongoURI(); uri != "" {
		closeLogs, err := logger.EnableMongo(uri)
		if err != nil {
			logger.Warn("server: mongo log sink disabled", "error", err)
		} else {
			release = closeLogs
		}
	}
	if err := database.Connect(); err != nil {
		release()
		return nil, err
	}
	if err := cache.Connect(ctx); err != nil {
		logger.Warn("server: redis unavailable, using in-process fallbacks", "error", err)
	}
	if err := storage.Connect(ctx); err != nil {
		release()
		return nil, err
	}

	if config.QueueDriver() == "redis" && cache.Enabled() {
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
	}
	queue.UseDB(database.DB)
	jobs.Register()
	return release, nil
}

// Router builds the HTTP route table on the connected clients. hub and feed
// may be nil, which is enough for listing routes.
func Router(hub *ws.Hub, feed *sse.Broker) (*router.Router, error) {
	deps := routes.Deps{
		DB:       database.DB,
		Sessions: session.Default(),
		Feed:     feed,
	}
	if hub != nil {
		deps.Hub = hub
	}
	if d, err := storage.Default(); err == nil {
		deps.Disk = d
	}
	var files *storage.LocalDisk
	if d, err := storage.Use("local"); err == nil {
		files, _ = d.(*storage.LocalDisk)
	}
	return kernel.NewRouter(kernel.Options{Deps: deps, Files: files})
}

// Run serves until ctx is cancelled, then drains every part within
// shutdownGrace.
func Run(ctx context.Context, opts Options) error {
	hub := ws.NewHub(nil)
	defer hub.Close()
	feed := sse.NewBroker()
	listeners.Register(hub, feed)

	r, err := Router(hub, feed)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var lis net.Listener
	if port := config.GRPCPort(); port != "" {
		if lis, err = net.Listen("tcp", ":"+port); err != nil {
			return fmt.Errorf("grpc: listen: %w", err)
		}
	}
	var sched *schedule.Scheduler
	if opts.Scheduler {
		sched = schedule.New()
		if err := appschedule.Register(sched, database.DB); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server: http listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		logger.Info("server: shutting down")
		return srv.Shutdown(sctx)
	})
	if lis != nil {
		gs := grpc.New(database.Ping)
		g.Go(func() error { return gs.Serve(ctx, lis, 15*time.Second) })
		g.Go(func() error {
			<-ctx.Done()
			gs.Stop()
			return nil
		})
	}
	if opts.Workers > 0 {
		g.Go(func() error {
			queue.Run(ctx, opts.Workers)
			return nil
		})
	}
	if sched != nil {
		g.Go(func() error {
			sched.Start(ctx)
			return nil
		})
	}
	return g.Wait()
}
