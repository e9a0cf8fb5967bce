package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/roster/api"
	"github.com/jacentio/roster/config"
	"github.com/jacentio/roster/queue"
)

type ServeCmd struct {
	Memory            bool          `help:"Use an in-process store and queue instead of DynamoDB and SQS" default:"false" env:"ROSTER_MEMORY"`
	VisibilityTimeout time.Duration `help:"Visibility timeout of the in-process queue" default:"5s"`
	NoPoll            bool          `help:"Do not poll the command queues" default:"false"`
	WaitSeconds       int32         `help:"Long polling wait per receive call" default:"20"`
	ShutdownTimeout   time.Duration `help:"Grace period for in-flight requests" default:"10s"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	logger := newLogger(globals)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Read()
	if err != nil {
		return err
	}

	var b backends
	pollerConfig := queue.DefaultPollerConfig()
	pollerConfig.WaitSeconds = c.WaitSeconds
	if c.Memory {
		b = memoryBackends(cfg, c.VisibilityTimeout)
		pollerConfig.WaitSeconds = 0
		pollerConfig.IdleDelay = 200 * time.Millisecond
	} else {
		b, err = awsBackends(ctx, cfg)
		if err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a := newApp(cfg, b, logger)

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	router.Mount("/", api.NewHandler(a.service, logger).Router())

	srv := configureHTTPServer(cfg.HTTPAddr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "memory", c.Memory)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if !c.NoPoll {
		poller := queue.NewPoller(a.queue, a.consumer.HandleSQS, a.queueURLs(), pollerConfig, logger)
		g.Go(func() error {
			return poller.Run(ctx)
		})
	}

	return g.Wait()
}
