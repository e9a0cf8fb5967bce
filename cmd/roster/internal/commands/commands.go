package commands

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jacentio/roster/config"
	"github.com/jacentio/roster/directory"
	"github.com/jacentio/roster/internal/metrics"
	"github.com/jacentio/roster/queue"
	"github.com/jacentio/roster/store"
)

type Globals struct {
	Debug   bool
	Version string
}

func newLogger(globals *Globals) *slog.Logger {
	if globals.Debug {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	registry *prometheus.Registry
	service  *directory.Service
	consumer *directory.Consumer
	queue    queue.Receiver
}

// backends are the store and channel an app is built on.
type backends struct {
	store directory.EntityStore
	queue interface {
		directory.Sender
		queue.Receiver
	}
}

// awsBackends builds DynamoDB and SQS backends from cfg.
func awsBackends(ctx context.Context, cfg *config.Config) (backends, error) {
	awsCfg, err := cfg.AWS(ctx)
	if err != nil {
		return backends{}, err
	}
	return backends{
		store: store.New(cfg.DynamoDB(awsCfg), store.DefaultConfig()),
		queue: queue.NewSQS(cfg.SQS(awsCfg)),
	}, nil
}

// memoryBackends builds in-process backends. Missing queue URLs get
// memory:// placeholders.
func memoryBackends(cfg *config.Config, visibilityTimeout time.Duration) backends {
	q := &cfg.Queues
	for _, pair := range []struct {
		url  *string
		name string
	}{
		{&q.CreateOrganization, "create-organization"},
		{&q.UpdateOrganization, "update-organization"},
		{&q.CreateUser, "create-user"},
		{&q.UpdateUser, "update-user"},
	} {
		if *pair.url == "" {
			*pair.url = "memory://" + pair.name
		}
	}
	return backends{
		store: store.NewMemory(cfg.DirectoryTables().Schemas()...),
		queue: queue.NewMemory(visibilityTimeout),
	}
}

func newApp(cfg *config.Config, b backends, logger *slog.Logger) *app {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	tables := cfg.DirectoryTables()

	applier := directory.NewApplier(b.store, tables, logger)

	var executor directory.CommandExecutor
	if cfg.Mode == config.ModeDirect {
		executor = directory.NewDirectExecutor(applier)
	} else {
		executor = directory.NewQueuedExecutor(b.queue, cfg.QueueConfig(), logger)
	}

	return &app{
		cfg:      cfg,
		registry: registry,
		service:  directory.NewService(b.store, tables, executor, m, logger),
		consumer: directory.NewConsumer(applier, m, logger),
		queue:    b.queue,
	}
}

// queueURLs lists the distinct configured queue URLs.
func (a *app) queueURLs() []string {
	seen := map[string]bool{}
	var urls []string
	for _, ct := range directory.CommandTypes {
		url := a.cfg.QueueURLs()[ct]
		if url != "" && !seen[url] {
			seen[url] = true
			urls = append(urls, url)
		}
	}
	return urls
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
