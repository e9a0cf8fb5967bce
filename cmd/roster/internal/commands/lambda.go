package commands

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/roster/api"
	"github.com/jacentio/roster/config"
)

type APICmd struct{}

func (c *APICmd) Run(ctx context.Context, globals *Globals) error {
	logger := newLogger(globals)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	b, err := awsBackends(ctx, cfg)
	if err != nil {
		return err
	}

	a := newApp(cfg, b, logger)
	handler := api.NewHandler(a.service, logger)

	logger.Info("starting api handler", "mode", cfg.Mode, "version", globals.Version)
	lambda.StartWithOptions(handler.HandleAPIGateway, lambda.WithContext(ctx))
	return nil
}

type WorkerCmd struct{}

func (c *WorkerCmd) Run(ctx context.Context, globals *Globals) error {
	logger := newLogger(globals)

	// The worker only applies commands; it never submits them.
	cfg, err := config.Read()
	if err != nil {
		return err
	}
	b, err := awsBackends(ctx, cfg)
	if err != nil {
		return err
	}

	a := newApp(cfg, b, logger)

	logger.Info("starting worker handler", "version", globals.Version)
	lambda.StartWithOptions(a.consumer.HandleSQS, lambda.WithContext(ctx))
	return nil
}
