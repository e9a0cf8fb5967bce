package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jacentio/roster/config"
	"github.com/jacentio/roster/directory"
	"github.com/jacentio/roster/internal/bootstrap"
	"github.com/jacentio/roster/store"
)

type BootstrapCmd struct {
	Prefix string `help:"Prefix for queue names" default:""`
	FIFO   bool   `help:"Create FIFO queues" default:"false" name:"fifo"`
	Queues bool   `help:"Create the command queues" default:"true" negatable:""`
	Seed   string `help:"JSON file of organizations and users to write after the tables exist" type:"existingfile"`
}

func (c *BootstrapCmd) Run(ctx context.Context, globals *Globals) error {
	logger := newLogger(globals)

	cfg, err := config.Read()
	if err != nil {
		return err
	}
	awsCfg, err := cfg.AWS(ctx)
	if err != nil {
		return err
	}

	db := cfg.DynamoDB(awsCfg)
	tables := cfg.DirectoryTables()
	if err := bootstrap.CreateTables(ctx, db, tables.Schemas(), logger); err != nil {
		return err
	}
	if c.Seed != "" {
		if err := seed(ctx, store.New(db, store.DefaultConfig()), tables, c.Seed, logger); err != nil {
			return err
		}
	}
	if !c.Queues {
		return nil
	}

	names := bootstrap.QueueNames(c.Prefix, c.FIFO)
	urls, err := bootstrap.CreateQueues(ctx, cfg.SQS(awsCfg), names, c.FIFO, logger)
	if err != nil {
		return err
	}

	// Printed as environment assignments for the other commands
	for _, q := range []struct {
		env string
		ct  directory.CommandType
	}{
		{"CREATE_ORGANIZATION_QUEUE_URL", directory.CommandCreateOrganization},
		{"UPDATE_ORGANIZATION_QUEUE_URL", directory.CommandUpdateOrganization},
		{"CREATE_USER_QUEUE_URL", directory.CommandCreateUser},
		{"UPDATE_USER_QUEUE_URL", directory.CommandUpdateUser},
	} {
		fmt.Printf("%s=%s\n", q.env, urls[q.ct])
	}
	if c.FIFO {
		fmt.Println("FIFO_QUEUES=true")
	}
	return nil
}

func seed(ctx context.Context, st bootstrap.SeedStore, tables directory.Tables, path string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	data, err := bootstrap.LoadSeed(f)
	if err != nil {
		return err
	}
	return bootstrap.Seed(ctx, st, tables, data, logger)
}
