package main

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/jacentio/roster/cmd/roster/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug     bool `help:"Enable debug logging."`
		Version   kong.VersionFlag
		API       commands.APICmd       `cmd:"" name:"api" help:"Run the HTTP API as an API Gateway Lambda handler"`
		Worker    commands.WorkerCmd    `cmd:"" help:"Run the command consumer as an SQS Lambda handler"`
		Serve     commands.ServeCmd     `cmd:"" help:"Serve the HTTP API and poll the command queues locally"`
		Bootstrap commands.BootstrapCmd `cmd:"" help:"Create the tables and queues on local emulators"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("roster"),
		kong.Description("Organizations and users over DynamoDB and SQS."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
