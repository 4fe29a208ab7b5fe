// Package main provides the flowkit command line tool for validating
// workflow documents and working with version histories.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/flowkit-dev/flowkit/pkg/log"
)

func main() {
	logger := log.WithModule("cli")

	cmd := &cli.Command{
		Name:                  "flowkit",
		Usage:                 "Validate, diff, and version workflow documents",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			NewValidateCommand(),
			NewDiffCommand(),
			NewBumpCommand(),
			NewHistoryCommand(),
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
