/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labreport/cmd"
	"github.com/humaidq/labreport/logging"
)

func main() {
	app := &cli.Command{
		Name:  "labreport",
		Usage: "Lab report digitizer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   logging.DefaultLevel,
				Usage:   "Minimum log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LABREPORT_LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, logging.SetLevel(c.String("log-level"))
		},
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdScan,
			cmd.CmdMigrate,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logging.Logger(logging.SourceApp).Fatal("Command failed", "error", err)
	}
}
