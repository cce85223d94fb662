package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/recommender/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "recommender",
		Usage:   "Cultural recommendations (books, films, games, podcasts) generated by a language model",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default: ./recommender.toml, ./data/recommender.toml, ~/.recommender.toml)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Read environment variables from `FILE` when it exists",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override logging.level",
			},
		},
		Commands: []*cli.Command{
			cmd.APICommand(),
			cmd.RecommendCommand(),
			cmd.MigrateCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
