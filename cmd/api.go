package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/recommender/internal/api"
)

// APICommand returns the CLI command for starting the HTTP server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"api"},
		Usage:   "Start the recommendation HTTP server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the HTTP server (overrides server.port)",
			},
			&cli.StringFlag{
				Name:  "web-root",
				Usage: "Directory holding index.html (overrides server.web_root)",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if c.IsSet("web-root") {
		cfg.Server.WebRoot = c.String("web-root")
	}

	pipeline, cleanup, err := buildPipeline(c.Context, cfg, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	server := api.NewServer(api.Options{
		Port:            cfg.Server.Port,
		WebRoot:         cfg.Server.WebRoot,
		StaticDir:       cfg.Server.StaticDir,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, pipeline)

	if err := server.Start(c.Context); err != nil {
		return err
	}
	log.Info().Msg("Server stopped")
	return nil
}
