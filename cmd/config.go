package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/recommender/internal/aiconnectors"
	"github.com/recommender/internal/config"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "recommender.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:  "validate",
				Usage: "Validate the configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "probe",
						Usage: "Also send a tiny test request to the generation provider",
					},
				},
				Action: runConfigValidate,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	check := CheckRequiredConfig(cfg)
	PrintConfigCheck(check)
	if len(check.Missing) > 0 {
		return fmt.Errorf("missing required settings: %v", check.Missing)
	}

	if c.Bool("probe") {
		ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
		defer cancel()

		connector, err := aiconnectors.NewConnector(ctx, cfg.Generation.ConnectorOptions())
		if err != nil {
			return err
		}
		if err := connector.Probe(ctx); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Provider %s answered with model %s\n", connector.Provider(), connector.Model())
	}

	fmt.Fprintln(c.App.Writer, "Configuration is valid")
	return nil
}
