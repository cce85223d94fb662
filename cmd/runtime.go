package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/recommender/internal/aiconnectors"
	"github.com/recommender/internal/config"
	"github.com/recommender/internal/database"
	"github.com/recommender/internal/llm"
	"github.com/recommender/internal/logging"
	"github.com/recommender/internal/prompts"
	"github.com/recommender/internal/recommendation"
	"github.com/recommender/internal/storage"
)

// loadConfig reads the optional .env file, loads and validates the configuration and
// initializes logging. Every command that does real work starts here. Variables
// already set in the process environment win over the .env file.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if envFile := c.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	if err := logging.Init(cfg.Logging); err != nil {
		return nil, err
	}

	log.Debug().Str("source", cfg.Source).Msg("Configuration loaded")
	return cfg, nil
}

// newGenerator builds the provider connector and wraps it in the resilient client
func newGenerator(ctx context.Context, cfg *config.Config) (*llm.ResilientClient, error) {
	connector, err := aiconnectors.NewConnector(ctx, cfg.Generation.ConnectorOptions())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("provider", string(connector.Provider())).
		Str("model", connector.Model()).
		Int("max_tokens", connector.MaxTokens()).
		Msg("Generation provider ready")

	return llm.NewResilientClient(connector, cfg.Generation.ClientOptions()), nil
}

// buildPipeline wires prompt builder, generator and store. The returned cleanup
// closes the database pool.
func buildPipeline(ctx context.Context, cfg *config.Config, store recommendation.Store) (*recommendation.Pipeline, func(), error) {
	builder, err := prompts.NewPromptBuilder(cfg.Prompt.Template)
	if err != nil {
		return nil, nil, err
	}

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if store == nil {
		pool, err := database.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		store = storage.NewPgxGateway(pool)
		cleanup = pool.Close
	}

	return recommendation.NewPipeline(builder, generator, store), cleanup, nil
}
