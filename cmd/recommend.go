package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/recommender/internal/logging"
	"github.com/recommender/internal/recommendation"
	"github.com/recommender/pkg/models"
)

// RecommendCommand runs the pipeline once from the command line
func RecommendCommand() *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Generate one recommendation list and print it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "tipo",
				Aliases:  []string{"t"},
				Usage:    "Content type (libro, película, videojuego, juego de mesa, podcast)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "edad",
				Aliases:  []string{"e"},
				Usage:    "Age bracket (infantil, juvenil, adulto)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "genero",
				Aliases:  []string{"g"},
				Usage:    "Genre",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "idioma",
				Aliases: []string{"i"},
				Usage:   "Output language",
				Value:   models.DefaultLanguage,
			},
			&cli.IntFlag{
				Name:    "cantidad",
				Aliases: []string{"n"},
				Usage:   "Number of recommendations",
				Value:   models.DefaultCount,
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Do not store the result in the database",
			},
		},
		Action: runRecommend,
	}
}

// discardStore satisfies the pipeline store for dry runs
type discardStore struct{}

func (discardStore) Persist(ctx context.Context, rec models.Recommendation) error {
	zerolog.Ctx(ctx).Debug().Int("result_len", len(rec.Text)).Msg("Dry run, recommendation not stored")
	return nil
}

func runRecommend(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	var store recommendation.Store
	if c.Bool("dry-run") {
		store = discardStore{}
	}

	pipeline, cleanup, err := buildPipeline(c.Context, cfg, store)
	if err != nil {
		return err
	}
	defer cleanup()

	language := c.String("idioma")
	count := c.Int("cantidad")
	req := models.NewRecommendationRequest(c.String("tipo"), c.String("edad"), c.String("genero"), &language, &count)

	ctx := logging.WithRequestID(c.Context, logging.GenerateRequestID())
	text, err := pipeline.Recommend(ctx, req)
	if err != nil {
		return cli.Exit(err.Error(), exitCode(err))
	}

	fmt.Fprintln(c.App.Writer, text)
	return nil
}

// exitCode distinguishes rejected input from server-side failures
func exitCode(err error) int {
	if recommendation.KindOf(err) == recommendation.KindInvalidInput {
		return 2
	}
	return 1
}
