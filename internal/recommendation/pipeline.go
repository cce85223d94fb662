package recommendation

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/recommender/internal/metrics"
	"github.com/recommender/pkg/models"
)

// PromptBuilder renders the instruction sent to the model for a validated request
type PromptBuilder interface {
	Build(req models.RecommendationRequest) (string, error)
}

// Generator turns a prompt into a completion
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Store persists a generated recommendation inside its own transaction
type Store interface {
	Persist(ctx context.Context, rec models.Recommendation) error
}

// Stage is a step of a single pipeline run
type Stage int

const (
	StageReceived Stage = iota
	StageValidated
	StagePromptBuilt
	StageGenerated
	StagePersisted
	StageCompleted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageValidated:
		return "validated"
	case StagePromptBuilt:
		return "prompt_built"
	case StageGenerated:
		return "generated"
	case StagePersisted:
		return "persisted"
	case StageCompleted:
		return "completed"
	default:
		return "failed"
	}
}

// Pipeline runs validation, prompt construction, generation and persistence in order,
// stopping at the first failure. It holds no per-request state and is safe for
// concurrent use.
type Pipeline struct {
	prompts   PromptBuilder
	generator Generator
	store     Store
}

// NewPipeline wires the pipeline collaborators
func NewPipeline(prompts PromptBuilder, generator Generator, store Store) *Pipeline {
	return &Pipeline{
		prompts:   prompts,
		generator: generator,
		store:     store,
	}
}

// Recommend handles one request. On success it returns the generated text exactly as
// it was persisted; on failure it returns an *Error whose Kind classifies the failure.
func (p *Pipeline) Recommend(ctx context.Context, req models.RecommendationRequest) (string, error) {
	logger := zerolog.Ctx(ctx).With().
		Str("tipo", req.ContentType).
		Str("edad", req.AgeBracket).
		Str("genero", req.Genre).
		Int("cantidad", req.Count).
		Logger()

	stage := StageReceived
	fail := func(err *Error) (string, error) {
		logger.Warn().
			Err(err.Err).
			Str("failed_after", stage.String()).
			Str("kind", err.Kind.String()).
			Msg(err.Detail)
		metrics.RecordOutcome(err.Kind.String())
		return "", err
	}

	if err := Validate(req); err != nil {
		return fail(InvalidInput(err))
	}
	stage = StageValidated

	prompt, err := p.prompts.Build(req)
	if err != nil {
		return fail(Upstream(err))
	}
	stage = StagePromptBuilt
	logger.Debug().Int("prompt_len", len(prompt)).Msg("Prompt built")

	text, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return fail(asKind(err, KindUpstream))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fail(EmptyGeneration())
	}
	stage = StageGenerated
	logger.Debug().Int("result_len", len(text)).Msg("Recommendations generated")

	// The generated text is dropped if persistence fails
	if err := p.store.Persist(ctx, models.NewRecommendation(req, text)); err != nil {
		return fail(asKind(err, KindPersistence))
	}
	logger.Debug().Str("stage", StagePersisted.String()).Msg("Recommendation persisted")

	stage = StageCompleted
	logger.Info().Str("stage", stage.String()).Msg("Recommendation completed")
	metrics.RecordOutcome(stage.String())
	return text, nil
}

// asKind keeps an already classified error and wraps anything else under fallback
func asKind(err error, fallback Kind) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if fallback == KindPersistence {
		return Persistence(err)
	}
	return Upstream(err)
}
