package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/recommender/internal/metrics"
	"github.com/recommender/internal/recommendation"
	"github.com/recommender/pkg/models"
)

const insertRecommendation = `INSERT INTO recomendaciones (tipo, edad, genero, idioma, cantidad, detalles)
VALUES ($1, $2, $3, $4, $5, $6)`

// Tx is the part of a pgx transaction the gateway uses
type Tx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Conn is a pooled connection that must be released
type Conn interface {
	Begin(ctx context.Context) (Tx, error)
	Release()
}

// Pool hands out connections
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
}

// Gateway writes recommendations, one connection and transaction per call
type Gateway struct {
	pool Pool
}

// NewGateway creates a gateway over pool
func NewGateway(pool Pool) *Gateway {
	return &Gateway{pool: pool}
}

// NewPgxGateway creates a gateway over a pgx pool
func NewPgxGateway(pool *pgxpool.Pool) *Gateway {
	return NewGateway(PgxPool{Pool: pool})
}

// Persist inserts rec inside its own transaction. Any failure is returned as a
// recommendation persistence error and leaves nothing committed.
func (g *Gateway) Persist(ctx context.Context, rec models.Recommendation) error {
	start := time.Now()
	defer func() { metrics.ObservePersist(time.Since(start)) }()

	logger := zerolog.Ctx(ctx)

	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return recommendation.Persistence(fmt.Errorf("acquire connection: %w", err))
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return recommendation.Persistence(fmt.Errorf("begin transaction: %w", err))
	}

	tag, err := tx.Exec(ctx, insertRecommendation,
		rec.ContentType,
		rec.AgeBracket,
		rec.Genre,
		rec.Language,
		rec.Count,
		rec.Text,
	)
	if err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			logger.Error().Err(rbErr).Msg("Rollback after failed insert also failed")
		}
		return recommendation.Persistence(fmt.Errorf("insert recommendation: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return recommendation.Persistence(fmt.Errorf("commit recommendation: %w", err))
	}

	logger.Debug().Int64("rows", tag.RowsAffected()).Msg("Recommendation stored")
	return nil
}
