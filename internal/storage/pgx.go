package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool adapts *pgxpool.Pool to Pool
type PgxPool struct {
	Pool *pgxpool.Pool
}

func (p PgxPool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return pgxConn{conn: conn}, nil
}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c pgxConn) Begin(ctx context.Context) (Tx, error) {
	return c.conn.Begin(ctx)
}

func (c pgxConn) Release() {
	c.conn.Release()
}
