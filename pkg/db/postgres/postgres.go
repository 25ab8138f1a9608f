package postgres

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	pgxuuid "github.com/jackc/pgx-gofrs-uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
)

type PoolConfigOption func(cfg *pgxpool.Config)

// WithTracer installs a query tracer on every connection of the pool.
func WithTracer(tracer pgx.QueryTracer) PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.Tracer = tracer
	}
}

func WithMaxConns(n int32) PoolConfigOption {
	return func(cfg *pgxpool.Config) {
		if n > 0 {
			cfg.MaxConns = n
		}
	}
}

// InitWithURL creates a connection pool and verifies it with a ping.
func InitWithURL(url string, opts ...PoolConfigOption) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	dbConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	for _, opt := range opts {
		opt(dbConfig)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewOtlpTracer creates spans for queries, linked to the span found in ctx.
func NewOtlpTracer() pgx.QueryTracer {
	return otelpgx.NewTracer(otelpgx.WithIncludeQueryParameters())
}

type queryLogger struct {
	log   *log.Logger
	level log.Level
}

// NewMyTracer logs each statement and its duration at the given level.
func NewMyTracer(logger *log.Logger, level log.Level) pgx.QueryTracer {
	return &queryLogger{log: logger, level: level}
}

type queryStartKey struct{}

type queryStart struct {
	sql  string
	args []any
}

func (t *queryLogger) TraceQueryStart(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryStartData,
) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{data.SQL, data.Args})
}

//nolint:whitespace // can't make the linters happy
func (t *queryLogger) TraceQueryEnd(
	ctx context.Context,
	_ *pgx.Conn,
	data pgx.TraceQueryEndData,
) {
	start, _ := ctx.Value(queryStartKey{}).(queryStart)
	fields := []log.Field{
		log.String("sql", start.sql),
		log.Any("args", start.args),
		log.String("tag", data.CommandTag.String()),
	}
	if data.Err != nil {
		t.log.Warn("query failed", append(fields, log.ErrorField(data.Err))...)
		return
	}
	t.log.Log(t.level, "query", fields...)
}
