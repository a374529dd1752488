package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kickfinder/backend/internal/model/catalog"
)

// Config describes the Postgres catalog connection.
type Config struct {
	URL          string
	Table        string
	QueryTimeout time.Duration
	MaxConns     int32
}

// PostgresStore serves catalog queries from a Postgres table.
type PostgresStore struct {
	pool    *pgxpool.Pool
	table   string
	timeout time.Duration
}

// NewPostgresStore connects the pool and verifies it with a ping.
func NewPostgresStore(ctx context.Context, cfg Config) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrCatalogUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", catalog.ErrCatalogUnavailable, err)
	}

	table := cfg.Table
	if table == "" {
		table = "sneakers"
	}

	log.Printf("[catalog] connected to postgres table=%s maxConns=%d", table, poolCfg.MaxConns)
	return &PostgresStore{pool: pool, table: table, timeout: cfg.QueryTimeout}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Query runs the filter as a single parameterized SELECT on a connection
// acquired for this call only.
func (s *PostgresStore) Query(ctx context.Context, filter catalog.Filter) ([]catalog.Match, error) {
	sql, args, err := buildQuery(s.table, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrCatalogQueryFailed, err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrCatalogUnavailable, err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrCatalogQueryFailed, err)
	}

	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Match, error) {
		var m catalog.Match
		err := row.Scan(&m.Name, &m.Price)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalog.ErrCatalogQueryFailed, err)
	}
	return matches, nil
}

// buildQuery renders the filter as SQL. Identifiers and operators come only
// from the catalog whitelists; thresholds are always bound parameters.
func buildQuery(table string, filter catalog.Filter) (string, []any, error) {
	if strings.TrimSpace(table) == "" {
		return "", nil, errors.New("catalog table is required")
	}
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT name, price FROM ")
	b.WriteString(pgx.Identifier{table}.Sanitize())

	args := make([]any, 0, len(filter))
	for i, c := range filter {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, c.Threshold)
		b.WriteString(pgx.Identifier{string(c.Attribute)}.Sanitize())
		b.WriteString(" ")
		b.WriteString(string(c.Operator))
		b.WriteString(" $")
		b.WriteString(strconv.Itoa(len(args)))
	}
	b.WriteString(" ORDER BY price, name")

	return b.String(), args, nil
}
