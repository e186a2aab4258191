package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gocraft/dbr/v2"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS linked_accounts (
	telegram_id         BIGINT PRIMARY KEY,
	marketplace_user_id TEXT NOT NULL,
	role                TEXT NOT NULL,
	api_token           TEXT NOT NULL,
	notify_enabled      BOOLEAN NOT NULL DEFAULT TRUE,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_check          TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS jobs_archive (
	id                   TEXT PRIMARY KEY,
	title                TEXT NOT NULL,
	company              TEXT NOT NULL,
	location             TEXT NOT NULL DEFAULT '',
	formatted_salary     TEXT NOT NULL DEFAULT '',
	application_deadline TIMESTAMPTZ,
	recruiter_id         TEXT NOT NULL DEFAULT '',
	raw_data             JSONB,
	archived_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS seen_jobs (
	telegram_id BIGINT NOT NULL REFERENCES linked_accounts (telegram_id) ON DELETE CASCADE,
	job_id      TEXT NOT NULL,
	seen_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (telegram_id, job_id)
);

CREATE INDEX IF NOT EXISTS seen_jobs_seen_at_idx ON seen_jobs (seen_at);
`

// Store keeps the bot's own state: linked accounts, the job archive and
// per-account seen markers. Marketplace data itself lives behind the API.
type Store struct {
	conn   *dbr.Connection
	sess   *dbr.Session
	logger *zap.Logger
}

func New(dsn string, logger *zap.Logger) (*Store, error) {
	conn, err := dbr.Open("postgres", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// set up connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("successfully connected to PostgreSQL")

	return &Store{
		conn:   conn,
		sess:   conn.NewSession(nil),
		logger: logger,
	}, nil
}

// Migrate creates missing tables. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		s.logger.Error("failed to apply schema", zap.Error(err))
		return fmt.Errorf("migrate: %w", err)
	}

	s.logger.Info("database schema up to date")
	return nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) beginTx(ctx context.Context) (*dbr.Tx, error) {
	return s.sess.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
}
