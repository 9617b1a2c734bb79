// Package archive persists terminal job records to PostgreSQL for audit
// and history. It is optional: when disabled the pipeline runs fully
// in-memory, and archive failures never fail a job.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store writes terminal job rows through a sqlx connection pool.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore connects to PostgreSQL and verifies the connection.
func NewStore(cfg *Config, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	logger.Info("Job archive connected",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
	)

	return &Store{db: db, logger: logger}, nil
}

// RecordTerminal inserts one row for a job that reached a terminal state.
// Re-recording the same job id is a no-op.
func (s *Store) RecordTerminal(ctx context.Context, job domain.Job) error {
	query := `
		INSERT INTO slide_jobs (
			job_id, session_id, video_ref, status,
			error_kind, error_detail, slide_count, result_handle,
			created_at, finished_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10
		)
		ON CONFLICT (job_id) DO NOTHING
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.SessionID,
		job.VideoRef,
		string(job.Status),
		string(job.ErrorKind),
		job.ErrorDetail,
		job.SlideCount,
		job.ResultHandle,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to archive job: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
