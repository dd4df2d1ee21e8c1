package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"ArticleHarvester/internal/domain"
	"ArticleHarvester/internal/ports"
)

const harvestedTable = "harvested_articles"

const harvestedSchema = `CREATE TABLE IF NOT EXISTS harvested_articles (
    source_url   TEXT PRIMARY KEY,
    run_id       TEXT NOT NULL,
    title        TEXT NOT NULL,
    summary      TEXT NOT NULL DEFAULT '',
    resource_url TEXT,
    status       TEXT NOT NULL,
    harvested_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository keeps the history of harvested articles in Postgres.
type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// OpenPostgres connects through the pgx stdlib driver and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// EnsureSchema creates the history table when it does not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, harvestedSchema); err != nil {
		return fmt.Errorf("create %s: %w", harvestedTable, err)
	}
	return nil
}

// SaveHarvested upserts the record keyed by its source URL.
func (r *PostgresRepository) SaveHarvested(ctx context.Context, runID string, record domain.ArticleRecord) error {
	if r.db == nil {
		return nil
	}

	query, args, err := upsertHarvested(runID, record, r.now().UTC()).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert harvested: %w", err)
	}
	return nil
}

// Recent lists the latest harvested articles, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := selectRecent(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			e        domain.HistoryEntry
			resource sql.NullString
			status   string
		)
		if err := rows.Scan(&e.RunID, &e.SourceURL, &e.Title, &e.Summary, &resource, &status, &e.HarvestedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.ResourceURL = resource.String
		e.Status = domain.RecordStatus(status)
		entries = append(entries, e)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return entries, nil
}

func upsertHarvested(runID string, record domain.ArticleRecord, at time.Time) sq.InsertBuilder {
	var resource any
	if record.ResourceURL != "" {
		resource = record.ResourceURL
	}
	return psql.Insert(harvestedTable).
		Columns("source_url", "run_id", "title", "summary", "resource_url", "status", "harvested_at").
		Values(record.SourceURL, runID, record.Title, record.Summary, resource, string(record.Status()), at).
		Suffix(`ON CONFLICT (source_url) DO UPDATE
              SET run_id = EXCLUDED.run_id,
                  title = EXCLUDED.title,
                  summary = EXCLUDED.summary,
                  resource_url = EXCLUDED.resource_url,
                  status = EXCLUDED.status,
                  harvested_at = EXCLUDED.harvested_at`)
}

func selectRecent(limit int) sq.SelectBuilder {
	if limit <= 0 {
		limit = 20
	}
	return psql.Select("run_id", "source_url", "title", "summary", "resource_url", "status", "harvested_at").
		From(harvestedTable).
		OrderBy("harvested_at DESC").
		Limit(uint64(limit))
}
