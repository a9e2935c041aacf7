package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lexatlas/statute-crag/internal/core/domain"
)

type StatuteRepository struct {
	db *sql.DB
}

func NewStatuteRepository(db *sql.DB) *StatuteRepository {
	return &StatuteRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *StatuteRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS statute_documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	title TEXT,
	doc_code TEXT,
	provision_count INTEGER NOT NULL DEFAULT 0,
	chunk_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_statute_documents_status ON statute_documents(status);
CREATE INDEX IF NOT EXISTS idx_statute_documents_doc_code ON statute_documents(doc_code);
CREATE INDEX IF NOT EXISTS idx_statute_documents_created_at ON statute_documents(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *StatuteRepository) Create(ctx context.Context, doc *domain.StatuteDocument) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO statute_documents (
	id, filename, mime_type, storage_path, title, doc_code, provision_count, chunk_count, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		doc.ID, doc.Filename, doc.MimeType, doc.StoragePath, doc.Title, doc.DocCode,
		doc.ProvisionCount, doc.ChunkCount, string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert statute document: %w", err)
	}
	return nil
}

func (r *StatuteRepository) GetByID(ctx context.Context, id string) (*domain.StatuteDocument, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, title, doc_code, provision_count, chunk_count, status, error_message, created_at, updated_at
FROM statute_documents
WHERE id = $1
`, id)

	var doc domain.StatuteDocument
	var status string

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &doc.StoragePath, &doc.Title, &doc.DocCode,
		&doc.ProvisionCount, &doc.ChunkCount, &status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get statute document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan statute document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (r *StatuteRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE statute_documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update statute document status: %w", err)
	}
	return requireRowAffected(result, "update statute document status", id)
}

func (r *StatuteRepository) SaveProcessingResult(ctx context.Context, id string, title, docCode string, provisionCount, chunkCount int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE statute_documents
SET title = $2, doc_code = $3, provision_count = $4, chunk_count = $5, updated_at = $6
WHERE id = $1
`, id, title, docCode, provisionCount, chunkCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save processing result: %w", err)
	}
	return requireRowAffected(result, "save processing result", id)
}

func requireRowAffected(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}
