package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/presalekit/estimator/constants"
	"github.com/presalekit/estimator/internal/common"
	"github.com/presalekit/estimator/internal/entity"
)

// ErrNoQueuedDocuments is returned by ClaimNextQueued when no claimable row
// exists; callers back off rather than treating it as a failure.
var ErrNoQueuedDocuments = errors.New("no queued documents")

type DocumentRepository interface {
	// ClaimNextQueued atomically selects the oldest queued document, skipping
	// rows locked by other workers, and marks it running/10/extracting_text
	// in the same transaction.
	ClaimNextQueued(ctx context.Context) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	// UpdateStatus writes status/progress/message. A failed write is retried
	// once best-effort; a second failure is logged and swallowed so a
	// persistence hiccup cannot hang the pipeline.
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, progress int, message string)
	ListFiles(ctx context.Context, presaleID uuid.UUID) ([]*entity.PresaleFile, error)
}

type documentRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewDocumentRepository(pool *pgxpool.Pool, log *slog.Logger) DocumentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &documentRepo{pool: pool, log: log}
}

func (r *documentRepo) ClaimNextQueued(ctx context.Context) (uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM documents
		WHERE status = $1
		ORDER BY created_at
		FOR UPDATE SKIP LOCKED
		LIMIT 1`, constants.StatusQueued).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNoQueuedDocuments
	}
	if err != nil {
		return uuid.Nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE documents
		SET status = $2, progress = $3, message = $4, updated_at = now()
		WHERE id = $1`,
		id, constants.StatusRunning, constants.ProgressClaimed, constants.MessageExtractingText)
	if err != nil {
		return uuid.Nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}

	r.log.Info("document.claimed", "document_id", id)
	return id, nil
}

func (r *documentRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	var d entity.Document
	err := r.pool.QueryRow(ctx, `
		SELECT id, presale_id, prompt, params_json, status, progress, message, created_at, updated_at
		FROM documents WHERE id = $1`, id).
		Scan(&d.ID, &d.PresaleID, &d.Prompt, &d.Params, &d.Status, &d.Progress, &d.Message, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, progress int, message string) {
	if err := r.writeStatus(ctx, id, status, progress, message); err != nil {
		r.log.Warn("document.status_write_failed", "document_id", id, "status", status, "error", err)
		if err := r.writeStatus(ctx, id, status, progress, message); err != nil {
			r.log.Error("document.status_write_retry_failed", "document_id", id, "status", status, "error", err)
		}
	}
}

func (r *documentRepo) writeStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, progress int, message string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status = $2, progress = $3, message = $4, updated_at = now()
		WHERE id = $1`, id, status, progress, message)
	return err
}

func (r *documentRepo) ListFiles(ctx context.Context, presaleID uuid.UUID) ([]*entity.PresaleFile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, presale_id, filename, content_type, size_bytes, storage_key, created_at
		FROM files WHERE presale_id = $1
		ORDER BY created_at`, presaleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.PresaleFile
	for rows.Next() {
		var f entity.PresaleFile
		if err := rows.Scan(&f.ID, &f.PresaleID, &f.Filename, &f.ContentType, &f.SizeBytes, &f.StorageKey, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
