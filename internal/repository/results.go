package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/presalekit/estimator/internal/entity"
)

// ErrResultNotReady distinguishes "no result exists yet for this document"
// from the document itself being unknown.
var ErrResultNotReady = errors.New("result not ready")

type ResultRepository interface {
	// Append writes a result with an explicit version (the pipeline's normal
	// path always writes version 1 for its document).
	Append(ctx context.Context, result *entity.GeneratedResult) error
	// AppendNextVersion writes a result at current max version + 1, reading
	// the max inside the insert so concurrent appends cannot collide silently.
	AppendNextVersion(ctx context.Context, documentID uuid.UUID, llmModel string, payload json.RawMessage, promptText string) (int, error)
	Latest(ctx context.Context, documentID uuid.UUID) (*entity.GeneratedResult, error)
	GetVersion(ctx context.Context, documentID uuid.UUID, version int) (*entity.GeneratedResult, error)
	// AppendTrace records one LLM attempt. Best-effort by contract: callers
	// log failures and move on, so a trace-write problem never fails a job.
	AppendTrace(ctx context.Context, trace *entity.AttemptTrace) error
}

type resultRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewResultRepository(pool *pgxpool.Pool, log *slog.Logger) ResultRepository {
	if log == nil {
		log = slog.Default()
	}
	return &resultRepo{pool: pool, log: log}
}

func (r *resultRepo) Append(ctx context.Context, result *entity.GeneratedResult) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO results (id, document_id, version, llm_model, result_json, raw_llm_output, validation_error, prompt_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
		result.ID, result.DocumentID, result.Version, result.LLMModel,
		result.ResultJSON, result.RawLLMOutput, result.ValidationError, result.PromptText)
	if err != nil {
		r.log.Error("result.append_failed", "document_id", result.DocumentID, "version", result.Version, "error", err)
		return err
	}
	r.log.Info("result.appended", "document_id", result.DocumentID, "version", result.Version)
	return nil
}

func (r *resultRepo) AppendNextVersion(ctx context.Context, documentID uuid.UUID, llmModel string, payload json.RawMessage, promptText string) (int, error) {
	var version int
	err := r.pool.QueryRow(ctx, `
		INSERT INTO results (id, document_id, version, llm_model, result_json, prompt_text, created_at)
		SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5, now()
		FROM results WHERE document_id = $2
		RETURNING version`,
		uuid.New(), documentID, llmModel, payload, promptText).Scan(&version)
	if err != nil {
		r.log.Error("result.append_next_failed", "document_id", documentID, "error", err)
		return 0, err
	}
	r.log.Info("result.appended", "document_id", documentID, "version", version)
	return version, nil
}

func (r *resultRepo) Latest(ctx context.Context, documentID uuid.UUID) (*entity.GeneratedResult, error) {
	return r.queryOne(ctx, `
		SELECT id, document_id, version, llm_model, result_json, raw_llm_output, validation_error, prompt_text, created_at
		FROM results WHERE document_id = $1
		ORDER BY version DESC LIMIT 1`, documentID)
}

func (r *resultRepo) GetVersion(ctx context.Context, documentID uuid.UUID, version int) (*entity.GeneratedResult, error) {
	return r.queryOne(ctx, `
		SELECT id, document_id, version, llm_model, result_json, raw_llm_output, validation_error, prompt_text, created_at
		FROM results WHERE document_id = $1 AND version = $2`, documentID, version)
}

func (r *resultRepo) queryOne(ctx context.Context, sql string, args ...any) (*entity.GeneratedResult, error) {
	var res entity.GeneratedResult
	err := r.pool.QueryRow(ctx, sql, args...).
		Scan(&res.ID, &res.DocumentID, &res.Version, &res.LLMModel, &res.ResultJSON,
			&res.RawLLMOutput, &res.ValidationError, &res.PromptText, &res.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResultNotReady
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resultRepo) AppendTrace(ctx context.Context, trace *entity.AttemptTrace) error {
	if trace.ID == uuid.Nil {
		trace.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attempt_traces (id, document_id, attempt, prompt, raw_output, error_code, error_detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		trace.ID, trace.DocumentID, trace.Attempt, trace.Prompt,
		trace.RawOutput, trace.ErrorCode, trace.ErrorDetail)
	return err
}
