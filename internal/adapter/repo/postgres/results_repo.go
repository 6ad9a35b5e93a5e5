package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"

	"github.com/hirelens/screener/internal/domain"
)

// ResultRepo persists screening results. The analysis payload is stored as
// a JSONB document keyed by (resume_id, job_hash) so re-screening the same
// pairing replaces the previous verdict.
type ResultRepo struct{ Pool PgxPool }

// NewResultRepo constructs a ResultRepo with the given pool.
func NewResultRepo(p PgxPool) *ResultRepo { return &ResultRepo{Pool: p} }

// Upsert inserts or updates a result and returns its id.
func (r *ResultRepo) Upsert(ctx domain.Context, res domain.ScreenResult) (string, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.Upsert")
	defer span.End()
	id := res.ID
	if id == "" {
		id = ulid.Make().String()
	}
	payload, err := json.Marshal(res.Result)
	if err != nil {
		return "", fmt.Errorf("op=result.upsert: marshal: %w", err)
	}
	q := `INSERT INTO results (id, resume_id, job_hash, result, created_at)
	VALUES ($1,$2,$3,$4,$5)
	ON CONFLICT (resume_id, job_hash)
	DO UPDATE SET result=EXCLUDED.result`
	if _, err := r.Pool.Exec(ctx, q, id, res.ResumeID, res.JobHash, payload, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("op=result.upsert: %w", err)
	}
	return id, nil
}

// Get loads a result by id.
func (r *ResultRepo) Get(ctx domain.Context, id string) (domain.ScreenResult, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.Get")
	defer span.End()
	q := `SELECT id, resume_id, job_hash, result, created_at FROM results WHERE id=$1`
	return r.scanOne(r.Pool.QueryRow(ctx, q, id), "result.get")
}

// FindByResumeAndJob loads the stored verdict for a (resume, job) pairing.
func (r *ResultRepo) FindByResumeAndJob(ctx domain.Context, resumeID, jobHash string) (domain.ScreenResult, error) {
	tracer := otel.Tracer("repo.results")
	ctx, span := tracer.Start(ctx, "results.FindByResumeAndJob")
	defer span.End()
	q := `SELECT id, resume_id, job_hash, result, created_at FROM results WHERE resume_id=$1 AND job_hash=$2`
	return r.scanOne(r.Pool.QueryRow(ctx, q, resumeID, jobHash), "result.find")
}

func (r *ResultRepo) scanOne(row pgx.Row, op string) (domain.ScreenResult, error) {
	var (
		res     domain.ScreenResult
		payload []byte
	)
	if err := row.Scan(&res.ID, &res.ResumeID, &res.JobHash, &payload, &res.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ScreenResult{}, fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
		}
		return domain.ScreenResult{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if err := json.Unmarshal(payload, &res.Result); err != nil {
		return domain.ScreenResult{}, fmt.Errorf("op=%s: unmarshal: %w", op, err)
	}
	return res, nil
}
