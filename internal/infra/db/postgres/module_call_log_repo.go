package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/repository"
)

var _ repository.ModuleCallLogRepository = (*moduleCallLogRepo)(nil)

type moduleCallLogRepo struct{ pool *pgxpool.Pool }

func NewModuleCallLogRepo(pool *pgxpool.Pool) *moduleCallLogRepo {
	return &moduleCallLogRepo{pool: pool}
}

// Append always writes outside any caller transaction so the diagnostic
// survives a rollback of the work that failed.
func (r *moduleCallLogRepo) Append(ctx context.Context, e *model.ModuleCallLog) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO module_call_logs (module, action, request, response, processed_data, created_at)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id;`
	row, err := pickRow(ctx, r.pool, nil, q, e.Module, e.Action, e.Request, e.Response, e.ProcessedData, e.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&e.ID); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

// ListByAction returns the newest entries first.
func (r *moduleCallLogRepo) ListByAction(ctx context.Context, module, action string, limit int) ([]*model.ModuleCallLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, module, action, request, response, processed_data, created_at
FROM module_call_logs WHERE module=$1 AND action=$2 ORDER BY id DESC LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, nil, q, module, action, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ModuleCallLog
	for rows.Next() {
		var e model.ModuleCallLog
		if err := rows.Scan(&e.ID, &e.Module, &e.Action, &e.Request, &e.Response, &e.ProcessedData, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
