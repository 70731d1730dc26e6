package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"mollie-gateway/internal/domain"
	"mollie-gateway/internal/domain/model"
	"mollie-gateway/internal/domain/ports/repository"
)

var _ repository.GatewayLogRepository = (*gatewayLogRepo)(nil)

type gatewayLogRepo struct{ pool *pgxpool.Pool }

func NewGatewayLogRepo(pool *pgxpool.Pool) *gatewayLogRepo {
	return &gatewayLogRepo{pool: pool}
}

func (r *gatewayLogRepo) Append(ctx context.Context, tx repository.Tx, e *model.GatewayLogEntry) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(e.Data)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `INSERT INTO gateway_logs (id, gateway, data, status, created_at) VALUES ($1,$2,$3,$4,$5);`
	if _, err := execSQL(ctx, r.pool, tx, q, e.ID, e.Gateway, data, string(e.Status), e.CreatedAt); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

// ListByGateway returns the newest entries first.
func (r *gatewayLogRepo) ListByGateway(ctx context.Context, tx repository.Tx, gateway string, limit int) ([]*model.GatewayLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, gateway, data, status, created_at FROM gateway_logs WHERE gateway=$1 ORDER BY id DESC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, gateway, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.GatewayLogEntry
	for rows.Next() {
		var (
			e      model.GatewayLogEntry
			data   []byte
			status string
		)
		if err := rows.Scan(&e.ID, &e.Gateway, &data, &status, &e.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &e.Data); err != nil {
				return nil, domain.ErrReadDatabaseRow
			}
		}
		e.Status = model.GatewayLogStatus(status)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
