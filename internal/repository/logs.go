package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/logify-sh/logify/internal/model"
)

// LogRepository persists accepted log events and serves the monthly count
// query. It implements the server's log store and quota.LogCounter.
type LogRepository struct {
	pool *pgxpool.Pool
}

func NewLogRepository(pool *pgxpool.Pool) *LogRepository {
	return &LogRepository{pool: pool}
}

// Insert writes one event in a single statement. The caller has already
// assigned ID and CreatedAt; rows are never updated afterwards.
func (r *LogRepository) Insert(ctx context.Context, log *model.Log) error {
	var meta any
	if log.Meta != nil {
		encoded, err := json.Marshal(log.Meta)
		if err != nil {
			return fmt.Errorf("encode meta: %w", err)
		}
		meta = encoded
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO logs (id, project_id, level, message, service, environment, timestamp,
		                  meta, trace_id, span_id, user_id, request_id, host, tags, ip, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		log.ID,
		log.ProjectID,
		string(log.Level),
		log.Message,
		log.Service,
		log.Environment,
		log.Timestamp,
		meta,
		log.TraceID,
		log.SpanID,
		log.UserID,
		log.RequestID,
		log.Host,
		log.Tags,
		log.IP,
		log.CreatedAt,
	)
	return err
}

// CountSince counts events recorded for the project since the given
// instant. Served by the (project_id, created_at) index.
func (r *LogRepository) CountSince(ctx context.Context, projectID string, since time.Time) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM logs WHERE project_id = $1 AND created_at >= $2`,
		projectID, since).Scan(&count)
	return count, err
}
