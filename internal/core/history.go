package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// HistoryStore records finished jobs.
type HistoryStore interface {
	Record(ctx context.Context, rec JobRecord) error
	Recent(ctx context.Context, limit int) ([]JobRecord, error)
}

// NopHistory is used when no database is configured.
type NopHistory struct{}

func (NopHistory) Record(context.Context, JobRecord) error { return nil }

func (NopHistory) Recent(context.Context, int) ([]JobRecord, error) { return nil, nil }

// PgHistory stores job history in the transcode_jobs table.
type PgHistory struct {
	db DBTX
}

// NewPgHistory returns a history store backed by db.
func NewPgHistory(db DBTX) *PgHistory {
	return &PgHistory{db: db}
}

const historySchema = `
CREATE TABLE IF NOT EXISTS transcode_jobs (
	id            UUID PRIMARY KEY,
	direction     TEXT NOT NULL,
	file_name     TEXT NOT NULL,
	status        TEXT NOT NULL,
	bytes_in      BIGINT NOT NULL DEFAULT 0,
	bytes_out     BIGINT NOT NULL DEFAULT 0,
	invalid_bytes BIGINT NOT NULL DEFAULT 0,
	error_code    TEXT,
	client_ip     TEXT,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS transcode_jobs_finished_at_idx ON transcode_jobs (finished_at DESC);
`

// EnsureSchema creates the history table if it does not exist.
func (h *PgHistory) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, historySchema); err != nil {
		return fmt.Errorf("create transcode_jobs: %w", err)
	}
	return nil
}

const insertJobSQL = `
INSERT INTO transcode_jobs (
	id, direction, file_name, status, bytes_in, bytes_out, invalid_bytes,
	error_code, client_ip, started_at, finished_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	bytes_in = EXCLUDED.bytes_in,
	bytes_out = EXCLUDED.bytes_out,
	invalid_bytes = EXCLUDED.invalid_bytes,
	error_code = EXCLUDED.error_code,
	finished_at = EXCLUDED.finished_at`

// Record inserts or updates one job.
func (h *PgHistory) Record(ctx context.Context, rec JobRecord) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("record job: invalid id %q: %w", rec.ID, err)
	}

	_, err = h.db.Exec(ctx, insertJobSQL,
		pgtype.UUID{Bytes: id, Valid: true},
		string(rec.Direction),
		rec.FileName,
		string(rec.Status),
		rec.BytesIn,
		rec.BytesOut,
		rec.InvalidBytes,
		textOrNull(rec.ErrorCode),
		textOrNull(rec.ClientIP),
		pgtype.Timestamptz{Time: rec.StartedAt, Valid: true},
		pgtype.Timestamptz{Time: rec.FinishedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("record job %s: %w", rec.ID, err)
	}
	return nil
}

const recentJobsSQL = `
SELECT id, direction, file_name, status, bytes_in, bytes_out, invalid_bytes,
	error_code, client_ip, started_at, finished_at
FROM transcode_jobs
ORDER BY finished_at DESC
LIMIT $1`

// Recent returns up to limit jobs, newest first.
func (h *PgHistory) Recent(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := h.db.Query(ctx, recentJobsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query job history: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var (
			id                  pgtype.UUID
			direction, status   string
			rec                 JobRecord
			errorCode, clientIP pgtype.Text
			started, finished   pgtype.Timestamptz
		)
		if err := rows.Scan(
			&id, &direction, &rec.FileName, &status,
			&rec.BytesIn, &rec.BytesOut, &rec.InvalidBytes,
			&errorCode, &clientIP, &started, &finished,
		); err != nil {
			return nil, fmt.Errorf("scan job history: %w", err)
		}

		rec.ID = uuid.UUID(id.Bytes).String()
		rec.Direction = Direction(direction)
		rec.Status = JobPhase(status)
		rec.ErrorCode = errorCode.String
		rec.ClientIP = clientIP.String
		rec.StartedAt = started.Time
		rec.FinishedAt = finished.Time
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read job history: %w", err)
	}
	return records, nil
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

// recordFor builds the history row for a finished job.
func recordFor(res *JobResult, client ClientInfo) JobRecord {
	return JobRecord{
		ID:           res.JobID,
		Direction:    res.Direction,
		FileName:     res.FileName,
		Status:       res.Phase,
		BytesIn:      res.Stats.BytesRead,
		BytesOut:     res.Stats.BytesWritten,
		InvalidBytes: res.Stats.InvalidBytes,
		ErrorCode:    res.Code,
		ClientIP:     client.IPAddress,
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
	}
}

// historyTimeout bounds the history write after a job finishes.
const historyTimeout = 5 * time.Second
