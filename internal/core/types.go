package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/beb64/internal/sniff"
	"github.com/JonMunkholm/beb64/internal/transcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx used by the history store.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Direction is the transcode direction of a job.
type Direction string

const (
	DirectionEncode Direction = "encode"
	DirectionDecode Direction = "decode"
)

// ParseDirection validates a direction name from a request path.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionEncode, DirectionDecode:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// JobPhase is the lifecycle state of a job. Phases only move forward:
// queued -> running -> one of complete, failed, cancelled.
type JobPhase string

const (
	PhaseQueued    JobPhase = "queued"
	PhaseRunning   JobPhase = "running"
	PhaseComplete  JobPhase = "complete"
	PhaseFailed    JobPhase = "failed"
	PhaseCancelled JobPhase = "cancelled"
)

// Terminal reports whether no further transitions can happen.
func (p JobPhase) Terminal() bool {
	switch p {
	case PhaseComplete, PhaseFailed, PhaseCancelled:
		return true
	}
	return false
}

// JobOptions controls a single job. Start from Service.DefaultJobOptions.
type JobOptions struct {
	Mode        transcode.Mode
	RequireText bool
	WrapColumn  int
}

// JobProgress is broadcast to subscribers while a job runs.
type JobProgress struct {
	JobID      string    `json:"job_id"`
	Direction  Direction `json:"direction"`
	FileName   string    `json:"file_name"`
	Phase      JobPhase  `json:"phase"`
	Percent    float64   `json:"percent"`
	BytesTotal int64     `json:"bytes_total"`
	Error      string    `json:"error,omitempty"`
	Code       string    `json:"code,omitempty"`
}

// JobResult is the final state of a job.
type JobResult struct {
	JobID      string                `json:"job_id"`
	Direction  Direction             `json:"direction"`
	FileName   string                `json:"file_name"`
	OutputName string                `json:"output_name"`
	Phase      JobPhase              `json:"phase"`
	Stats      transcode.Stats       `json:"stats"`
	Hint       *sniff.Classification `json:"hint,omitempty"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Duration   time.Duration         `json:"duration"`
	Error      string                `json:"error,omitempty"`
	Code       string                `json:"code,omitempty"`
}

// JobRecord is one row of job history.
type JobRecord struct {
	ID           string    `json:"id"`
	Direction    Direction `json:"direction"`
	FileName     string    `json:"file_name"`
	Status       JobPhase  `json:"status"`
	BytesIn      int64     `json:"bytes_in"`
	BytesOut     int64     `json:"bytes_out"`
	InvalidBytes int64     `json:"invalid_bytes"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ClientIP     string    `json:"client_ip,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}
