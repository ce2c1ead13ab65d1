package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// fakeDB records statements and serves canned rows.
type fakeDB struct {
	execSQL  []string
	execArgs [][]interface{}
	execErr  error

	rows     [][]interface{}
	queryErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...interface{}) (pgx.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

type fakeRows struct {
	rows [][]interface{}
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *pgtype.UUID:
			*d = row[i].(pgtype.UUID)
		case *pgtype.Text:
			*d = row[i].(pgtype.Text)
		case *pgtype.Timestamptz:
			*d = row[i].(pgtype.Timestamptz)
		case *string:
			*d = row[i].(string)
		case *int64:
			*d = row[i].(int64)
		default:
			return errors.New("unsupported scan type")
		}
	}
	return nil
}

func TestPgHistory_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	if err := NewPgHistory(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if len(db.execSQL) != 1 || !strings.Contains(db.execSQL[0], "CREATE TABLE IF NOT EXISTS transcode_jobs") {
		t.Errorf("unexpected statements: %q", db.execSQL)
	}
}

func TestPgHistory_Record(t *testing.T) {
	db := &fakeDB{}
	h := NewPgHistory(db)
	id := uuid.New()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rec := JobRecord{
		ID:         id.String(),
		Direction:  DirectionDecode,
		FileName:   "in.b64",
		Status:     PhaseComplete,
		BytesIn:    12,
		BytesOut:   9,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
	if err := h.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record: %v", err)
	}

	args := db.execArgs[0]
	if len(args) != 11 {
		t.Fatalf("got %d args, want 11", len(args))
	}
	if got := args[0].(pgtype.UUID); !got.Valid || uuid.UUID(got.Bytes) != id {
		t.Errorf("id arg = %+v", got)
	}
	if got := args[7].(pgtype.Text); got.Valid {
		t.Errorf("empty error code should be NULL, got %+v", got)
	}
	if got := args[3].(string); got != "complete" {
		t.Errorf("status arg = %q", got)
	}
}

func TestPgHistory_RecordErrors(t *testing.T) {
	h := NewPgHistory(&fakeDB{})
	if err := h.Record(context.Background(), JobRecord{ID: "not-a-uuid"}); err == nil {
		t.Error("Record accepted an invalid id")
	}

	failing := NewPgHistory(&fakeDB{execErr: errors.New("connection reset")})
	err := failing.Record(context.Background(), JobRecord{ID: uuid.NewString()})
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("Record err = %v", err)
	}
}

func TestPgHistory_Recent(t *testing.T) {
	id := uuid.New()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(2 * time.Second)

	db := &fakeDB{rows: [][]interface{}{{
		pgtype.UUID{Bytes: id, Valid: true},
		"encode",
		"photo.jpg",
		"failed",
		int64(100),
		int64(0),
		int64(0),
		pgtype.Text{String: "JOB004", Valid: true},
		pgtype.Text{},
		pgtype.Timestamptz{Time: started, Valid: true},
		pgtype.Timestamptz{Time: finished, Valid: true},
	}}}

	got, err := NewPgHistory(db).Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}

	want := []JobRecord{{
		ID:         id.String(),
		Direction:  DirectionEncode,
		FileName:   "photo.jpg",
		Status:     PhaseFailed,
		BytesIn:    100,
		ErrorCode:  "JOB004",
		StartedAt:  started,
		FinishedAt: finished,
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Recent mismatch (-want +got):\n%s", diff)
	}
}

func TestPgHistory_RecentQueryError(t *testing.T) {
	db := &fakeDB{queryErr: errors.New("relation does not exist")}
	if _, err := NewPgHistory(db).Recent(context.Background(), 5); err == nil {
		t.Error("Recent returned no error")
	}
}

func TestRecordFor(t *testing.T) {
	res := &JobResult{
		JobID:     "abc",
		Direction: DirectionEncode,
		FileName:  "a.txt",
		Phase:     PhaseCancelled,
		Code:      "JOB001",
	}
	res.Stats.BytesRead = 42
	rec := recordFor(res, ClientInfo{IPAddress: "192.0.2.1"})

	if rec.ID != "abc" || rec.Status != PhaseCancelled || rec.BytesIn != 42 || rec.ErrorCode != "JOB001" || rec.ClientIP != "192.0.2.1" {
		t.Errorf("recordFor = %+v", rec)
	}
}
