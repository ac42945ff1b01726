package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"skyplan/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id          uuid PRIMARY KEY,
    status      text NOT NULL,
    planes      integer NOT NULL,
    config      jsonb NOT NULL,
    rounds      integer NOT NULL DEFAULT 0,
    last_round  integer NOT NULL DEFAULT 0,
    temperature double precision NOT NULL,
    totals      jsonb NOT NULL,
    created_at  timestamptz NOT NULL,
    ended_at    timestamptz
);
CREATE TABLE IF NOT EXISTS session_rounds (
    id         bigserial PRIMARY KEY,
    session_id uuid NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    round      integer NOT NULL,
    headings   jsonb NOT NULL,
    report     jsonb NOT NULL,
    created_at timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS session_rounds_session_idx ON session_rounds (session_id, id);
`

// Migrate creates the schema if it does not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) CreateSession(ctx context.Context, s model.Session) (model.Session, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Status == "" {
		s.Status = model.SessionActive
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO sessions (id, status, planes, config, rounds, last_round, temperature, totals, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		s.ID, s.Status, s.Planes, toJSON(s.Config), s.Rounds, s.LastRound, s.Temperature, toJSON(s.Totals), s.CreatedAt)
	if err != nil {
		return model.Session{}, err
	}
	return s, nil
}

func (p *Postgres) GetSession(ctx context.Context, id string) (model.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Session{}, ErrNotFound
	}
	var s model.Session
	var cfg, totals []byte
	var ended sql.NullTime
	err := p.db.QueryRowContext(ctx, `SELECT id::text, status, planes, config, rounds, last_round, temperature, totals, created_at, ended_at FROM sessions WHERE id=$1`, id).
		Scan(&s.ID, &s.Status, &s.Planes, &cfg, &s.Rounds, &s.LastRound, &s.Temperature, &totals, &s.CreatedAt, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	if err := json.Unmarshal(cfg, &s.Config); err != nil {
		return model.Session{}, fmt.Errorf("decode config: %w", err)
	}
	if err := json.Unmarshal(totals, &s.Totals); err != nil {
		return model.Session{}, fmt.Errorf("decode totals: %w", err)
	}
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	return s, nil
}

// UpdateSession stores round progress; status and ended_at are owned by
// EndSession.
func (p *Postgres) UpdateSession(ctx context.Context, s model.Session) error {
	res, err := p.db.ExecContext(ctx, `UPDATE sessions SET rounds=$2, last_round=$3, temperature=$4, totals=$5 WHERE id=$1`,
		s.ID, s.Rounds, s.LastRound, s.Temperature, toJSON(s.Totals))
	return affected(res, err)
}

func (p *Postgres) EndSession(ctx context.Context, id string, at time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := p.db.ExecContext(ctx, `UPDATE sessions SET status=$2, ended_at=$3 WHERE id=$1`, id, model.SessionEnded, at)
	return affected(res, err)
}

func (p *Postgres) SaveRound(ctx context.Context, rec model.RoundRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO session_rounds (session_id, round, headings, report, created_at) VALUES ($1,$2,$3,$4,$5)`,
		rec.SessionID, rec.Round, toJSON(rec.Headings), toJSON(rec.Report), rec.CreatedAt)
	return err
}

func (p *Postgres) ListRounds(ctx context.Context, sessionID string, limit int) ([]model.RoundRecord, error) {
	if _, err := p.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, `SELECT round, headings, report, created_at FROM (
        SELECT id, round, headings, report, created_at FROM session_rounds WHERE session_id=$1 ORDER BY id DESC LIMIT $2
    ) r ORDER BY id`, sessionID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.RoundRecord{}
	for rows.Next() {
		rec := model.RoundRecord{SessionID: sessionID}
		var headings, report []byte
		if err := rows.Scan(&rec.Round, &headings, &report, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(headings, &rec.Headings); err != nil {
			return nil, fmt.Errorf("decode headings: %w", err)
		}
		if err := json.Unmarshal(report, &rec.Report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// toJSON encodes v for a jsonb column.
func toJSON(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(b)
}
