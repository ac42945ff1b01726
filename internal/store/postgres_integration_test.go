//go:build postgres_integration

package store

import (
	"os"
	"testing"
	"time"

	"skyplan/internal/model"
	"skyplan/internal/opt"
)

func TestPostgresSessionLifecycle(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer func() { _ = p.Close() }()
	if err := p.Ping(t.Context()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := p.Migrate(t.Context()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	s, err := p.CreateSession(t.Context(), model.Session{Planes: 2, Config: opt.DefaultConfig(), Temperature: 1000})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	rec := model.RoundRecord{SessionID: s.ID, Round: 1, Headings: []float64{-1, 90}, Report: opt.RoundReport{Round: 1, Iterations: 10}}
	if err := p.SaveRound(t.Context(), rec); err != nil {
		t.Fatalf("SaveRound: %v", err)
	}
	rounds, err := p.ListRounds(t.Context(), s.ID, 0)
	if err != nil || len(rounds) != 1 || rounds[0].Report.Iterations != 10 {
		t.Fatalf("ListRounds: %v %+v", err, rounds)
	}
	if err := p.EndSession(t.Context(), s.ID, time.Now()); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	got, err := p.GetSession(t.Context(), s.ID)
	if err != nil || got.Status != model.SessionEnded || got.EndedAt == nil {
		t.Fatalf("GetSession: %v %+v", err, got)
	}
	s.Rounds = 1
	if err := p.UpdateSession(t.Context(), s); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	got, err = p.GetSession(t.Context(), s.ID)
	if err != nil || got.Status != model.SessionEnded || got.Rounds != 1 {
		t.Fatalf("UpdateSession after end: %v %+v", err, got)
	}
}
