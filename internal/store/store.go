package store

import (
	"context"
	"errors"
	"time"

	"skyplan/internal/model"
)

// Store is the persistence interface used by the session manager.
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, s model.Session) (model.Session, error)
	GetSession(ctx context.Context, id string) (model.Session, error)
	UpdateSession(ctx context.Context, s model.Session) error
	EndSession(ctx context.Context, id string, at time.Time) error

	// Rounds
	SaveRound(ctx context.Context, rec model.RoundRecord) error
	ListRounds(ctx context.Context, sessionID string, limit int) ([]model.RoundRecord, error)

	Ping(ctx context.Context) error
}

var ErrNotFound = errors.New("not found")

const (
	defaultListLimit = 1000
	maxListLimit     = 10000
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}
