// Package session keeps one optimizer Player per running game and records
// every optimized round.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"skyplan/internal/fleet"
	"skyplan/internal/log"
	"skyplan/internal/metrics"
	"skyplan/internal/model"
	"skyplan/internal/opt"
	"skyplan/internal/store"
)

var (
	// ErrUnknownSession is returned for ids that are not live: never started,
	// or evicted from the live cache.
	ErrUnknownSession = errors.New("unknown session")
	ErrSessionEnded   = errors.New("session ended")
	ErrFleetSize      = errors.New("fleet size differs from session")
)

type entry struct {
	mu      sync.Mutex
	player  *opt.Player
	session model.Session
	// ended is set by End under mu; eviction reads it without the lock.
	ended atomic.Bool
}

type Manager struct {
	store   store.Store
	cfg     opt.Config
	seed    int64
	live    *lru.Cache[string, *entry]
	reports *opt.ReportStore
	log     *log.Logger
}

// NewManager keeps at most maxLive players in memory; the least recently
// used one is dropped first.
func NewManager(st store.Store, cfg opt.Config, seed int64, maxLive int, lg *log.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{store: st, cfg: cfg, seed: seed, reports: opt.NewReportStore(), log: lg}
	live, err := lru.NewWithEvict(maxLive, m.onEvict)
	if err != nil {
		return nil, err
	}
	m.live = live
	return m, nil
}

// onEvict runs for capacity evictions and for End; only the former counts
// as a drop.
func (m *Manager) onEvict(id string, e *entry) {
	m.reports.Forget(id)
	metrics.Temperature.DeleteLabelValues(id)
	if e.ended.Load() {
		return
	}
	metrics.Sessions.WithLabelValues("dropped").Inc()
	m.log.Info("session dropped from live cache", slog.String("session", id))
}

func (m *Manager) Config() opt.Config { return m.cfg }

func (m *Manager) newRand() opt.Rand {
	seed := m.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Start opens a new game for planes and resets a fresh player.
func (m *Manager) Start(ctx context.Context, planes []fleet.Plane) (model.Session, error) {
	if len(planes) == 0 {
		return model.Session{}, fleet.ErrEmptyFleet
	}
	s, err := m.store.CreateSession(ctx, model.Session{
		Status:      model.SessionActive,
		Planes:      len(planes),
		Config:      m.cfg,
		Temperature: m.cfg.InitialTemperature,
	})
	if err != nil {
		return model.Session{}, fmt.Errorf("create session: %w", err)
	}
	p := opt.NewPlayer(m.cfg, m.newRand(), m.log.With("session", s.ID))
	p.StartNewGame(planes)
	s.Temperature = p.Temperature()
	m.live.Add(s.ID, &entry{player: p, session: s})

	metrics.Sessions.WithLabelValues("started").Inc()
	metrics.Temperature.WithLabelValues(s.ID).Set(s.Temperature)
	return s, nil
}

// Update runs one round of the session's player and persists the result.
func (m *Manager) Update(ctx context.Context, id string, round int, planes []fleet.Plane, headings []float64) (model.RoundResponse, error) {
	e, err := m.lookup(ctx, id)
	if err != nil {
		return model.RoundResponse{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ended.Load() {
		return model.RoundResponse{}, ErrSessionEnded
	}
	if len(planes) != e.session.Planes {
		return model.RoundResponse{}, fmt.Errorf("%w: session has %d planes, got %d", ErrFleetSize, e.session.Planes, len(planes))
	}

	out, rep, err := e.player.UpdatePlanes(ctx, planes, round, headings)
	if err != nil {
		return model.RoundResponse{}, err
	}
	m.reports.Record(id, rep)
	observe(id, rep)

	e.session.Rounds++
	e.session.LastRound = round
	e.session.Temperature = rep.TemperatureAfter
	e.session.Totals = rep.Totals
	rec := model.RoundRecord{SessionID: id, Round: round, Headings: out, Report: rep, CreatedAt: time.Now().UTC()}
	if err := m.store.SaveRound(ctx, rec); err != nil {
		m.log.Warn("save round failed", slog.String("session", id), slog.Any("err", err))
	}
	if err := m.store.UpdateSession(ctx, e.session); err != nil {
		m.log.Warn("update session failed", slog.String("session", id), slog.Any("err", err))
	}
	m.log.Info("round optimized",
		slog.String("session", id),
		slog.Int("round", round),
		slog.Int("iterations", rep.Iterations),
		slog.Float64("cost", rep.FinalCost.Total),
		slog.Duration("took", rep.Duration))
	return model.RoundResponse{SessionID: id, Round: round, Headings: out, Report: rep}, nil
}

func observe(id string, rep opt.RoundReport) {
	metrics.Rounds.Inc()
	metrics.Iterations.Add(float64(rep.Iterations))
	metrics.Accepted.WithLabelValues("improvement").Add(float64(rep.Improvements))
	metrics.Accepted.WithLabelValues("equal").Add(float64(rep.AcceptedEqual))
	metrics.Accepted.WithLabelValues("worse").Add(float64(rep.AcceptedWorse))
	metrics.Accepted.WithLabelValues("rejected").Add(float64(rep.Rejected))
	metrics.RoundDuration.Observe(rep.Duration.Seconds())
	metrics.Temperature.WithLabelValues(id).Set(rep.TemperatureAfter)
}

func (m *Manager) lookup(ctx context.Context, id string) (*entry, error) {
	if e, ok := m.live.Get(id); ok {
		return e, nil
	}
	s, err := m.store.GetSession(ctx, id)
	if err == nil && s.Status == model.SessionEnded {
		return nil, ErrSessionEnded
	}
	return nil, ErrUnknownSession
}

// Get returns the persisted session, refreshed from the live player when
// it is still in memory.
func (m *Manager) Get(ctx context.Context, id string) (model.Session, error) {
	if e, ok := m.live.Peek(id); ok {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.session, nil
	}
	s, err := m.store.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Session{}, ErrUnknownSession
	}
	return s, err
}

// End closes the game and drops its player. A round still running for the
// session finishes and is persisted first.
func (m *Manager) End(ctx context.Context, id string) error {
	e, live := m.live.Peek(id)
	if live {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.ended.Load() {
			return nil
		}
	}
	at := time.Now().UTC()
	err := m.store.EndSession(ctx, id, at)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnknownSession
	}
	if err != nil {
		return err
	}
	if live {
		e.ended.Store(true)
		e.session.Status = model.SessionEnded
		e.session.EndedAt = &at
		m.live.Remove(id)
	}
	metrics.Sessions.WithLabelValues("ended").Inc()
	return nil
}

func (m *Manager) Rounds(ctx context.Context, id string, limit int) ([]model.RoundRecord, error) {
	recs, err := m.store.ListRounds(ctx, id, limit)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownSession
	}
	return recs, err
}

func (m *Manager) LastReport(id string) (opt.RoundReport, bool) {
	return m.reports.Last(id)
}

// Live reports how many players are held in memory.
func (m *Manager) Live() int { return m.live.Len() }
