package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyplan/internal/fleet"
	"skyplan/internal/geom"
	"skyplan/internal/metrics"
	"skyplan/internal/model"
	"skyplan/internal/opt"
	"skyplan/internal/store"
)

func testPlanes() []fleet.Plane {
	return []fleet.Plane{
		{ID: 0, Position: geom.NewVec2(0, 0), Destination: geom.NewVec2(100, 0), Heading: fleet.HeadingNotDeparted(), Departure: 0},
		{ID: 1, Position: geom.NewVec2(50, 50), Destination: geom.NewVec2(50, 0), Heading: fleet.HeadingAirborne(10), Departure: 0},
	}
}

func fastConfig() opt.Config {
	cfg := opt.DefaultConfig()
	cfg.InitialTemperature = 50
	cfg.CoolingRate = 0.9
	return cfg
}

func newManager(t *testing.T, maxLive int) (*Manager, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	m, err := NewManager(st, fastConfig(), 1, maxLive, nil)
	require.NoError(t, err)
	return m, st
}

func TestStartUpdateEnd(t *testing.T) {
	ctx := context.Background()
	m, st := newManager(t, 4)
	s, err := m.Start(ctx, testPlanes())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Planes)
	assert.Equal(t, 50.0, s.Temperature)

	resp, err := m.Update(ctx, s.ID, 0, testPlanes(), []float64{-1, 10})
	require.NoError(t, err)
	require.Len(t, resp.Headings, 2)
	assert.InDelta(t, 90, resp.Headings[0], 1e-9)
	assert.InDelta(t, 0, resp.Headings[1], 1e-9)
	assert.Positive(t, resp.Report.Iterations)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Rounds)
	assert.Equal(t, resp.Report.TemperatureAfter, got.Temperature)

	stored, err := st.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Rounds)

	recs, err := m.Rounds(ctx, s.ID, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, resp.Headings, recs[0].Headings)

	rep, ok := m.LastReport(s.ID)
	require.True(t, ok)
	assert.Equal(t, resp.Report.Iterations, rep.Iterations)

	require.NoError(t, m.End(ctx, s.ID))
	_, err = m.Update(ctx, s.ID, 1, testPlanes(), []float64{90, 0})
	assert.True(t, errors.Is(err, ErrSessionEnded))
	_, ok = m.LastReport(s.ID)
	assert.False(t, ok)
	ended, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionEnded, ended.Status)
}

func TestTemperatureCarriesAcrossRounds(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, 4)
	s, err := m.Start(ctx, testPlanes())
	require.NoError(t, err)
	first, err := m.Update(ctx, s.ID, 0, testPlanes(), []float64{-1, 10})
	require.NoError(t, err)
	second, err := m.Update(ctx, s.ID, 1, testPlanes(), first.Headings)
	require.NoError(t, err)
	assert.True(t, second.Report.Exhausted())
	assert.Equal(t, first.Headings, second.Headings)
}

func TestUpdateErrors(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, 4)
	_, err := m.Update(ctx, "missing", 0, testPlanes(), []float64{-1, 10})
	assert.True(t, errors.Is(err, ErrUnknownSession))

	s, err := m.Start(ctx, testPlanes())
	require.NoError(t, err)
	_, err = m.Update(ctx, s.ID, 0, testPlanes(), []float64{-1})
	assert.True(t, errors.Is(err, fleet.ErrHeadingCount))
	_, err = m.Update(ctx, s.ID, 0, testPlanes()[:1], []float64{-1})
	assert.True(t, errors.Is(err, ErrFleetSize))

	_, err = m.Start(ctx, nil)
	assert.True(t, errors.Is(err, fleet.ErrEmptyFleet))
	assert.True(t, errors.Is(m.End(ctx, "missing"), ErrUnknownSession))
}

func TestLiveCacheEviction(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, 1)
	a, err := m.Start(ctx, testPlanes())
	require.NoError(t, err)
	b, err := m.Start(ctx, testPlanes())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Live())

	_, err = m.Update(ctx, a.ID, 0, testPlanes(), []float64{-1, 10})
	assert.True(t, errors.Is(err, ErrUnknownSession))
	_, err = m.Update(ctx, b.ID, 0, testPlanes(), []float64{-1, 10})
	assert.NoError(t, err)
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	cfg := opt.DefaultConfig()
	cfg.CoolingRate = 1
	_, err := NewManager(store.NewMemory(), cfg, 0, 1, nil)
	assert.Error(t, err)
}

// blockingStore holds the first SaveRound until release is closed.
type blockingStore struct {
	*store.Memory
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingStore) SaveRound(ctx context.Context, rec model.RoundRecord) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.Memory.SaveRound(ctx, rec)
}

func TestEndWaitsForRunningRound(t *testing.T) {
	ctx := context.Background()
	st := &blockingStore{Memory: store.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
	m, err := NewManager(st, fastConfig(), 1, 4, nil)
	require.NoError(t, err)
	s, err := m.Start(ctx, testPlanes())
	require.NoError(t, err)

	updateErr := make(chan error, 1)
	go func() {
		_, err := m.Update(ctx, s.ID, 0, testPlanes(), []float64{-1, 10})
		updateErr <- err
	}()
	<-st.entered

	endErr := make(chan error, 1)
	go func() { endErr <- m.End(ctx, s.ID) }()
	select {
	case err := <-endErr:
		t.Fatalf("End returned before the running round was saved: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	close(st.release)
	require.NoError(t, <-updateErr)
	require.NoError(t, <-endErr)

	got, err := st.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionEnded, got.Status)
	assert.NotNil(t, got.EndedAt)
	assert.Equal(t, 1, got.Rounds)
}

func TestEndIsNotCountedAsDrop(t *testing.T) {
	ctx := context.Background()
	dropped := metrics.Sessions.WithLabelValues("dropped")
	ended := metrics.Sessions.WithLabelValues("ended")
	d0, e0 := testutil.ToFloat64(dropped), testutil.ToFloat64(ended)

	m, _ := newManager(t, 1)
	a, err := m.Start(ctx, testPlanes())
	require.NoError(t, err)
	e, ok := m.live.Peek(a.ID)
	require.True(t, ok)
	require.NoError(t, m.End(ctx, a.ID))
	assert.True(t, e.ended.Load())
	assert.Equal(t, model.SessionEnded, e.session.Status)
	assert.Equal(t, d0, testutil.ToFloat64(dropped))
	assert.Equal(t, e0+1, testutil.ToFloat64(ended))

	// capacity evictions still count
	_, err = m.Start(ctx, testPlanes())
	require.NoError(t, err)
	_, err = m.Start(ctx, testPlanes())
	require.NoError(t, err)
	assert.Equal(t, d0+1, testutil.ToFloat64(dropped))
}
