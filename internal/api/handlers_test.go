package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyplan/internal/config"
	"skyplan/internal/metrics"
	"skyplan/internal/model"
)

const twoPlanes = `[
	{"id":0,"position":{"x":0,"y":0},"destination":{"x":100,"y":0},"heading":-1,"departure":0},
	{"id":1,"position":{"x":50,"y":50},"destination":{"x":50,"y":0},"heading":10,"departure":0}
]`

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Seed = 7
	cfg.Optimizer.InitialTemperature = 50
	cfg.Optimizer.CoolingRate = 0.9
	cfg.RateRPS = 0
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(testConfig(), nil)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func startSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/v1/sessions", `{"planes":`+twoPlanes+`}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var sess model.Session
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 2, sess.Planes)
	assert.Equal(t, model.SessionActive, sess.Status)
	return sess.ID
}

func roundBody(round int, headings string) string {
	return `{"round":` + jsonInt(round) + `,"planes":` + twoPlanes + `,"headings":` + headings + `}`
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, 200, rr.Code)
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, 200, rr.Code)
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestServer(t).Handler()
	id := startSession(t, h)

	rr := do(t, h, http.MethodPost, "/v1/sessions/"+id+"/rounds", roundBody(0, `[-1,10]`))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp model.RoundResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Headings, 2)
	assert.InDelta(t, 90, resp.Headings[0], 1e-9)
	assert.InDelta(t, 0, resp.Headings[1], 1e-9)
	assert.Positive(t, resp.Report.Iterations)

	rr = do(t, h, http.MethodGet, "/v1/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got struct {
		Session    model.Session   `json:"session"`
		LastReport json.RawMessage `json:"lastReport"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Session.Rounds)
	assert.NotEmpty(t, got.LastReport)

	rr = do(t, h, http.MethodGet, "/v1/sessions/"+id+"/rounds?limit=10", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Items []model.RoundRecord `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, resp.Headings, list.Items[0].Headings)

	rr = do(t, h, http.MethodGet, "/v1/sessions/"+id+"/report.xlsx", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "spreadsheetml")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	rr = do(t, h, http.MethodDelete, "/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/sessions/"+id+"/rounds", roundBody(1, `[90,0]`))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSessionErrors(t *testing.T) {
	h := newTestServer(t).Handler()

	rr := do(t, h, http.MethodGet, "/v1/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	var p Problem
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, http.StatusNotFound, p.Status)

	rr = do(t, h, http.MethodPost, "/v1/sessions/nope/rounds", roundBody(0, `[-1,10]`))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/sessions", `{"planes":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/sessions", `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	id := startSession(t, h)
	rr = do(t, h, http.MethodPost, "/v1/sessions/"+id+"/rounds", roundBody(0, `[-1]`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	one := `{"round":0,"planes":[{"id":0,"position":{"x":0,"y":0},"destination":{"x":1,"y":0},"heading":-1,"departure":0}],"headings":[-1]}`
	rr = do(t, h, http.MethodPost, "/v1/sessions/"+id+"/rounds", one)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPut, "/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = do(t, h, http.MethodGet, "/v1/sessions/"+id+"/unknown", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOptimizerConfig(t *testing.T) {
	h := newTestServer(t).Handler()
	rr := do(t, h, http.MethodGet, "/v1/optimizer/config", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var out struct {
		Defaults struct {
			InitialTemperature float64 `json:"initialTemperature"`
		} `json:"defaults"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, 50.0, out.Defaults.InitialTemperature)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/v1/optimizer/config", "").Code)
	rr := do(t, h, http.MethodGet, "/v1/optimizer/config", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	// health checks bypass the limiter
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.RegisterDefault()
	h := newTestServer(t).Handler()
	id := startSession(t, h)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/sessions/"+id+"/rounds", roundBody(0, `[-1,10]`)).Code)

	rr := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "optimizer_rounds_total")
	assert.Contains(t, body, `path="/v1/sessions/{id}/rounds"`)
}

func TestRouteLabel(t *testing.T) {
	cases := map[string]string{
		"/v1/sessions":                 "/v1/sessions",
		"/v1/sessions/abc":             "/v1/sessions/{id}",
		"/v1/sessions/abc/rounds":      "/v1/sessions/{id}/rounds",
		"/v1/sessions/abc/report.xlsx": "/v1/sessions/{id}/report.xlsx",
		"/healthz":                     "/healthz",
	}
	for in, want := range cases {
		assert.Equal(t, want, routeLabel(in), in)
	}
}

func TestStreamForwardsRoundEvents(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	h := s.Handler()
	id := startSession(t, h)

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/sessions/" + id + "/stream"
	c, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg wsMessage
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, "connection_ack", msg.Type)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/sessions/"+id+"/rounds", roundBody(0, `[-1,10]`)).Code)
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, "round.optimized", msg.Type)
	var data struct {
		Round    int       `json:"round"`
		Headings []float64 `json:"headings"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &data))
	assert.Equal(t, 0, data.Round)
	assert.Len(t, data.Headings, 2)

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/v1/sessions/"+id, "").Code)
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, "session.ended", msg.Type)
}

func TestStreamUnknownSession(t *testing.T) {
	h := newTestServer(t).Handler()
	rr := do(t, h, http.MethodGet, "/v1/sessions/nope/stream", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
