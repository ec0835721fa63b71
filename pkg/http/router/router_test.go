package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/julienschmidt/httprouter"
	"github.com/new4mezdz/guandao/pkg/engine"
	"github.com/new4mezdz/guandao/pkg/http/router/controllers"
	"github.com/new4mezdz/guandao/pkg/http/usecases"
	"github.com/new4mezdz/guandao/pkg/metrics"
	"github.com/new4mezdz/guandao/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const networkYAML = `
nodes:
  - {id: N100, tier: A, x: 10, y: 0}
  - {id: N101, tier: A, x: 11, y: 0}
  - {id: N102, tier: B, x: 12, y: -1}
  - {id: N103, tier: B, x: 12, y: 1}
  - {id: N104, tier: C, x: 13, y: 0}
pipes:
  - {id: P100, start: N100, end: N101, diameter: 500}
  - {id: P101, start: N101, end: N102, diameter: 400}
  - {id: P102, start: N101, end: N103, diameter: 100}
  - {id: P103, start: N102, end: N104, diameter: 100}
  - {id: P104, start: N103, end: N104, diameter: 100}
valves:
  - {id: V100, pipe_id: P100}
  - {id: V101, pipe_id: P101}
  - {id: V102, pipe_id: P102}
  - {id: V103, pipe_id: P103}
  - {id: V104, pipe_id: P104}
`

type testAPI struct {
	handler  http.Handler
	hub      *controllers.Hub
	registry *metrics.Registry
	path     string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zap.NewNop()
	eng, err := engine.NewEngine(engine.DefaultConfig(), log)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte(networkYAML), 0o644))
	store := topology.NewSnapshotStore(topology.NewFileSource(path), eng.CheckSnapshot, log)
	_, err = store.Reload(context.Background())
	require.NoError(t, err)

	registry := metrics.NewRegistry()
	isoSvc, err := usecases.NewIsolationService(log, eng, store, registry, 16, 2)
	require.NoError(t, err)
	netSvc := usecases.NewNetworkService(log, eng, store, registry)

	hub := controllers.NewHub(log, registry)
	isoSvc.SetPublisher(hub)

	return &testAPI{
		handler:  NewAPI(log, hub, registry).Handler(false, isoSvc, netSvc),
		hub:      hub,
		registry: registry,
		path:     path,
	}
}

func (ta *testAPI) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	return rec
}

type dataEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) dataEnvelope {
	t.Helper()
	var env dataEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
	return env
}

func TestEvaluateEndpoint(t *testing.T) {
	ta := newTestAPI(t)

	testCases := []struct {
		name        string
		body        string
		wantStatus  int
		wantClose   []string
		wantFailure string
		wantMessage string
	}{
		{
			name:       "ordinary leak",
			body:       `{"leak_pipe_id": "P103", "leak_type": "ordinary"}`,
			wantStatus: http.StatusOK,
			wantClose:  []string{"V103", "V104"},
		},
		{
			name:       "ordinary leak with simulated failure",
			body:       `{"leak_pipe_id": "P103", "leak_type": "普通漏损", "failed_valve_id": "V104"}`,
			wantStatus: http.StatusOK,
			wantClose:  []string{"V102", "V103"},
		},
		{
			name:        "unknown pipe is a result, not an http error",
			body:        `{"leak_pipe_id": "P999", "leak_type": "burst"}`,
			wantStatus:  http.StatusOK,
			wantClose:   []string{},
			wantFailure: "pipe_not_found",
		},
		{
			name:        "unknown leak type",
			body:        `{"leak_pipe_id": "P103", "leak_type": "flood"}`,
			wantStatus:  http.StatusOK,
			wantClose:   []string{},
			wantFailure: "invalid_leak_type",
			wantMessage: `leak type "flood" is not recognized; use ordinary or burst`,
		},
		{
			name:       "missing pipe id",
			body:       `{"leak_type": "burst"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"leak_pipe_id": "P103", "leak_type": "burst", "pressure": 3}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "two json values",
			body:       `{"leak_pipe_id": "P103", "leak_type": "burst"}{}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			rec := ta.do(t, http.MethodPost, "/api/isolation/evaluate", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				env := decode(t, rec, nil)
				require.NotNil(t, env.Error)
				assert.NotEmpty(t, env.Error.Message)
				return
			}

			var res struct {
				Revision        uint64   `json:"revision"`
				NeedCloseValves []string `json:"need_close_valves"`
				Failure         string   `json:"failure"`
				Recommendation  string   `json:"recommendation"`
			}
			decode(t, rec, &res)
			assert.Equal(t, uint64(1), res.Revision)
			assert.Equal(t, tt.wantClose, res.NeedCloseValves)
			assert.Equal(t, tt.wantFailure, res.Failure)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, res.Recommendation)
			}
		})
	}
}

func TestEvaluateRequiresJSON(t *testing.T) {
	ta := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/isolation/evaluate", strings.NewReader("leak_pipe_id=P103"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestBatchEndpoint(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodPost, "/api/isolation/batch",
		`{"leaks": [{"leak_pipe_id": "P103", "leak_type": "burst"}, {"leak_pipe_id": "P101", "leak_type": "burst"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var batch usecases.BatchResult
	decode(t, rec, &batch)
	assert.Len(t, batch.Results, 2)
	assert.Equal(t, []string{"V101", "V103"}, batch.NeedCloseValves)

	rec = ta.do(t, http.MethodPost, "/api/isolation/batch", `{"leaks": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNetworkEndpoints(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodGet, "/api/network", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary usecases.NetworkSummary
	decode(t, rec, &summary)
	assert.Equal(t, 5, summary.Pipes)
	assert.Equal(t, []string{"N100"}, summary.SupplyNodes)

	rec = ta.do(t, http.MethodGet, "/api/network/nearestPipes?x=12.9&y=-0.05&radius=0.5&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var nearest struct {
		Pipes []struct {
			PipeID string `json:"pipe_id"`
		} `json:"pipes"`
	}
	decode(t, rec, &nearest)
	require.Len(t, nearest.Pipes, 1)
	assert.Equal(t, "P103", nearest.Pipes[0].PipeID)

	for _, target := range []string{
		"/api/network/nearestPipes?y=0&radius=1",
		"/api/network/nearestPipes?x=0&y=0&radius=0",
		"/api/network/nearestPipes?x=0&y=0&radius=1&limit=500",
	} {
		rec = ta.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec = ta.do(t, http.MethodPost, "/api/network/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &summary)
	assert.Equal(t, uint64(2), summary.Revision)

	require.NoError(t, os.WriteFile(ta.path, []byte("pipes:\n  - {id: P1, start: A, end: B, diameter: 100}\n"), 0o644))
	rec = ta.do(t, http.MethodPost, "/api/network/reload", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAmbientRoutes(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ".", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/network", nil)
	req.Header.Set(REQUEST_ID_HEADER, "req-1")
	rec = httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-1", rec.Header().Get(REQUEST_ID_HEADER))

	rec = ta.do(t, http.MethodGet, "/api/network", "")
	assert.NotEmpty(t, rec.Header().Get(REQUEST_ID_HEADER))

	rec = ta.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "guandao_http_requests_total")
}

func TestMetricsRouteLabels(t *testing.T) {
	ta := newTestAPI(t)

	for _, target := range []string{"/api/nope", "/api/nope/2", "/random/123", "/api/network", "/api/network"} {
		ta.do(t, http.MethodGet, target, "")
	}

	families, err := ta.registry.GetRegistry().Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "guandao_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "path" {
					counts[l.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{UNMATCHED_ROUTE: 3, "/api/network": 2}, counts)
}

func TestRoutePattern(t *testing.T) {
	router := httprouter.New()
	noop := func(http.ResponseWriter, *http.Request, httprouter.Params) {}
	router.GET("/doc/*any", noop)
	router.GET("/items/:id/valves", noop)
	router.GET("/api/network", noop)

	testCases := []struct {
		path string
		want string
	}{
		{"/doc/index.html", "/doc/*any"},
		{"/items/P103/valves", "/items/:id/valves"},
		{"/api/network", "/api/network"},
		{"/api/network/", UNMATCHED_ROUTE},
		{"/items/P103", UNMATCHED_ROUTE},
	}
	for _, tt := range testCases {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, routePattern(router, http.MethodGet, tt.path))
		})
	}
}

func TestResultFeed(t *testing.T) {
	ta := newTestAPI(t)
	srv := httptest.NewServer(ta.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/results")
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return ta.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/isolation/evaluate", "application/json",
		strings.NewReader(`{"leak_pipe_id": "P103", "leak_type": "burst"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	payload, err := wsutil.ReadServerText(conn)
	require.NoError(t, err)

	var event usecases.EvaluationEvent
	env := dataEnvelope{}
	require.NoError(t, json.Unmarshal(payload, &env))
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.Equal(t, uint64(1), event.Revision)
	assert.Equal(t, "P103", event.Result.LeakPipeID)
	assert.Equal(t, []string{"V103"}, event.Result.NeedCloseValves)

	conn.Close()
	assert.Eventually(t, func() bool { return ta.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
