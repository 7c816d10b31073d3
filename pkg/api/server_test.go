package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logtools/ingressparse/pkg/logging"
	"github.com/logtools/ingressparse/pkg/metrics"
	"github.com/logtools/ingressparse/pkg/models"
	"github.com/logtools/ingressparse/pkg/nginx"
	"github.com/logtools/ingressparse/pkg/store"
)

func testServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	s := store.NewMemoryStore()
	log := logging.NewLogger(logging.ERROR, false)
	h := NewHandler(s, log, metrics.New())

	router := mux.NewRouter()
	h.RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, s
}

func seedRun(t *testing.T, s store.Store) *models.ImportRun {
	t.Helper()
	run := &models.ImportRun{
		ID:         "run-1",
		Source:     "access.log",
		CreatedAt:  time.Now().UTC(),
		EntryCount: 2,
		BadLines:   0,
	}
	require.NoError(t, s.CreateRun(run))

	s200, s500 := 200, 500
	base := time.Date(2021, 4, 26, 21, 20, 0, 0, time.UTC)
	require.NoError(t, s.InsertEntries(run.ID, []*nginx.Entry{
		{RemoteAddr: "10.0.0.1", Method: "GET", Path: "/a", Status: &s200, Time: base},
		{RemoteAddr: "10.0.0.2", Method: "GET", Path: "/b", Status: &s500, Time: base.Add(time.Second)},
	}))
	return run
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)

	var body map[string]interface{}
	code := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["store"])
}

func TestListRuns(t *testing.T) {
	srv, s := testServer(t)
	seedRun(t, s)

	var body struct {
		Runs  []models.ImportRun `json:"runs"`
		Count int                `json:"count"`
	}
	code := getJSON(t, srv.URL+"/api/runs", &body)
	assert.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "run-1", body.Runs[0].ID)
}

func TestGetRunNotFound(t *testing.T) {
	srv, _ := testServer(t)

	var body map[string]interface{}
	code := getJSON(t, srv.URL+"/api/runs/nope", &body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body["error"], "not found")
}

func TestGetEntriesFiltered(t *testing.T) {
	srv, s := testServer(t)
	seedRun(t, s)

	var body struct {
		Entries []nginx.Entry `json:"entries"`
		Count   int           `json:"count"`
	}
	code := getJSON(t, srv.URL+"/api/runs/run-1/entries?status=500", &body)
	assert.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "/b", body.Entries[0].Path)
}

func TestGetEntriesBadQuery(t *testing.T) {
	srv, s := testServer(t)
	seedRun(t, s)

	var body map[string]interface{}
	code := getJSON(t, srv.URL+"/api/runs/run-1/entries?status=abc", &body)
	assert.Equal(t, http.StatusBadRequest, code)

	code = getJSON(t, srv.URL+"/api/runs/run-1/entries?since=garbage", &body)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetStats(t *testing.T) {
	srv, s := testServer(t)
	seedRun(t, s)

	var body struct {
		RunID string `json:"run_id"`
		Stats struct {
			TotalEntries int         `json:"total_entries"`
			ByStatus     map[int]int `json:"by_status"`
		} `json:"stats"`
	}
	code := getJSON(t, srv.URL+"/api/runs/run-1/stats", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, body.Stats.TotalEntries)
	assert.Equal(t, 1, body.Stats.ByStatus[200])
	assert.Equal(t, 1, body.Stats.ByStatus[500])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
