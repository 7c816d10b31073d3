package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/logtools/ingressparse/pkg/filter"
	"github.com/logtools/ingressparse/pkg/stats"
	"github.com/logtools/ingressparse/pkg/store"
)

// ListRuns returns all import runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns()
	if err != nil {
		h.log.Error("failed to list runs", map[string]interface{}{"error": err.Error()})
		h.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs, "count": len(runs)})
}

// GetRun returns one import run by ID.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	run, err := h.store.GetRun(id)
	if errors.Is(err, store.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found: "+id)
		return
	}
	if err != nil {
		h.log.Error("failed to get run", map[string]interface{}{"run": id, "error": err.Error()})
		h.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}

// GetEntries returns a filtered, paged slice of a run's entries. Filter
// query parameters mirror the CLI flags: status, method, ip (repeatable),
// path_contains, since, until, plus offset and limit for paging.
func (h *Handler) GetEntries(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	q, err := entryQueryFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.store.GetEntries(id, q)
	if errors.Is(err, store.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found: "+id)
		return
	}
	if err != nil {
		h.log.Error("failed to get entries", map[string]interface{}{"run": id, "error": err.Error()})
		h.writeError(w, http.StatusInternalServerError, "failed to get entries")
		return
	}

	h.metrics.AddEntriesServed(len(entries))
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  id,
		"entries": entries,
		"count":   len(entries),
		"offset":  q.Offset,
	})
}

// GetStats aggregates a run's entries into the same summary the stats
// command prints. The top query parameter bounds the top-paths list.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	run, err := h.store.GetRun(id)
	if errors.Is(err, store.ErrRunNotFound) {
		h.writeError(w, http.StatusNotFound, "run not found: "+id)
		return
	}
	if err != nil {
		h.log.Error("failed to get run", map[string]interface{}{"run": id, "error": err.Error()})
		h.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	topN := 10
	if v := r.URL.Query().Get("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			topN = n
		}
	}

	// Aggregation wants the full run, not a page.
	entries, err := h.store.GetEntries(id, store.EntryQuery{Limit: run.EntryCount + 1})
	if err != nil {
		h.log.Error("failed to get entries", map[string]interface{}{"run": id, "error": err.Error()})
		h.writeError(w, http.StatusInternalServerError, "failed to get entries")
		return
	}

	summary := stats.Aggregate(entries, run.BadLines, topN)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"run_id": id, "stats": summary})
}

func entryQueryFromRequest(r *http.Request) (store.EntryQuery, error) {
	var q store.EntryQuery
	params := r.URL.Query()

	for _, raw := range params["status"] {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.New("invalid status value: " + raw)
		}
		q.Filter.Statuses = append(q.Filter.Statuses, v)
	}
	q.Filter.Methods = params["method"]
	q.Filter.IPs = params["ip"]
	q.Filter.PathContains = params.Get("path_contains")

	if raw := params.Get("since"); raw != "" {
		t, err := filter.ParseTimeUTC(raw)
		if err != nil {
			return q, err
		}
		q.Filter.Since = &t
	}
	if raw := params.Get("until"); raw != "" {
		t, err := filter.ParseTimeUTC(raw)
		if err != nil {
			return q, err
		}
		q.Filter.Until = &t
	}

	if raw := params.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return q, errors.New("invalid offset: " + raw)
		}
		q.Offset = v
	}
	if raw := params.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return q, errors.New("invalid limit: " + raw)
		}
		q.Limit = v
	}
	return q, nil
}
