package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"braidsim/dag"
	"braidsim/logger"
	"braidsim/runner"
	"braidsim/sim"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// defaultDAGSpan is the number of heights rendered when /dag gets no "to".
const defaultDAGSpan = 200

// Handler contains the HTTP handlers for the run API endpoints
type Handler struct {
	Runs     *runner.Service
	Defaults sim.Config // base for every POST /runs body
}

// NewHandler creates and returns a new Handler instance
func NewHandler(runs *runner.Service, defaults sim.Config) *Handler {
	return &Handler{Runs: runs, Defaults: defaults}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, runner.ErrUnknownRun):
		return http.StatusNotFound
	case errors.Is(err, sim.ErrInvalidConfig), errors.Is(err, runner.ErrTooManyBlocks):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// intQuery parses query parameter key, returning def when it is absent.
func intQuery(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

// CreateRun handles POST requests that run a simulation. The body overrides
// fields of the default configuration.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	cfg := h.Defaults
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		logger.Logger.Error("Failed to decode run config", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	run, err := h.Runs.Execute(r.Context(), cfg)
	if err != nil {
		logger.Logger.Error("Failed to execute run", zap.Error(err))
		writeError(w, statusOf(err), err.Error())
		return
	}

	logger.Logger.Info("Run created", zap.String("run_id", run.ID), zap.Int64("elapsed_ms", run.Elapsed))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Run completed successfully",
		"run":     run,
	})
}

// ListRuns handles GET requests for every archived run
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Runs.List()
	if err != nil {
		logger.Logger.Error("Failed to list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun handles GET requests for one run record
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Runs.Get(mux.Vars(r)["id"])
	if err != nil {
		logger.Logger.Error("Failed to get run", zap.Error(err))
		writeError(w, statusOf(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// DeleteRun handles DELETE requests for one run
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Runs.Delete(id); err != nil {
		logger.Logger.Error("Failed to delete run", zap.Error(err))
		writeError(w, statusOf(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Run deleted", "id": id})
}

// VerifyRun handles GET requests that check the structure of an archived run
func (h *Handler) VerifyRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.Runs.Verify(id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "valid": true})
	case errors.Is(err, dag.ErrInconsistent):
		logger.Logger.Warn("Archived run is inconsistent", zap.String("run_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "valid": false, "error": err.Error()})
	default:
		logger.Logger.Error("Failed to verify run", zap.Error(err))
		writeError(w, statusOf(err), err.Error())
	}
}

// GetBlocks handles GET requests for the blocks of a run in [from, to)
func (h *Handler) GetBlocks(w http.ResponseWriter, r *http.Request) {
	from, err := intQuery(r, "from", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := intQuery(r, "to", -1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	blocks, err := h.Runs.Blocks(mux.Vars(r)["id"], from, to)
	if err != nil {
		logger.Logger.Error("Failed to get blocks", zap.Error(err))
		writeError(w, statusOf(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

// GetCohorts handles GET requests for the cohorts of a run
func (h *Handler) GetCohorts(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	dir, err := dag.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cohorts, err := h.Runs.Cohorts(mux.Vars(r)["id"], limit, dir)
	if err != nil {
		logger.Logger.Error("Failed to walk cohorts", zap.Error(err))
		writeError(w, statusOf(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cohorts)
}

// GetDAG handles GET requests for a Graphviz rendering of part of a run
func (h *Handler) GetDAG(w http.ResponseWriter, r *http.Request) {
	from, err := intQuery(r, "from", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := intQuery(r, "to", from+defaultDAGSpan)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.Runs.DOT(mux.Vars(r)["id"], from, to)
	if err != nil {
		logger.Logger.Error("Failed to render dag", zap.Error(err))
		writeError(w, statusOf(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}
