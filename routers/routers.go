package routers

import (
	"braidsim/handlers"
	"braidsim/metrics"

	"github.com/gorilla/mux"
)

// RegisterRoutes sets up all the HTTP routes for the run API
func RegisterRoutes(r *mux.Router, h *handlers.Handler) {

	// Runs a simulation to completion and archives it
	r.HandleFunc("/runs", h.CreateRun).Methods("POST")

	// Lists archived runs with their summaries
	r.HandleFunc("/runs", h.ListRuns).Methods("GET")

	r.HandleFunc("/runs/{id}", h.GetRun).Methods("GET")
	r.HandleFunc("/runs/{id}", h.DeleteRun).Methods("DELETE")

	// Per-height records, ?from=&to=
	r.HandleFunc("/runs/{id}/blocks", h.GetBlocks).Methods("GET")

	// Cohort walk, ?limit=&direction=forward|backward
	r.HandleFunc("/runs/{id}/cohorts", h.GetCohorts).Methods("GET")

	// Graphviz source of a height range
	r.HandleFunc("/runs/{id}/dag", h.GetDAG).Methods("GET")

	// Used for checking the structure of an archived braid
	r.HandleFunc("/runs/{id}/verify", h.VerifyRun).Methods("GET")

	r.Handle("/metrics", metrics.Handler()).Methods("GET")
}
