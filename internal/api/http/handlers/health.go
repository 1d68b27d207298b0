package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/flashkv/engine/internal/storage/kv"
)

// HealthResponse represents a health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthCheck handles health check requests
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status: "healthy",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// ReadinessCheck returns a handler that checks if the store is ready
func ReadinessCheck(store *kv.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready := store != nil && store.Ready(r.Context())

		response := HealthResponse{
			Status: "ready",
		}

		w.Header().Set("Content-Type", "application/json")
		if !ready {
			response.Status = "not ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		json.NewEncoder(w).Encode(response)
	}
}
