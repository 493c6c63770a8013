package api

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	VectorStore string `json:"vector_store"`
	Model       string `json:"model"`
	ModelStatus string `json:"model_status"`
	Timestamp   string `json:"timestamp"`
}

// HealthChecker is implemented by the vector index.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ModelPinger is implemented by the answer generator.
type ModelPinger interface {
	Ping(ctx context.Context) error
	Model() string
}

// NewHealthHandler creates an HTTP handler for the /health endpoint.
// An unreachable vector store is unhealthy (503); an unreachable answer model
// only degrades the service, since ingestion still works.
func NewHealthHandler(store HealthChecker, model ModelPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		response := HealthResponse{
			Status:      "healthy",
			VectorStore: "connected",
			ModelStatus: "unconfigured",
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}
		status := http.StatusOK

		if model != nil {
			response.Model = model.Model()
			response.ModelStatus = "reachable"
			if err := model.Ping(ctx); err != nil {
				response.ModelStatus = "unreachable"
				response.Status = "degraded"
			}
		}

		if err := store.Health(ctx); err != nil {
			response.Status = "unhealthy"
			response.VectorStore = "disconnected"
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, response)
	}
}
