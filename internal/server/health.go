package server

import "net/http"

// HealthHandler answers liveness probes.
type HealthHandler struct{}

// Routes returns the health check route.
func (h *HealthHandler) Routes() []string {
	return []string{"/api/health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": "pixvel backend",
	})
}
