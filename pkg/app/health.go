package app

import (
	"encoding/json"
	"net/http"
)

const HealthCheckPath = "/healthcheck"

type healthResponse struct {
	Data string `json:"data"`
}

// HealthHandler reports that the process is serving
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(healthResponse{Data: "Healthy!"})
}
