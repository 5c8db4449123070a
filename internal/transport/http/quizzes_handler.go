package http

import (
	"encoding/json"
	"net/http"

	"ecoquest-service/internal/app"
)

// NewQuizzesHandler serves the dashboard catalog as JSON.
func NewQuizzesHandler(service *app.QuizService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(service.Catalog())
	}
}
