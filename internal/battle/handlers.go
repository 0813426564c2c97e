package battle

import (
	"encoding/json"
	"log"
	"net/http"
)

// NewCreateHandler starts a new match: POST /matches -> {"id": "m_..."}
func NewCreateHandler(mg *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := mg.Create()
		if err != nil {
			log.Println("create match:", err)
			http.Error(w, "failed to create match", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": m.ID})
	}
}

// NewStatusHandler reports a running match: GET /matches/{id}
func NewStatusHandler(mg *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, _, err := mg.Get(r.PathValue("id"))
		if err != nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.Status())
	}
}
