package dashboard

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"quel-shorts-studio/modules/common/model"
)

// Handler - 게시물 목록/삭제/게시 엔드포인트
type Handler struct {
	store *Store
}

type statsResponse struct {
	Posts      int     `json:"posts"`
	TotalSpent float64 `json:"totalSpent"`
	Scheduled  int     `json:"scheduled"`
	Published  int     `json:"published"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewHandler creates a handler instance.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes wires dashboard endpoints.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/posts", h.handleList).Methods("GET")
	r.HandleFunc("/api/posts/{id}", h.handleGet).Methods("GET")
	r.HandleFunc("/api/posts/{id}", h.handleDelete).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/api/posts/{id}/publish", h.handlePublish).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/stats", h.handleStats).Methods("GET")
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.store.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := h.store.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	post, err := h.store.Publish(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	posts := h.store.List()
	stats := statsResponse{Posts: len(posts), TotalSpent: h.store.TotalSpent()}
	for _, p := range posts {
		switch p.Status {
		case model.StatusScheduled:
			stats.Scheduled++
		case model.StatusPublished:
			stats.Published++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, ErrPostNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrAlreadyPublished):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ [Dashboard] Failed to encode response: %v", err)
	}
}
