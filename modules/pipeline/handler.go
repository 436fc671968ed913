package pipeline

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"quel-shorts-studio/modules/common/credit"
	"quel-shorts-studio/modules/common/model"
)

// Handler - 파이프라인 HTTP 엔드포인트
type Handler struct {
	orch *Orchestrator
}

type submitResponse struct {
	Success bool   `json:"success"`
	RunID   string `json:"runId,omitempty"`
	Message string `json:"message,omitempty"`
}

type estimateResponse struct {
	Fragments int               `json:"fragments"`
	Estimate  float64           `json:"estimate"`
	Prices    credit.PriceTable `json:"prices"`
}

// NewHandler creates a handler instance.
func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes wires pipeline endpoints.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/pipeline/runs", h.handleSubmit).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/pipeline/status", h.handleStatus).Methods("GET")
	r.HandleFunc("/api/pipeline/estimate", h.handleEstimate).Methods("GET")
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	brief := model.DefaultBrief()
	if err := json.NewDecoder(r.Body).Decode(&brief); err != nil {
		writeJSON(w, http.StatusBadRequest, submitResponse{Message: "invalid request body"})
		return
	}
	brief = brief.Normalize()
	if err := brief.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, submitResponse{Message: err.Error()})
		return
	}

	runID, err := h.orch.Submit(brief)
	if errors.Is(err, ErrPipelineBusy) {
		writeJSON(w, http.StatusConflict, submitResponse{Message: err.Error()})
		return
	}
	if err != nil {
		log.Printf("❌ [Pipeline] Submit failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, submitResponse{Message: FailureMessage})
		return
	}

	writeJSON(w, http.StatusAccepted, submitResponse{Success: true, RunID: runID})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.Status())
}

func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	k := 4
	if raw := r.URL.Query().Get("fragments"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, submitResponse{Message: "fragments must be a non-negative integer"})
			return
		}
		k = n
	}

	prices := h.orch.Prices()
	writeJSON(w, http.StatusOK, estimateResponse{
		Fragments: k,
		Estimate:  credit.Estimate(prices, k),
		Prices:    prices,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ [Pipeline] Failed to encode response: %v", err)
	}
}
