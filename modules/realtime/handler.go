package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// RegisterRoutes wires the websocket endpoint and session admin routes.
func (h *Hub) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.HandleWebSocket)
	r.HandleFunc("/session/{sessionId}", h.getSessionInfo).Methods("GET")
	r.HandleFunc("/metrics", h.getMetrics).Methods("GET")
	r.HandleFunc("/admin/cleanup", h.forceCleanupSessions).Methods("POST")
}

type sessionInfo struct {
	SessionID    string    `json:"sessionId"`
	ClientCount  int       `json:"clientCount"`
	Clients      []string  `json:"clients,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	Age          string    `json:"age"`
	Inactive     string    `json:"inactive"`
}

func (s *Session) info(withClients bool) sessionInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	info := sessionInfo{
		SessionID:    s.id,
		ClientCount:  len(s.clients),
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
		Age:          time.Since(s.createdAt).Round(time.Second).String(),
		Inactive:     time.Since(s.lastActivity).Round(time.Second).String(),
	}
	if withClients {
		for userId := range s.clients {
			info.Clients = append(info.Clients, userId)
		}
	}
	return info
}

// 세션 정보 조회 엔드포인트
func (h *Hub) getSessionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	session, exists := h.session(mux.Vars(r)["sessionId"])
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Session not found",
		})
		return
	}

	json.NewEncoder(w).Encode(session.info(true))
}

// 서버 메트릭 조회 엔드포인트
func (h *Hub) getMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := h.Metrics()

	h.mutex.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mutex.RUnlock()

	details := make([]sessionInfo, 0, len(sessions))
	totalClients := 0
	for _, s := range sessions {
		info := s.info(false)
		totalClients += info.ClientCount
		details = append(details, info)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"server": map[string]interface{}{
			"uptime":           time.Since(metrics.StartTime).Round(time.Second).String(),
			"startTime":        metrics.StartTime,
			"totalSessions":    metrics.TotalSessions,
			"activeSessions":   metrics.ActiveSessions,
			"totalConnections": metrics.TotalConnections,
			"broadcasts":       metrics.Broadcasts,
			"currentClients":   totalClients,
		},
		"sessions": details,
	})
}

// 모든 세션 강제 정리 (관리자용)
func (h *Hub) forceCleanupSessions(w http.ResponseWriter, r *http.Request) {
	empty := h.cleanupEmptySessions()
	expired := h.cleanupExpiredSessions(time.Now())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "Cleanup completed",
		"empty":   empty,
		"expired": expired,
	})
}
