package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quel-shorts-studio/modules/common/model"
	"quel-shorts-studio/modules/pipeline"
)

// PostSource - 미리보기 대상 게시물 조회
type PostSource interface {
	Get(id string) (*model.Post, error)
}

// 세션 관리
type Session struct {
	id           string
	clients      map[string]*Client
	mutex        sync.RWMutex
	createdAt    time.Time
	lastActivity time.Time
}

// 서버 메트릭
type Metrics struct {
	TotalSessions    int       `json:"totalSessions"`
	ActiveSessions   int       `json:"activeSessions"`
	TotalConnections int       `json:"totalConnections"`
	Broadcasts       int       `json:"broadcasts"`
	StartTime        time.Time `json:"startTime"`
}

// Hub owns every websocket session. Pipeline and dashboard events are
// broadcast to all connected clients; preview messages are handled per
// client.
type Hub struct {
	upgrader websocket.Upgrader
	posts    PostSource
	dwell    time.Duration

	sessions map[string]*Session
	mutex    sync.RWMutex

	metrics      Metrics
	metricsMutex sync.RWMutex
}

// NewHub - 세션 허브 생성
func NewHub(posts PostSource, dwell time.Duration) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// 개발용 - 모든 origin 허용
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		posts:    posts,
		dwell:    dwell,
		sessions: make(map[string]*Session),
		metrics:  Metrics{StartTime: time.Now()},
	}
}

// 세션 가져오기 또는 생성
func (h *Hub) getOrCreateSession(sessionId string) *Session {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	session, exists := h.sessions[sessionId]
	if !exists {
		now := time.Now()
		session = &Session{
			id:           sessionId,
			clients:      make(map[string]*Client),
			createdAt:    now,
			lastActivity: now,
		}
		h.sessions[sessionId] = session

		h.metricsMutex.Lock()
		h.metrics.TotalSessions++
		h.metrics.ActiveSessions++
		total, active := h.metrics.TotalSessions, h.metrics.ActiveSessions
		h.metricsMutex.Unlock()

		log.Printf("✅ [Realtime] Created new session: %s (Total: %d, Active: %d)", sessionId, total, active)
	}

	session.mutex.Lock()
	session.lastActivity = time.Now()
	session.mutex.Unlock()
	return session
}

// 클라이언트를 세션에 추가 (같은 userId 재접속 시 이전 연결 종료)
func (h *Hub) addClient(s *Session, client *Client) {
	s.mutex.Lock()
	previous := s.clients[client.userId]
	s.clients[client.userId] = client
	s.lastActivity = time.Now()
	clientCount := len(s.clients)
	s.mutex.Unlock()

	if previous != nil {
		previous.close()
	}

	h.metricsMutex.Lock()
	h.metrics.TotalConnections++
	h.metricsMutex.Unlock()

	log.Printf("👤 [Realtime] Client %s joined session %s (Clients: %d)", client.userId, s.id, clientCount)
	s.broadcast(envelope{Type: "user_joined", Data: map[string]string{"userId": client.userId}}, "")
}

// 클라이언트를 세션에서 제거
func (s *Session) removeClient(client *Client) {
	s.mutex.Lock()
	current, exists := s.clients[client.userId]
	if exists && current == client {
		delete(s.clients, client.userId)
		s.lastActivity = time.Now()
	}
	remaining := len(s.clients)
	s.mutex.Unlock()

	client.close()
	if !exists || current != client {
		return
	}

	log.Printf("👋 [Realtime] Client %s left session %s (Remaining: %d)", client.userId, s.id, remaining)
	s.broadcast(envelope{Type: "user_left", Data: map[string]string{"userId": client.userId}}, client.userId)
	if remaining == 0 {
		log.Printf("🗑️  [Realtime] Session %s is now empty, will be cleaned up", s.id)
	}
}

// broadcast sends to every client except skipUserId; slow clients are
// dropped.
func (s *Session) broadcast(msg envelope, skipUserId string) int {
	messageBytes, err := json.Marshal(msg)
	if err != nil {
		log.Printf("❌ [Realtime] Error marshaling message: %v", err)
		return 0
	}

	s.mutex.RLock()
	targets := make([]*Client, 0, len(s.clients))
	for userId, client := range s.clients {
		if userId != skipUserId {
			targets = append(targets, client)
		}
	}
	s.mutex.RUnlock()

	sent := 0
	for _, client := range targets {
		if client.enqueue(messageBytes) {
			sent++
			continue
		}
		log.Printf("⚠️  [Realtime] Dropping slow client %s from session %s", client.userId, s.id)
		s.removeClient(client)
	}
	return sent
}

// BroadcastAll - 모든 세션의 모든 클라이언트에게 전송
func (h *Hub) BroadcastAll(msgType string, payload interface{}) int {
	h.mutex.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mutex.RUnlock()

	sent := 0
	for _, s := range sessions {
		sent += s.broadcast(envelope{Type: msgType, Data: payload}, "")
	}

	h.metricsMutex.Lock()
	h.metrics.Broadcasts++
	h.metricsMutex.Unlock()
	return sent
}

// Publish forwards pipeline events to every client.
func (h *Hub) Publish(ev pipeline.Event) {
	h.BroadcastAll(string(ev.Type), ev)
}

// PostsChanged - 대시보드 변경 알림
func (h *Hub) PostsChanged(reason, postID string) {
	h.BroadcastAll("posts_changed", map[string]string{"reason": reason, "postId": postID})
}

// 빈 세션 정리
func (h *Hub) cleanupEmptySessions() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	cleaned := 0
	for sessionId, session := range h.sessions {
		session.mutex.RLock()
		isEmpty := len(session.clients) == 0
		session.mutex.RUnlock()

		if isEmpty {
			delete(h.sessions, sessionId)
			cleaned++
			log.Printf("🧹 [Realtime] Cleaned up empty session: %s", sessionId)
		}
	}

	if cleaned > 0 {
		h.metricsMutex.Lock()
		h.metrics.ActiveSessions -= cleaned
		h.metricsMutex.Unlock()
	}
	return cleaned
}

// 만료된 세션 정리 (24시간 경과 또는 2시간 비활성)
func (h *Hub) cleanupExpiredSessions(now time.Time) int {
	const (
		expiredThreshold  = 24 * time.Hour
		inactiveThreshold = 2 * time.Hour
	)

	h.mutex.Lock()
	var expired []*Session
	for sessionId, session := range h.sessions {
		session.mutex.RLock()
		isExpired := now.Sub(session.createdAt) > expiredThreshold
		isInactive := now.Sub(session.lastActivity) > inactiveThreshold && len(session.clients) == 0
		session.mutex.RUnlock()

		if isExpired || isInactive {
			delete(h.sessions, sessionId)
			expired = append(expired, session)
		}
	}
	h.mutex.Unlock()

	for _, session := range expired {
		session.mutex.Lock()
		clients := make([]*Client, 0, len(session.clients))
		for _, c := range session.clients {
			clients = append(clients, c)
		}
		session.clients = make(map[string]*Client)
		session.mutex.Unlock()

		for _, c := range clients {
			log.Printf("🔌 [Realtime] Disconnecting client %s from expired session %s", c.userId, session.id)
			c.close()
		}
		log.Printf("⏰ [Realtime] Cleaned up session: %s (Age: %v)", session.id, now.Sub(session.createdAt).Round(time.Second))
	}

	if len(expired) > 0 {
		h.metricsMutex.Lock()
		h.metrics.ActiveSessions -= len(expired)
		h.metricsMutex.Unlock()
	}
	return len(expired)
}

// StartCleanupRoutine - 5분마다 빈 세션, 30분마다 만료 세션 정리
func (h *Hub) StartCleanupRoutine(ctx context.Context) {
	go func() {
		emptyTicker := time.NewTicker(5 * time.Minute)
		expiredTicker := time.NewTicker(30 * time.Minute)
		defer emptyTicker.Stop()
		defer expiredTicker.Stop()

		for {
			select {
			case <-emptyTicker.C:
				h.cleanupEmptySessions()
			case now := <-expiredTicker.C:
				h.cleanupExpiredSessions(now)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("🔄 [Realtime] Started session cleanup routines (Empty: 5min, Expired: 30min)")
}

// Metrics - 메트릭 스냅샷
func (h *Hub) Metrics() Metrics {
	h.metricsMutex.RLock()
	defer h.metricsMutex.RUnlock()
	return h.metrics
}

func (h *Hub) session(id string) (*Session, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}
