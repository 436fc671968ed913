package realtime

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quel-shorts-studio/modules/common/model"
	"quel-shorts-studio/modules/preview"
)

var (
	errClientClosed = errors.New("client connection closed")
	errSendBuffer   = errors.New("client send buffer full")
)

// 서버 → 클라이언트 메시지
type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// 클라이언트 → 서버 메시지
type Message struct {
	Type   string `json:"type"`
	PostID string `json:"postId,omitempty"`
	Index  int    `json:"index,omitempty"`
	ClipID int    `json:"clipId,omitempty"`
}

type fragmentMessage struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// 연결된 클라이언트 정보
type Client struct {
	conn      *websocket.Conn
	sessionId string
	userId    string
	send      chan []byte

	mu     sync.Mutex
	closed bool

	// preview state, created on the first preview_start
	output *preview.SocketOutput
	player *preview.Player
}

func newClient(conn *websocket.Conn, sessionId, userId string) *Client {
	return &Client{
		conn:      conn,
		sessionId: sessionId,
		userId:    userId,
		send:      make(chan []byte, 256),
	}
}

// enqueue returns false when the client is closed or its buffer is full.
func (c *Client) enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

// Send - 이 클라이언트에게만 전송 (preview.Sender)
func (c *Client) Send(msgType string, payload interface{}) error {
	b, err := json.Marshal(envelope{Type: msgType, Data: payload})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		return errSendBuffer
	}
}

func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	player := c.player
	c.mu.Unlock()

	if player != nil {
		player.Close()
	}
}

// ensurePlayer - 클라이언트당 플레이어 하나
func (c *Client) ensurePlayer(dwell time.Duration) *preview.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.player == nil {
		c.output = preview.NewSocketOutput(c)
		c.player = preview.NewPlayer(c.output, c, dwell)
		if c.closed {
			c.player.Close()
		}
	}
	return c.player
}

// OnFragment - preview.Observer
func (c *Client) OnFragment(index int, f model.Fragment) {
	if err := c.Send("preview_fragment", fragmentMessage{Index: index, Text: f.Text, ImageURL: f.ImageURL}); err != nil {
		log.Printf("⚠️  [Realtime] preview_fragment to %s failed: %v", c.userId, err)
	}
}

// OnStopped - preview.Observer
func (c *Client) OnStopped() {
	if err := c.Send("preview_stopped", nil); err != nil {
		log.Printf("⚠️  [Realtime] preview_stopped to %s failed: %v", c.userId, err)
	}
}

// WebSocket 핸들러
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionId := r.URL.Query().Get("session")
	userId := r.URL.Query().Get("user")
	if sessionId == "" || userId == "" {
		log.Printf("⚠️  [Realtime] Missing session or user parameter")
		http.Error(w, "session and user are required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ [Realtime] WebSocket upgrade failed: %v", err)
		return
	}

	client := newClient(conn, sessionId, userId)
	log.Printf("🔍 [Realtime] New WebSocket connection - Session: %s, User: %s", sessionId, userId)

	session := h.getOrCreateSession(sessionId)
	h.addClient(session, client)

	go client.writePump()
	go h.readPump(client, session)
}

// 클라이언트로부터 메시지 읽기
func (h *Hub) readPump(c *Client, session *Session) {
	defer func() {
		session.removeClient(c)
		c.conn.Close()
	}()

	for {
		var message Message
		if err := c.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ [Realtime] WebSocket error: %v", err)
			}
			return
		}
		h.handleMessage(c, message)
	}
}

func (h *Hub) handleMessage(c *Client, message Message) {
	switch message.Type {
	case "preview_start":
		post, err := h.posts.Get(message.PostID)
		if err != nil {
			log.Printf("⚠️  [Realtime] User %s asked to preview unknown post %s", c.userId, message.PostID)
			c.Send("preview_error", map[string]string{"postId": message.PostID, "message": err.Error()})
			return
		}
		log.Printf("▶️  [Realtime] User %s previewing post %s", c.userId, post.ID)
		c.ensurePlayer(h.dwell).Play(post.Fragments)

	case "clip_finished":
		if c.output != nil {
			if !c.output.Finished(message.Index, message.ClipID) {
				log.Printf("⚠️  [Realtime] Ignoring stale clip_finished from %s (index %d, clip %d)", c.userId, message.Index, message.ClipID)
			}
		}

	case "preview_stop":
		if c.player != nil {
			c.player.Stop()
		}

	case "ping":
		c.Send("pong", nil)

	default:
		log.Printf("⚠️  [Realtime] Unknown message type %q from %s", message.Type, c.userId)
	}
}

// 클라이언트로 메시지 쓰기
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("❌ [Realtime] WebSocket write error: %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
