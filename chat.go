package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ChatMessage represents a chat message with metadata
type ChatMessage struct {
	ID      int64     `json:"id"` // DB message id
	Type    string    `json:"type"`
	MatchID string    `json:"match_id"`
	From    string    `json:"from"`
	Body    string    `json:"body,omitempty"`
	Ts      time.Time `json:"ts"` // created_at
}

// ServerEvent represents a server-sent event
type ServerEvent struct {
	Type string `json:"type"` // "message" | "typing" | "match" | "info" | "error"
	From string `json:"from,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Client represents a WebSocket client connection
type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan ServerEvent
	db     *sql.DB
	hub    *Hub
}

// Hub manages WebSocket client connections keyed by user id. It is the
// NotificationSink the match engine publishes through: delivery is
// best-effort to whoever is connected right now.
type Hub struct {
	clientsByUser map[string]map[*Client]bool
	mu            sync.RWMutex
}

func newHub() *Hub {
	return &Hub{
		clientsByUser: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clientsByUser[c.userID] == nil {
		h.clientsByUser[c.userID] = make(map[*Client]bool)
	}
	h.clientsByUser[c.userID][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if peers, ok := h.clientsByUser[c.userID]; ok {
		delete(peers, c)
		if len(peers) == 0 {
			delete(h.clientsByUser, c.userID)
		}
	}
}

// Publish sends the event to every session of one user.
func (h *Hub) Publish(userID string, evt ServerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if peers, ok := h.clientsByUser[userID]; ok {
		for c := range peers {
			select {
			case c.send <- evt:
			default:
				// Drop message if user's buffer is full
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// For development: allow Vite dev origin ws://localhost:5173
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsChatHandler(db *sql.DB, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := getUserIDFromRequest(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WS upgrade error for user %s: %v", userID, err)
			return
		}

		client := &Client{
			userID: userID,
			conn:   conn,
			send:   make(chan ServerEvent, 16),
			db:     db,
			hub:    hub,
		}
		hub.register(client)

		// Announce connection to this client
		client.send <- ServerEvent{Type: "info", Data: "connected"}

		// Start writer
		go clientWriter(client)
		// Start reader (blocks)
		clientReader(client)
	}
}

func clientReader(c *Client) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ChatMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.send <- ServerEvent{Type: "error", Data: "invalid message format"}
			continue
		}

		switch msg.Type {
		case "message":
			body := strings.TrimSpace(msg.Body)
			if body == "" {
				c.send <- ServerEvent{Type: "error", Data: "empty message"}
				continue
			}
			saved, peerID, err := saveChatMsg(c.db, c.userID, msg.MatchID, body)
			if err != nil {
				c.send <- ServerEvent{Type: "error", Data: "cannot send message"}
				continue
			}

			out := ServerEvent{
				Type: "message",
				From: c.userID,
				Data: saved,
			}
			// minimal relay: send to the other match member and echo back
			c.hub.Publish(peerID, out)
			c.hub.Publish(c.userID, out) // echo (so sender UI updates instantly)

		case "typing":
			peerID, err := matchPeer(c.db, msg.MatchID, c.userID)
			if err != nil {
				continue
			}
			c.hub.Publish(peerID, ServerEvent{Type: "typing", From: c.userID, Data: msg.MatchID})

		default:
			c.send <- ServerEvent{Type: "error", Data: "unknown message type"}
		}
	}
}

func clientWriter(c *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			// ping to keep the connection alive
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// matchPeer resolves the other member of the match, or ErrNotFound when
// the user is not a member.
func matchPeer(db *sql.DB, matchID, userID string) (string, error) {
	var a, b string
	err := db.QueryRow(`
		SELECT user_a_id, user_b_id
		FROM matches
		WHERE id = $1 AND (user_a_id = $2 OR user_b_id = $2)
	`, matchID, userID).Scan(&a, &b)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if a == userID {
		return b, nil
	}
	return a, nil
}

// saveChatMsg persists a message against a match the sender belongs to and
// returns the stored message plus the receiving peer's id.
func saveChatMsg(db *sql.DB, fromUserID, matchID, body string) (*ChatMessage, string, error) {
	peerID, err := matchPeer(db, matchID, fromUserID)
	if err != nil {
		return nil, "", err
	}

	var msgID int64
	var createdAt time.Time
	err = db.QueryRow(`
		INSERT INTO messages (match_id, sender_id, receiver_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, matchID, fromUserID, peerID, body).Scan(&msgID, &createdAt)
	if err != nil {
		return nil, "", err
	}

	return &ChatMessage{
		ID:      msgID,
		Type:    "message",
		MatchID: matchID,
		From:    fromUserID,
		Body:    body,
		Ts:      createdAt,
	}, peerID, nil
}

func getChatMessages(db *sql.DB, userID, matchID string, limit int, before *time.Time) ([]ChatMessage, error) {
	// Membership gate first; history of someone else's match is a 404.
	if _, err := matchPeer(db, matchID, userID); err != nil {
		return nil, err
	}

	q := `
		SELECT id, sender_id, body, created_at
		FROM messages
		WHERE match_id = $1
			AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at DESC
		LIMIT $3`

	var rows *sql.Rows
	var err error
	if before != nil {
		rows, err = db.Query(q, matchID, *before, limit)
	} else {
		rows, err = db.Query(q, matchID, nil, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]ChatMessage, 0, limit)
	for rows.Next() {
		var msgID int64
		var senderID, body string
		var createdAt time.Time
		if err := rows.Scan(&msgID, &senderID, &body, &createdAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, ChatMessage{
			ID:      msgID,
			Type:    "message",
			MatchID: matchID,
			From:    senderID,
			Body:    body,
			Ts:      createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Messages sent to this user are read once fetched.
	_, _ = db.Exec(`
		UPDATE messages
		SET is_read = TRUE
		WHERE match_id = $1 AND receiver_id = $2 AND is_read IS FALSE
	`, matchID, userID)

	return msgs, nil
}

// GET /matches/{matchId}/messages?limit=50&before=2025-09-16T08:00:00Z
func matchMessagesHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "matches" || parts[2] != "messages" {
			http.NotFound(w, r)
			return
		}
		matchID := parts[1]
		userID := r.Context().Value(userIDKey).(string)

		// query params
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := parsePositiveInt(v, 200); err == nil {
				limit = n
			}
		}
		var beforePtr *time.Time
		if s := r.URL.Query().Get("before"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				beforePtr = &t
			}
		}

		msgs, err := getChatMessages(db, userID, matchID, limit, beforePtr)
		if err == ErrNotFound {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("getChatMessages error:", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
	})
}
