package ws

import (
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/remote-screen-share/backend/internal/hub"
	"github.com/remote-screen-share/backend/internal/model"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Frame payloads are large
	// base64 blobs, so this is generous.
	maxMessageSize = 16 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking in production
		return true
	},
}

// ClassifyRole derives the connection role from the request path and query.
// The role is fixed for the connection's lifetime, except for the
// goClient self-identification handled by the router.
func ClassifyRole(path string, query url.Values) model.Role {
	switch {
	case path == "/admin":
		return model.RoleAdmin
	case strings.HasPrefix(path, "/direct/"):
		return model.RoleDirect
	case query.Get("clientType") == "go":
		return model.RoleCaptureAgent
	default:
		return model.RoleViewer
	}
}

// Handler accepts WebSocket connections, registers them as sessions and
// runs their read/write pumps.
type Handler struct {
	hub        *hub.Hub
	router     *Router
	sendBuffer int
}

// NewHandler creates a connection handler.
func NewHandler(h *hub.Hub, router *Router, sendBuffer int) *Handler {
	return &Handler{
		hub:        h,
		router:     router,
		sendBuffer: sendBuffer,
	}
}

// HandleConnection upgrades the request, classifies it into a role and
// registers the resulting session with the hub.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	role := ClassifyRole(r.URL.Path, r.URL.Query())
	return h.HandleConnectionAs(w, r, role)
}

// HandleConnectionAs is HandleConnection with the role decided by the
// caller, for routes whose path alone determines the role.
func (h *Handler) HandleConnectionAs(w http.ResponseWriter, r *http.Request, role model.Role) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		username = model.DefaultUsername
	}

	client := NewClient(conn, h.sendBuffer)
	sess := &model.Session{
		ID:       uuid.New().String(),
		Role:     role,
		Username: username,
		Conn:     client,
	}

	if err := h.hub.Register(sess); err != nil {
		// Only reachable if the id generator produced a collision.
		log.Printf("Failed to register session: %v", err)
		conn.Close()
		return err
	}

	log.Printf("Session %s connected as %s (user %q) from %s", sess.ID, sess.Role, sess.Username, r.RemoteAddr)

	go h.writePump(client)
	go h.readPump(sess, client)

	return nil
}

// readPump pumps messages from the connection into the router. Messages
// from a single connection are processed strictly in arrival order.
func (h *Handler) readPump(sess *model.Session, client *Client) {
	defer func() {
		if _, err := h.hub.Unregister(sess.ID); err == nil {
			log.Printf("Session %s disconnected", sess.ID)
		}
		client.Close()
		client.Conn().Close()
	}()

	conn := client.Conn()
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error on session %s: %v", sess.ID, err)
			}
			return
		}
		h.router.Dispatch(sess, raw)
	}
}

// writePump pumps queued messages to the connection, one frame per
// message, and keeps the connection alive with pings.
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn().Close()
	}()

	for {
		select {
		case message, ok := <-client.SendChan():
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The client was closed
				client.Conn().WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn().WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Drain queued messages, each in its own frame so the
			// browser can JSON.parse them individually.
			n := len(client.SendChan())
			for i := 0; i < n; i++ {
				queued, ok := <-client.SendChan()
				if !ok {
					client.Conn().WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.Conn().WriteMessage(websocket.TextMessage, queued); err != nil {
					return
				}
			}
		case <-ticker.C:
			client.Conn().SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn().WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SetCheckOrigin sets a custom origin checker for the WebSocket upgrader.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}
