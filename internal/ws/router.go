package ws

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/remote-screen-share/backend/internal/framecache"
	"github.com/remote-screen-share/backend/internal/hub"
	"github.com/remote-screen-share/backend/internal/model"
)

// ControlPlane is the administrative surface the router dispatches
// termination and session-list requests to.
type ControlPlane interface {
	ListGrouped() map[string][]model.SessionInfo
	Terminate(sessionID string) error
	TerminateAllForUser(username string) int
}

// Router decodes inbound messages and dispatches them by type: unicast to a
// specific session, multicast to the subscribers of a display, broadcast to
// everyone but capture agents, or forward to an available capture agent.
//
// Every send is best-effort and at-most-once. A destination that closed
// between selection and send simply misses the message; nothing is retried
// or requeued, and a failed target never aborts the rest of a fan-out.
type Router struct {
	hub       *hub.Hub
	cache     *framecache.Cache
	control   ControlPlane
	agentWait time.Duration
}

// NewRouter creates a router. agentWait bounds how long a forward blocks
// waiting for a capture agent before reporting unavailability.
func NewRouter(h *hub.Hub, cache *framecache.Cache, control ControlPlane, agentWait time.Duration) *Router {
	if agentWait <= 0 {
		agentWait = 5 * time.Second
	}
	return &Router{
		hub:       h,
		cache:     cache,
		control:   control,
		agentWait: agentWait,
	}
}

// Dispatch handles one inbound message from sess. Malformed payloads are
// dropped with a log entry and the connection stays open.
func (r *Router) Dispatch(sess *model.Session, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("Dropping malformed message from session %s: %v", sess.ID, err)
		return
	}

	switch msg.Type {
	case MessageTypeGoClient:
		r.handleGoClient(sess)
	case MessageTypeRequestDisplayCount:
		if err := r.forwardToAgent(raw); err != nil {
			r.sendError(sess, "No capture agent is available. Ensure the capture client is running and connected.")
		}
	case MessageTypeDisplayCount:
		r.handleDisplayCount(sess, raw)
	case MessageTypeSelectDisplay:
		r.handleSelectDisplay(sess, &msg)
	case MessageTypeUnselectDisplay:
		r.hub.Unsubscribe(sess.ID)
	case MessageTypeRequestFrame:
		r.handleRequestFrame(sess, &msg)
	case MessageTypeFrame:
		r.handleFrame(sess, &msg, raw)
	case MessageTypePreview:
		r.handlePreview(sess, &msg)
	case MessageTypeRequestPreview:
		if err := r.forwardToAgent(raw); err != nil {
			r.sendError(sess, "No capture agent is available to produce a preview.")
		}
	case MessageTypeTerminateSession:
		r.handleTerminateSession(sess, &msg)
	case MessageTypeTerminateUser:
		r.handleTerminateUser(sess, &msg)
	case MessageTypeRequestSessionList:
		r.handleRequestSessionList(sess)
	default:
		log.Printf("Unrecognized message type %q from session %s", msg.Type, sess.ID)
	}
}

// handleGoClient promotes a viewer or direct session to capture agent.
// Promotion is idempotent; a repeated self-identification is harmless.
func (r *Router) handleGoClient(sess *model.Session) {
	if r.hub.Promote(sess.ID) {
		log.Printf("Session %s identified as capture agent", sess.ID)
	}
}

// handleDisplayCount relays an agent's display count to every non-agent
// session verbatim.
func (r *Router) handleDisplayCount(sess *model.Session, raw []byte) {
	if sess.Role != model.RoleCaptureAgent {
		return
	}
	for _, target := range r.hub.NonAgents() {
		target.Conn.Send(raw)
	}
}

// handleSelectDisplay records the subscription, then asks an agent for a
// first frame tagged with the subscriber's id. The subscription sticks even
// when no agent is around; the frame request is dropped silently in that
// case and the next frame write will reach the subscriber anyway.
func (r *Router) handleSelectDisplay(sess *model.Session, msg *Message) {
	if !sess.IsViewerLike() {
		return
	}
	if !r.hub.Subscribe(sess.ID, msg.Display) {
		return
	}

	if _, err := r.cache.Get(msg.Display, framecache.KindFrame); err == nil {
		r.sendMessage(sess, &Message{Type: MessageTypeFrameAvailable, Display: msg.Display})
	}

	req := Message{
		Type:    MessageTypeRequestFrame,
		Display: msg.Display,
		UserID:  sess.ID,
	}
	data, err := json.Marshal(&req)
	if err != nil {
		return
	}
	if err := r.forwardToAgent(data); err != nil {
		log.Printf("No capture agent for display %d requested by session %s", msg.Display, sess.ID)
	}
}

// handleRequestFrame forwards the request to an agent, tagging the
// requesting session id as the destination.
func (r *Router) handleRequestFrame(sess *model.Session, msg *Message) {
	fwd := *msg
	fwd.UserID = sess.ID
	data, err := json.Marshal(&fwd)
	if err != nil {
		return
	}
	if err := r.forwardToAgent(data); err != nil {
		r.sendError(sess, "No capture agent is available to produce a frame.")
	}
}

// handleFrame caches the blob and multicasts the frame to exactly the
// sessions subscribed to its display. Admins and other agents never
// receive frame payloads.
func (r *Router) handleFrame(sess *model.Session, msg *Message, raw []byte) {
	if sess.Role != model.RoleCaptureAgent {
		return
	}
	if msg.IsPreview {
		r.handlePreview(sess, msg)
		return
	}

	r.cache.Put(msg.Display, framecache.KindFrame, msg.Data)

	for _, target := range r.hub.Subscribers(msg.Display) {
		target.Conn.Send(raw)
	}
}

// handlePreview caches the preview blob and tells every non-agent session
// that a fresh preview can be fetched.
func (r *Router) handlePreview(sess *model.Session, msg *Message) {
	if sess.Role != model.RoleCaptureAgent {
		return
	}

	r.cache.Put(msg.Display, framecache.KindPreview, msg.Data)

	notice, err := json.Marshal(&Message{Type: MessageTypePreviewAvailable, Display: msg.Display})
	if err != nil {
		return
	}
	for _, target := range r.hub.NonAgents() {
		target.Conn.Send(notice)
	}
}

func (r *Router) handleTerminateSession(sess *model.Session, msg *Message) {
	if sess.Role != model.RoleAdmin {
		return
	}
	if err := r.control.Terminate(msg.SessionID); err != nil && !errors.Is(err, model.ErrSessionNotFound) {
		log.Printf("Failed to terminate session %s: %v", msg.SessionID, err)
	}
}

func (r *Router) handleTerminateUser(sess *model.Session, msg *Message) {
	if sess.Role != model.RoleAdmin {
		return
	}
	n := r.control.TerminateAllForUser(msg.Username)
	log.Printf("Terminated %d session(s) for user %q", n, msg.Username)
}

func (r *Router) handleRequestSessionList(sess *model.Session) {
	if sess.Role != model.RoleAdmin {
		return
	}
	r.sendMessage(sess, &Message{
		Type:     MessageTypeSessionList,
		Sessions: r.control.ListGrouped(),
	})
}

// forwardToAgent sends raw to any one available capture agent, waiting up
// to the configured bound for one to connect.
func (r *Router) forwardToAgent(raw []byte) error {
	agent, err := r.hub.AwaitAgent(r.agentWait)
	if err != nil {
		return err
	}
	agent.Conn.Send(raw)
	return nil
}

// RequestPreviewFromAgent asks an available agent for a preview of the
// given display without blocking. Used by the HTTP read path on a cache
// miss; when no agent is connected the request is simply dropped.
func (r *Router) RequestPreviewFromAgent(display int) {
	agent, ok := r.hub.PickAgent()
	if !ok {
		return
	}
	data, err := json.Marshal(&Message{Type: MessageTypeRequestPreview, Display: display})
	if err != nil {
		return
	}
	agent.Conn.Send(data)
}

func (r *Router) sendError(sess *model.Session, text string) {
	r.sendMessage(sess, &Message{Type: MessageTypeError, Message: text})
}

func (r *Router) sendMessage(sess *model.Session, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal %s message: %v", msg.Type, err)
		return
	}
	sess.Conn.Send(data)
}
