// Package hub holds the registry of live sessions, the capture-agent pool
// and the admin notification channel.
//
// All mutable state lives behind a single mutex so that no two connection
// handlers ever interleave mid-mutation. Broadcast targets are always
// snapshotted under the lock before any send happens.
package hub

import (
	"sync"
	"time"

	"github.com/remote-screen-share/backend/internal/model"
)

// Hub is the authoritative mapping from session id to session state, plus
// the subset of sessions acting as capture agents.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	agents   map[string]*model.Session

	// admin is the target of session-list pushes. The most recently
	// connected admin wins; an earlier admin connection silently stops
	// receiving updates. Multiple concurrent admins are not supported.
	admin *model.Session

	// agentWaiters are closed when the pool transitions to non-empty.
	agentWaiters []chan struct{}

	// onChange runs after every registry mutation (register, unregister,
	// promotion), outside the hub lock.
	onChange func()
}

func New() *Hub {
	return &Hub{
		sessions: make(map[string]*model.Session),
		agents:   make(map[string]*model.Session),
	}
}

// SetOnChange sets the callback invoked after every registry change. The
// callback runs outside the hub lock and may call back into the hub.
func (h *Hub) SetOnChange(callback func()) {
	h.mu.Lock()
	h.onChange = callback
	h.mu.Unlock()
}

// Register inserts the session keyed by its id. Capture-agent sessions join
// the pool immediately; admin sessions take over the admin channel.
func (h *Hub) Register(sess *model.Session) error {
	h.mu.Lock()
	if _, exists := h.sessions[sess.ID]; exists {
		h.mu.Unlock()
		return model.ErrDuplicateID
	}
	h.sessions[sess.ID] = sess

	switch sess.Role {
	case model.RoleCaptureAgent:
		h.addAgentLocked(sess)
	case model.RoleAdmin:
		h.admin = sess
	}
	callback := h.onChange
	h.mu.Unlock()

	if callback != nil {
		callback()
	}
	return nil
}

// Unregister removes and returns the session. Pool membership and the admin
// pointer are cleaned up synchronously; a disconnected agent is never
// discovered lazily on a later send.
func (h *Hub) Unregister(id string) (*model.Session, error) {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		return nil, model.ErrSessionNotFound
	}
	delete(h.sessions, id)
	delete(h.agents, id)
	if h.admin != nil && h.admin.ID == id {
		h.admin = nil
	}
	callback := h.onChange
	h.mu.Unlock()

	if callback != nil {
		callback()
	}
	return sess, nil
}

// Find returns the session with the given id.
func (h *Hub) Find(id string) (*model.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sess, ok := h.sessions[id]
	return sess, ok
}

// ListByUser returns all sessions owned by the given username.
func (h *Hub) ListByUser(username string) []*model.Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*model.Session
	for _, sess := range h.sessions {
		if sess.Username == username {
			out = append(out, sess)
		}
	}
	return out
}

// All returns a snapshot of every registered session.
func (h *Hub) All() []*model.Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*model.Session, 0, len(h.sessions))
	for _, sess := range h.sessions {
		out = append(out, sess)
	}
	return out
}

// Len returns the number of registered sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Admin returns the current admin session, if any.
func (h *Hub) Admin() (*model.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.admin, h.admin != nil
}

// Promote transitions a viewer or direct session to capture agent and adds
// it to the pool. Repeating the promotion is a no-op; promoting from any
// other role is rejected without effect.
func (h *Hub) Promote(id string) bool {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		return false
	}
	if sess.Role == model.RoleCaptureAgent {
		h.mu.Unlock()
		return true
	}
	if !sess.IsViewerLike() {
		h.mu.Unlock()
		return false
	}
	sess.Role = model.RoleCaptureAgent
	sess.SelectedDisplay = nil
	h.addAgentLocked(sess)
	callback := h.onChange
	h.mu.Unlock()

	if callback != nil {
		callback()
	}
	return true
}

// Subscribe records the display the session is watching, replacing any
// prior subscription.
func (h *Hub) Subscribe(id string, display int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[id]
	if !ok {
		return false
	}
	d := display
	sess.SelectedDisplay = &d
	return true
}

// Unsubscribe clears the session's display subscription. Clearing an absent
// subscription is a no-op.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sess, ok := h.sessions[id]; ok {
		sess.SelectedDisplay = nil
	}
}

// Subscribers returns the viewer-like sessions currently watching the given
// display. Capture agents and admins are never included.
func (h *Hub) Subscribers(display int) []*model.Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*model.Session
	for _, sess := range h.sessions {
		if sess.IsViewerLike() && sess.Watching(display) {
			out = append(out, sess)
		}
	}
	return out
}

// NonAgents returns every session that is not in the capture-agent pool.
// This is the broadcast target set.
func (h *Hub) NonAgents() []*model.Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*model.Session
	for _, sess := range h.sessions {
		if _, isAgent := h.agents[sess.ID]; !isAgent {
			out = append(out, sess)
		}
	}
	return out
}

// PickAgent returns any one pool member. Ties are broken by map iteration
// order; there is no fairness guarantee.
func (h *Hub) PickAgent() (*model.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pickAgentLocked()
}

func (h *Hub) pickAgentLocked() (*model.Session, bool) {
	for _, agent := range h.agents {
		return agent, true
	}
	return nil, false
}

// AgentCount returns the current pool size.
func (h *Hub) AgentCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.agents)
}

// AwaitAgent returns a pool member, blocking until one connects or the
// timeout elapses. The wait is bounded deliberately: an indefinite wait
// would leak the calling handler when no agent ever shows up.
func (h *Hub) AwaitAgent(timeout time.Duration) (*model.Session, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		h.mu.Lock()
		if agent, ok := h.pickAgentLocked(); ok {
			h.mu.Unlock()
			return agent, nil
		}
		wake := make(chan struct{})
		h.agentWaiters = append(h.agentWaiters, wake)
		h.mu.Unlock()

		select {
		case <-wake:
		case <-deadline.C:
			return nil, model.ErrCaptureAgentUnavailable
		}
	}
}

func (h *Hub) addAgentLocked(sess *model.Session) {
	h.agents[sess.ID] = sess
	for _, wake := range h.agentWaiters {
		close(wake)
	}
	h.agentWaiters = nil
}
