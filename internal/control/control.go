// Package control implements the administrative control plane: the grouped
// session list pushed to the admin connection and forcible termination of
// sessions.
package control

import (
	"encoding/json"
	"log"

	"github.com/remote-screen-share/backend/internal/hub"
	"github.com/remote-screen-share/backend/internal/model"
	"github.com/remote-screen-share/backend/internal/ws"
)

// Plane exposes session enumeration and termination. It subscribes to
// registry changes so the admin connection receives a fresh grouped list
// after every register, unregister and role change.
type Plane struct {
	hub *hub.Hub
}

// New creates the control plane and hooks it into the hub's change
// notifications.
func New(h *hub.Hub) *Plane {
	p := &Plane{hub: h}
	h.SetOnChange(p.pushToAdmin)
	return p
}

// ListGrouped returns every registered session grouped by owning user.
// Entries expose id and role only; repeated pushes of the same list are
// idempotent for the admin UI.
func (p *Plane) ListGrouped() map[string][]model.SessionInfo {
	grouped := make(map[string][]model.SessionInfo)
	for _, sess := range p.hub.All() {
		grouped[sess.Username] = append(grouped[sess.Username], model.SessionInfo{
			ID:   sess.ID,
			Role: sess.Role,
		})
	}
	return grouped
}

// Terminate forcibly ends one session: the client is told it is being
// logged out (best-effort), the connection is closed and the session is
// unregistered. Unknown ids return model.ErrSessionNotFound, which callers
// treat as a no-op.
func (p *Plane) Terminate(sessionID string) error {
	sess, ok := p.hub.Find(sessionID)
	if !ok {
		return model.ErrSessionNotFound
	}

	if notice, err := json.Marshal(&ws.Message{Type: ws.MessageTypeForceLogout}); err == nil {
		sess.Conn.Send(notice)
	}
	sess.Conn.Close()

	if _, err := p.hub.Unregister(sessionID); err != nil {
		return err
	}
	log.Printf("Terminated session %s (user %q)", sess.ID, sess.Username)
	return nil
}

// TerminateAllForUser terminates every session owned by username,
// sequentially. Each termination follows the single-session contract, so
// the admin receives one list refresh per removed session. Returns the
// number of sessions terminated.
func (p *Plane) TerminateAllForUser(username string) int {
	terminated := 0
	for _, sess := range p.hub.ListByUser(username) {
		if err := p.Terminate(sess.ID); err == nil {
			terminated++
		}
	}
	return terminated
}

// pushToAdmin sends the current grouped list to the admin connection, if
// one is attached.
func (p *Plane) pushToAdmin() {
	admin, ok := p.hub.Admin()
	if !ok {
		return
	}

	data, err := json.Marshal(&ws.Message{
		Type:     ws.MessageTypeSessionList,
		Sessions: p.ListGrouped(),
	})
	if err != nil {
		log.Printf("Failed to marshal session list: %v", err)
		return
	}
	admin.Conn.Send(data)
}
