// Package model defines the core domain types shared across the relay server.
package model

// Role classifies a connection at accept time.
type Role string

const (
	// RoleAdmin observes the grouped session list and can terminate sessions.
	RoleAdmin Role = "admin"

	// RoleViewer consumes frames for at most one display at a time.
	RoleViewer Role = "viewer"

	// RoleCaptureAgent produces frames and previews on request.
	RoleCaptureAgent Role = "captureAgent"

	// RoleDirect is registered for bookkeeping and otherwise treated like a
	// viewer in routing decisions.
	RoleDirect Role = "direct"
)

// Peer is the live transport handle owned by a session. Closing the session
// closes the peer and vice versa. Sends are best-effort and must never block
// the caller.
type Peer interface {
	Send(data []byte)
	Close()
}

// Session represents one live connection to the relay.
type Session struct {
	// ID is generated at accept time and stable for the connection's lifetime.
	ID string

	// Role is fixed at connect time except for the sanctioned
	// Viewer/Direct -> CaptureAgent promotion via self-identification.
	Role Role

	// Username is the display name supplied at connect time. It is not
	// authenticated here; it exists for grouping in the control plane.
	Username string

	// SelectedDisplay is the display index this session is subscribed to,
	// or nil when not watching any display.
	SelectedDisplay *int

	// Conn is the transport handle, exclusively owned by this session.
	Conn Peer
}

// Watching reports whether the session is subscribed to the given display.
func (s *Session) Watching(display int) bool {
	return s.SelectedDisplay != nil && *s.SelectedDisplay == display
}

// IsViewerLike reports whether the session receives viewer-directed traffic.
func (s *Session) IsViewerLike() bool {
	return s.Role == RoleViewer || s.Role == RoleDirect
}

// SessionInfo is the shape exposed by the control plane: id and role only,
// no connection handles, no payloads.
type SessionInfo struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// DefaultUsername is used when a connection supplies no username.
const DefaultUsername = "unknown"
