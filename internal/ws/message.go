// Package ws provides WebSocket connection handling and message routing
// between capture agents, viewers and the admin connection.
package ws

import (
	"github.com/remote-screen-share/backend/internal/model"
)

// MessageType is the discriminant of the wire protocol.
type MessageType string

const (
	// Client -> server message types
	MessageTypeGoClient            MessageType = "goClient"
	MessageTypeRequestDisplayCount MessageType = "requestDisplayCount"
	MessageTypeDisplayCount        MessageType = "displayCount"
	MessageTypeSelectDisplay       MessageType = "selectDisplay"
	MessageTypeUnselectDisplay     MessageType = "unselectDisplay"
	MessageTypeRequestFrame        MessageType = "requestFrame"
	MessageTypeFrame               MessageType = "frame"
	MessageTypePreview             MessageType = "preview"
	MessageTypeRequestPreview      MessageType = "requestPreview"
	MessageTypeTerminateSession    MessageType = "terminateSession"
	MessageTypeTerminateUser       MessageType = "terminateUserSessions"
	MessageTypeRequestSessionList  MessageType = "requestSessionList"

	// Server -> client message types
	MessageTypeForceLogout      MessageType = "forceLogout"
	MessageTypeError            MessageType = "error"
	MessageTypeSessionList      MessageType = "sessionList"
	MessageTypeFrameAvailable   MessageType = "frameAvailable"
	MessageTypePreviewAvailable MessageType = "previewAvailable"
)

// Message is the unit of the wire protocol: one required type field plus
// type-specific fields. Frame and preview payloads are opaque text-safe
// blobs (base64 of zlib-compressed image data); the hub never decodes them.
type Message struct {
	Type    MessageType `json:"type"`
	Count   int         `json:"count,omitempty"`
	Display int         `json:"display"`
	Data    string      `json:"data,omitempty"`

	// IsPreview marks frame requests and frame payloads that carry preview
	// resolution instead of the full capture.
	IsPreview bool `json:"isPreview,omitempty"`

	// UserID tags forwards to a capture agent with the requesting session
	// id so the produced frame can be routed back.
	UserID string `json:"userID,omitempty"`

	// SessionID names the target of a terminateSession request.
	SessionID string `json:"sessionId,omitempty"`

	// Username names the target of a terminateUserSessions request.
	Username string `json:"username,omitempty"`

	// Message carries the human-readable text of an error message.
	Message string `json:"message,omitempty"`

	// Sessions is the grouped session list pushed to the admin connection.
	Sessions map[string][]model.SessionInfo `json:"sessions,omitempty"`
}
