// Package handlers provides HTTP API request handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/remote-screen-share/backend/internal/model"
	"github.com/remote-screen-share/backend/internal/ws"
)

// WebSocketHandler accepts relay connections and classifies them into
// roles by path and query.
type WebSocketHandler struct {
	wsHandler *ws.Handler
	auth      AdminGate
}

// AdminGate validates the admin login cookie for privileged routes.
type AdminGate interface {
	Validate(token string) (string, bool)
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(wsHandler *ws.Handler, auth AdminGate) *WebSocketHandler {
	return &WebSocketHandler{
		wsHandler: wsHandler,
		auth:      auth,
	}
}

// Serve handles GET /ws. The clientType=go query marks capture agents;
// everything else starts as a viewer until it self-identifies.
func (h *WebSocketHandler) Serve(c *gin.Context) {
	if err := h.wsHandler.HandleConnection(c.Writer, c.Request); err != nil {
		// Upgrade failure already wrote the response.
		return
	}
}

// ServeAdmin handles GET /admin: the dashboard page for plain requests,
// the admin control channel for WebSocket upgrades. Both require a valid
// login cookie.
func (h *WebSocketHandler) ServeAdmin(c *gin.Context) {
	if !h.adminAuthorized(c) {
		if websocket.IsWebSocketUpgrade(c.Request) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Redirect(http.StatusFound, "/admin/login")
		return
	}

	if websocket.IsWebSocketUpgrade(c.Request) {
		h.wsHandler.HandleConnectionAs(c.Writer, c.Request, model.RoleAdmin)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dashboardPage))
}

// ServeDirect handles GET /direct/*path. Direct connections are registered
// for bookkeeping and otherwise routed like viewers.
func (h *WebSocketHandler) ServeDirect(c *gin.Context) {
	if err := h.wsHandler.HandleConnectionAs(c.Writer, c.Request, model.RoleDirect); err != nil {
		return
	}
}

func (h *WebSocketHandler) adminAuthorized(c *gin.Context) bool {
	token, err := c.Cookie(adminCookieName)
	if err != nil {
		return false
	}
	_, ok := h.auth.Validate(token)
	return ok
}

// RegisterRoutes registers the relay connection routes.
func (h *WebSocketHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.Serve)
	r.GET("/admin", h.ServeAdmin)
	r.GET("/direct/*path", h.ServeDirect)
}
