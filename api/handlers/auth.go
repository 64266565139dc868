package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remote-screen-share/backend/internal/auth"
	"github.com/remote-screen-share/backend/internal/model"
)

const adminCookieName = auth.CookieName

// AuthHandler serves the admin login pages and manages login cookies.
type AuthHandler struct {
	auth      *auth.Manager
	cookieTTL int
}

// NewAuthHandler creates a new AuthHandler. cookieTTL is in seconds.
func NewAuthHandler(manager *auth.Manager, cookieTTL int) *AuthHandler {
	return &AuthHandler{
		auth:      manager,
		cookieTTL: cookieTTL,
	}
}

// LoginPage handles GET /admin/login.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginPage))
}

// Login handles POST /admin/login with form-encoded credentials.
func (h *AuthHandler) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	token, err := h.auth.Login(c.Request.Context(), username, password)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			c.Data(http.StatusUnauthorized, "text/html; charset=utf-8", []byte(loginFailedPage))
			return
		}
		log.Printf("Login failed for %q: %v", username, err)
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed")
		return
	}

	c.SetCookie(adminCookieName, token, h.cookieTTL, "/", "", false, true)
	c.Redirect(http.StatusFound, "/admin")
}

// Logout handles GET /admin/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(adminCookieName); err == nil {
		h.auth.Logout(token)
	}
	c.SetCookie(adminCookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/admin/login")
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/admin/login", h.LoginPage)
	r.POST("/admin/login", h.Login)
	r.GET("/admin/logout", h.Logout)
}
