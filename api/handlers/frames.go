package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/remote-screen-share/backend/internal/framecache"
	"github.com/remote-screen-share/backend/internal/model"
	"github.com/remote-screen-share/backend/internal/ws"
)

// FrameHandler serves the polling read path over the frame cache.
type FrameHandler struct {
	cache  *framecache.Cache
	router *ws.Router
}

// NewFrameHandler creates a new FrameHandler.
func NewFrameHandler(cache *framecache.Cache, router *ws.Router) *FrameHandler {
	return &FrameHandler{
		cache:  cache,
		router: router,
	}
}

// LatestFrame handles GET /api/latest-frame?display=N. The cached blob is
// decoded back to raw JPEG bytes for direct use in an <img> tag.
func (h *FrameHandler) LatestFrame(c *gin.Context) {
	display, ok := displayParam(c)
	if !ok {
		return
	}

	blob, err := h.cache.Get(display, framecache.KindFrame)
	if err != nil {
		if errors.Is(err, model.ErrFrameNotFound) {
			sendError(c, http.StatusNotFound, "FRAME_NOT_FOUND", "No frame cached for this display")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	raw, err := framecache.Decode(blob)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "FRAME_DECODE_ERROR", "Cached frame could not be decoded: "+err.Error())
		return
	}

	c.Data(http.StatusOK, "image/jpeg", raw)
}

// LatestPreview handles GET /api/latest-preview?display=N. A cache miss
// asks a capture agent for a fresh preview and answers 202 so the caller
// can retry shortly instead of blocking.
func (h *FrameHandler) LatestPreview(c *gin.Context) {
	display, ok := displayParam(c)
	if !ok {
		return
	}

	blob, err := h.cache.Get(display, framecache.KindPreview)
	if err != nil {
		if errors.Is(err, model.ErrFrameNotFound) {
			h.router.RequestPreviewFromAgent(display)
			c.JSON(http.StatusAccepted, gin.H{
				"status": "pending",
				"detail": "Preview requested from capture agent, retry shortly",
			})
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	raw, err := framecache.Decode(blob)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "FRAME_DECODE_ERROR", "Cached preview could not be decoded: "+err.Error())
		return
	}

	c.Data(http.StatusOK, "image/jpeg", raw)
}

// RegisterRoutes registers the frame read routes on a Gin router group.
func (h *FrameHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/latest-frame", h.LatestFrame)
	rg.GET("/latest-preview", h.LatestPreview)
}

func displayParam(c *gin.Context) (int, bool) {
	display, err := strconv.Atoi(c.Query("display"))
	if err != nil || display < 0 {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "display must be a non-negative integer")
		return 0, false
	}
	return display, true
}
