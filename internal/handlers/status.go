package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	errGetSession  = "failed to load session"
	errGetReadings = "failed to load readings"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getSession returns the locked monitoring session, or locked=false
// while discovery is still searching.
func (h *Handler) getSession(c *gin.Context) {
	sess, err := h.services.Status.Session(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSession, "session_load_failed", err)
		return
	}
	if sess.SessionID == "" {
		c.JSON(http.StatusOK, gin.H{"locked": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locked": true, "session": sess})
}

// getReadings returns the latest per-probe temperatures.
func (h *Handler) getReadings(c *gin.Context) {
	view, err := h.services.Status.Readings(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetReadings, "readings_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}
