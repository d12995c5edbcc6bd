package handlers

import (
	"bytes"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "requestId"
)

// requestID propagates X-Request-ID or assigns a fresh one.
func (h *Handler) requestID(c *gin.Context) {
	id := c.GetHeader(headerRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(ctxRequestID, id)
	c.Header(headerRequestID, id)
	c.Next()
}

func requestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// recovery turns panics into a generic 500 without leaking internals.
func (h *Handler) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		if h.log != nil {
			h.log.Errorw("panic_recovered",
				"panic", recovered,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"request_id", requestID(c),
				"stack", string(debug.Stack()),
			)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: errInternal})
	})
}

func (h *Handler) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	if h.log == nil {
		return
	}
	h.log.Debugw("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency", time.Since(start),
		"request_id", requestID(c),
	)
}

// bodyLimit rejects bodies over MaxBodyBytes before any handler reads them.
// At most MaxBodyBytes+1 bytes are read; an accepted body is replayed to the handler.
func (h *Handler) bodyLimit(c *gin.Context) {
	body := c.Request.Body
	if body == nil || body == http.NoBody {
		c.Next()
		return
	}
	limit := h.opts.MaxBodyBytes

	if c.Request.ContentLength > limit {
		h.tooLarge(c, c.Request.ContentLength)
		return
	}

	buf, err := io.ReadAll(io.LimitReader(body, limit+1))
	_ = body.Close()
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "failed to read request body", "body_read_failed", err)
		c.Abort()
		return
	}
	if int64(len(buf)) > limit {
		h.tooLarge(c, int64(len(buf)))
		return
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(buf))
	c.Request.ContentLength = int64(len(buf))
	c.Next()
}

func (h *Handler) tooLarge(c *gin.Context, size int64) {
	if h.log != nil {
		h.log.Infow("payload_too_large", "path", c.Request.URL.Path, "size", size, "limit", h.opts.MaxBodyBytes, "request_id", requestID(c))
	}
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorResponse{Error: errTooLarge})
}
