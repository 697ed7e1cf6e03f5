package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ytget/ytinfo"
	"github.com/ytget/ytinfo/errs"
	"github.com/ytget/ytinfo/internal/logger"
)

type ResolveHandler struct {
	resolver ytinfo.Handler
	timeout  time.Duration
}

// NewResolveHandler serves resolutions through h, bounding each by timeout
// when it is positive.
func NewResolveHandler(h ytinfo.Handler, timeout time.Duration) *ResolveHandler {
	return &ResolveHandler{resolver: h, timeout: timeout}
}

// Resolve handles GET /api/v1/resolve?url=<page url>.
func (h *ResolveHandler) Resolve(c *gin.Context) {
	rawURL := strings.TrimSpace(c.Query("url"))
	if rawURL == "" {
		errorResponse(c, NewValidationError("Query parameter url is required", map[string]interface{}{
			"parameter": "url",
		}))
		return
	}
	if !h.resolver.CanHandle(rawURL) {
		errorResponse(c, FromError(errs.ErrNotValidURL))
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.resolver.Resolve(ctx, rawURL)
	if err != nil {
		appErr := FromError(err)
		logger.WithComponent(logger.ComponentAPI).Warn("resolve failed", map[string]interface{}{
			"request_id": c.GetString("request_id"),
			"url":        rawURL,
			"code":       string(appErr.Code),
			"error":      err.Error(),
		})
		errorResponse(c, appErr)
		return
	}
	c.JSON(http.StatusOK, res)
}
