package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RelayHandler is the same-origin forwarding shim for the automation
// webhook: the browser can't call the external endpoint directly because of
// CORS, so arbitrary JSON bodies pass through here unchanged, and the
// endpoint's status and body come back unchanged. No business logic.
type RelayHandler struct {
	log    *zap.Logger
	client *http.Client
	url    string
}

func NewRelayHandler(log *zap.Logger, url string) *RelayHandler {
	return &RelayHandler{
		log:    log,
		client: &http.Client{},
		url:    url,
	}
}

func (h *RelayHandler) Forward(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build relay request"})
		return
	}
	contentType := c.GetHeader("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Warn("Webhook relay failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read webhook response"})
		return
	}

	c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), responseBody)
}
