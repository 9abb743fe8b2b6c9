package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rishikanthc/zendown/internal/similarity"
)

// handleRelatedNotes proxies a similar-documents query for one note through
// the similarity index and enriches the scored ids with stored titles and
// canonical paths.
func (h *httpHandler) handleRelatedNotes(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id_required"})
		return
	}

	threshold := similarity.DefaultThreshold
	if raw := c.Query("thresh"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_threshold"})
			return
		}
		threshold = parsed
	}
	limit := similarity.DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit"})
			return
		}
		limit = parsed
	}

	related, err := h.notes.Related(c.Request.Context(), id, threshold, limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, related)
}

type semanticSearchPayload struct {
	QueryText string   `json:"query_text"`
	Threshold *float64 `json:"thresh"`
	Limit     *int     `json:"limit"`
}

// handleSemanticSearch proxies a free-text semantic query through the
// similarity index.
func (h *httpHandler) handleSemanticSearch(c *gin.Context) {
	var payload semanticSearchPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}
	if strings.TrimSpace(payload.QueryText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query_text_required"})
		return
	}

	threshold := similarity.DefaultThreshold
	if payload.Threshold != nil {
		if *payload.Threshold < 0 || *payload.Threshold > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_threshold"})
			return
		}
		threshold = *payload.Threshold
	}
	limit := similarity.DefaultLimit
	if payload.Limit != nil {
		if *payload.Limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_limit"})
			return
		}
		limit = *payload.Limit
	}

	results, err := h.notes.SemanticSearch(c.Request.Context(), payload.QueryText, threshold, limit)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
