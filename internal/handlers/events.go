package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListEvents - GET /api/events?query=&page=&pageSize=
func (h *Handlers) ListEvents(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be >= 1"})
		return
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil || pageSize < 1 || pageSize > 20 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be between 1 and 20"})
		return
	}

	response, err := h.events.List(c.Request.Context(), c.Query("query"), page, pageSize)
	if err != nil {
		respondError(c, err, "list events")
		return
	}

	c.JSON(http.StatusOK, response)
}
