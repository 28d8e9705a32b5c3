package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListBooths - GET /api/booths?category=
func (h *Handlers) ListBooths(c *gin.Context) {
	response, err := h.booths.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err, "list booths")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetBooth - GET /api/booths/:id?category=
func (h *Handlers) GetBooth(c *gin.Context) {
	boothID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booth id must be an integer"})
		return
	}

	response, err := h.booths.Get(c.Request.Context(), boothID, c.Query("category"))
	if err != nil {
		respondError(c, err, "get booth")
		return
	}

	c.JSON(http.StatusOK, response)
}
