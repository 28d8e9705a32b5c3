package handlers

import (
	"net/http"
	"regexp"

	"boothfair/internal/models"

	"github.com/gin-gonic/gin"
)

var draftIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// SaveDraft - PUT /api/drafts/:id
// The write is debounced, so the response confirms acceptance only.
func (h *Handlers) SaveDraft(c *gin.Context) {
	id := c.Param("id")
	if !draftIDPattern.MatchString(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft id"})
		return
	}

	var req models.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, h.drafts.Save(c.Request.Context(), id, &req))
}

// GetDraft - GET /api/drafts/:id
func (h *Handlers) GetDraft(c *gin.Context) {
	id := c.Param("id")
	if !draftIDPattern.MatchString(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft id"})
		return
	}

	draft, err := h.drafts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "get draft")
		return
	}

	c.JSON(http.StatusOK, draft)
}
