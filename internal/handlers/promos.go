package handlers

import (
	"net/http"

	"boothfair/internal/models"
	"boothfair/internal/promo"

	"github.com/gin-gonic/gin"
)

// ValidatePromo - POST /api/promo/validate
func (h *Handlers) ValidatePromo(c *gin.Context) {
	var req models.ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.promos.Validate(c.Request.Context(), req.Code, req.BasePrice)
	if err != nil {
		respondError(c, err, "validate promo code")
		return
	}

	c.JSON(http.StatusOK, response)
}

// CreateSession - POST /api/sessions
func (h *Handlers) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.promos.CreateSession(c.Request.Context(), req.BoothID)
	if err != nil {
		respondError(c, err, "create session")
		return
	}

	c.JSON(http.StatusCreated, toSessionResponse(session))
}

// GetSession - GET /api/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	session, err := h.promos.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "get session")
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(session))
}

// ApplyPromo - POST /api/sessions/:id/promo
func (h *Handlers) ApplyPromo(c *gin.Context) {
	var req models.ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.promos.ApplyPromo(c.Request.Context(), c.Param("id"), req.Code)
	if err != nil {
		respondError(c, err, "apply promo code")
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(session))
}

// RemovePromo - DELETE /api/sessions/:id/promo
func (h *Handlers) RemovePromo(c *gin.Context) {
	session, err := h.promos.RemovePromo(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "remove promo code")
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(session))
}

func toSessionResponse(s *promo.Session) models.SessionResponse {
	return models.SessionResponse{
		ID:          s.ID,
		BoothID:     s.BoothID,
		State:       s.State(),
		Applied:     s.Applied,
		Quote:       s.Quote(),
		CodeEnabled: s.State() == promo.StateNone,
	}
}
