package handlers

import (
	"context"
	"errors"
	"net/http"

	apperrors "boothfair/internal/errors"
	"boothfair/internal/logger"
	"boothfair/internal/models"
	"boothfair/internal/promo"
	"boothfair/internal/service"

	"github.com/gin-gonic/gin"
)

type BoothService interface {
	List(ctx context.Context, category string) (*models.ListBoothsResponse, error)
	Get(ctx context.Context, boothID int, category string) (*models.ListBoothsResponseItem, error)
}

type PromoService interface {
	Validate(ctx context.Context, code string, basePrice float64) (*models.ValidatePromoResponse, error)
	CreateSession(ctx context.Context, boothID int) (*promo.Session, error)
	GetSession(ctx context.Context, id string) (*promo.Session, error)
	ApplyPromo(ctx context.Context, id, code string) (*promo.Session, error)
	RemovePromo(ctx context.Context, id string) (*promo.Session, error)
}

type DraftService interface {
	Save(ctx context.Context, id string, req *models.SaveDraftRequest) models.Draft
	Get(ctx context.Context, id string) (*models.Draft, error)
}

type EventService interface {
	List(ctx context.Context, query string, page, pageSize int) (models.ListEventsResponse, error)
}

type Handlers struct {
	booths BoothService
	promos PromoService
	drafts DraftService
	events EventService
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		booths: services.Booths,
		promos: services.Promos,
		drafts: services.Drafts,
		events: services.Events,
	}
}

// respondError maps domain errors onto HTTP statuses. Promo rejections carry
// a machine-readable reason; unexpected errors are logged and hidden.
func respondError(c *gin.Context, err error, action string) {
	if reason := promo.Reason(err); reason != "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": reason})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnknownBooth):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrBoothUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.WithContext(c.Request.Context()).Error("Failed to "+action, "error", err, "path", c.Request.URL.Path)
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}
