package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/services"
	"github.com/temcen/cinematch/pkg/models"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
}

func New(logger *logrus.Logger, services *services.Services, defaultUserID int64) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Recommendation: NewRecommendationHandler(services.Recommendation, defaultUserID, logger),
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.NewErrorResponse(code, message))
}
