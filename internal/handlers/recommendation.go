package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cinematch/internal/engine"
	"github.com/temcen/cinematch/internal/middleware"
	"github.com/temcen/cinematch/internal/services"
	"github.com/temcen/cinematch/pkg/models"
)

const (
	defaultSimilarCount = 10
	maxSimilarCount     = 100
)

type RecommendationHandler struct {
	service       services.RecommendationServiceInterface
	logger        *logrus.Logger
	defaultUserID int64
}

func NewRecommendationHandler(
	service services.RecommendationServiceInterface,
	defaultUserID int64,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		service:       service,
		logger:        logger,
		defaultUserID: defaultUserID,
	}
}

// Recommend handles GET /recommend?movie=&user_id=&alpha=
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	movie := strings.TrimSpace(c.Query("movie"))
	if movie == "" {
		respondError(c, http.StatusBadRequest, "MISSING_MOVIE", "Query parameter 'movie' is required")
		return
	}

	userID := h.defaultUserID
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		parsed, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_USER_ID", "Query parameter 'user_id' must be an integer")
			return
		}
		userID = parsed
	}

	req := services.RecommendRequest{
		Movie:     movie,
		UserID:    userID,
		RequestID: c.GetString(middleware.RequestIDKey),
	}
	if alphaStr := c.Query("alpha"); alphaStr != "" {
		alpha, err := strconv.ParseFloat(alphaStr, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_ALPHA", "Query parameter 'alpha' must be a number between 0 and 1")
			return
		}
		req.Alpha = &alpha
	}

	resp, err := h.service.Recommend(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotFound):
			c.JSON(http.StatusNotFound, models.RecommendNotFoundResponse{
				Message:         "Movie not found",
				RequestedMovie:  movie,
				Recommendations: []models.MovieCard{},
			})
		case errors.Is(err, engine.ErrInvalidConfiguration):
			respondError(c, http.StatusBadRequest, "INVALID_ALPHA", "Query parameter 'alpha' must be a number between 0 and 1")
		default:
			h.logger.WithError(err).WithFields(logrus.Fields{
				"movie":   movie,
				"user_id": userID,
			}).Error("Failed to generate recommendations")
			respondError(c, http.StatusInternalServerError, "RECOMMENDATION_GENERATION_FAILED", "Failed to generate recommendations")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Resolve handles GET /api/v1/movies/resolve?q=
func (h *RecommendationHandler) Resolve(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondError(c, http.StatusBadRequest, "MISSING_QUERY", "Query parameter 'q' is required")
		return
	}

	resp, err := h.service.Resolve(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			respondError(c, http.StatusNotFound, "MOVIE_NOT_FOUND", "Movie not found")
			return
		}
		h.logger.WithError(err).WithField("query", query).Error("Failed to resolve title")
		respondError(c, http.StatusInternalServerError, "RESOLVE_FAILED", "Failed to resolve title")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Similar handles GET /api/v1/movies/:id/similar?k=
func (h *RecommendationHandler) Similar(c *gin.Context) {
	movieID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_MOVIE_ID", "Movie ID must be an integer")
		return
	}

	k := defaultSimilarCount
	if kStr := c.Query("k"); kStr != "" {
		parsed, err := strconv.Atoi(kStr)
		if err != nil || parsed <= 0 || parsed > maxSimilarCount {
			respondError(c, http.StatusBadRequest, "INVALID_COUNT", "Query parameter 'k' must be between 1 and 100")
			return
		}
		k = parsed
	}

	resp, err := h.service.Similar(c.Request.Context(), movieID, k)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotFound):
			respondError(c, http.StatusNotFound, "MOVIE_NOT_FOUND", "Movie not found")
		case errors.Is(err, engine.ErrInvalidConfiguration):
			respondError(c, http.StatusBadRequest, "INVALID_COUNT", "Query parameter 'k' must be between 1 and 100")
		default:
			h.logger.WithError(err).WithField("movie_id", movieID).Error("Failed to find similar movies")
			respondError(c, http.StatusInternalServerError, "SIMILAR_FAILED", "Failed to find similar movies")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Trending handles GET /api/v1/trending
func (h *RecommendationHandler) Trending(c *gin.Context) {
	resp, err := h.service.Trending(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load trending movies")
		respondError(c, http.StatusInternalServerError, "TRENDING_FAILED", "Failed to load trending movies")
		return
	}

	c.JSON(http.StatusOK, resp)
}
