package handler

import (
	"Murmur/internal/api/dto"
	"Murmur/internal/pkg/response"
	"Murmur/internal/service"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	ratingSvc service.RatingService
}

func NewRatingHandler(ratingSvc service.RatingService) *RatingHandler {
	return &RatingHandler{ratingSvc: ratingSvc}
}

func (h *RatingHandler) GetMyRating(c *gin.Context) {
	movieID, ok := paramID(c, "movie_id")
	if !ok {
		return
	}
	rating, err := h.ratingSvc.GetUserRating(c.Request.Context(), movieID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rating)
}

func (h *RatingHandler) GetAggregate(c *gin.Context) {
	movieID, ok := paramID(c, "movie_id")
	if !ok {
		return
	}
	agg, err := h.ratingSvc.GetAggregate(c.Request.Context(), movieID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, agg)
}

func (h *RatingHandler) Rate(c *gin.Context) {
	movieID, ok := paramID(c, "movie_id")
	if !ok {
		return
	}
	var req dto.RateMovieDTO
	if !bindJSON(c, &req) {
		return
	}
	if err := h.ratingSvc.Rate(c.Request.Context(), movieID, req.Score, req.Review); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *RatingHandler) DeleteRating(c *gin.Context) {
	movieID, ok := paramID(c, "movie_id")
	if !ok {
		return
	}
	if err := h.ratingSvc.DeleteRating(c.Request.Context(), movieID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
