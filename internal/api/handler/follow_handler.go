package handler

import (
	"Murmur/internal/api/dto"
	"Murmur/internal/pkg/response"
	"Murmur/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	followSvc service.FollowService
}

func NewFollowHandler(followSvc service.FollowService) *FollowHandler {
	return &FollowHandler{followSvc: followSvc}
}

func (h *FollowHandler) IsFollowing(c *gin.Context) {
	targetID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	following, err := h.followSvc.IsFollowing(c.Request.Context(), targetID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.FollowStateDTO{TargetID: targetID, NowFollowing: following})
}

func (h *FollowHandler) ToggleFollow(c *gin.Context) {
	targetID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	var req dto.ToggleFollowDTO
	if !bindJSON(c, &req) {
		return
	}
	state, err := h.followSvc.ToggleFollow(c.Request.Context(), targetID, req.CurrentlyFollowing)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, state)
}

func (h *FollowHandler) GetFollowCount(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	counts, err := h.followSvc.GetFollowCounts(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, counts)
}
