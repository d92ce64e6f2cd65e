package handler

import (
	"Murmur/internal/api/dto"
	"Murmur/internal/pkg/response"
	"Murmur/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationSvc service.NotificationService
}

func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// GetNotificationList 最近 7 天的通知
func (h *NotificationHandler) GetNotificationList(c *gin.Context) {
	list, err := h.notificationSvc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// GetUnreadCount 获取未读数
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	count, err := h.notificationSvc.UnreadCount(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.UnreadCountDTO{Count: count})
}

// MarkRead 标记单条已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var req dto.MarkReadDTO
	if !bindJSON(c, &req) {
		return
	}
	if err := h.notificationSvc.MarkRead(c.Request.Context(), req.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkAllRead 全部已读
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notificationSvc.MarkAllRead(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, map[string]int64{"updated": n})
}

func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	if err := h.notificationSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	n, err := h.notificationSvc.DeleteAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, map[string]int64{"deleted": n})
}

// PurgeOlderThan 删除 days 天以前的通知
func (h *NotificationHandler) PurgeOlderThan(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	n, err := h.notificationSvc.PurgeOlderThan(c.Request.Context(), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, map[string]int64{"deleted": n})
}
