package api

import (
	"Murmur/internal/api/handler"
	"Murmur/internal/pkg/security"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	TokenManager        *security.TokenManager
	ReactionHandler     *handler.ReactionHandler
	CommentHandler      *handler.CommentHandler
	FollowHandler       *handler.FollowHandler
	NotificationHandler *handler.NotificationHandler
	RatingHandler       *handler.RatingHandler
	WSHandler           *handler.WsHandler
}
