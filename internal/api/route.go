package api

import (
	"Murmur/internal/api/config"
	"Murmur/internal/api/middleware"
	"Murmur/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, logCfg config.LogstashConfig) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r, logCfg)

	auth := middleware.AuthMiddleware(group.TokenManager)
	authOpt := middleware.AuthOptionalMiddleware(group.TokenManager)

	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		reactionGroup := apiGroup.Group("/reactions/:subject_type")
		{
			reactionGroup.GET("", group.ReactionHandler.GetBatchReactions)
			reactionGroup.GET("/:subject_id", authOpt, group.ReactionHandler.GetReactions)
			reactionGroup.POST("/:subject_id", auth, group.ReactionHandler.ToggleReaction)
		}

		postGroup := apiGroup.Group("/posts/:post_id/comments")
		{
			postGroup.GET("", group.CommentHandler.GetComments)
			postGroup.GET("/count", group.CommentHandler.GetCommentCount)
			postGroup.POST("", auth, group.CommentHandler.CreateComment)
		}

		commentGroup := apiGroup.Group("/comments")
		commentGroup.Use(auth)
		{
			commentGroup.PUT("/:comment_id", group.CommentHandler.UpdateComment)
			commentGroup.DELETE("/:comment_id", group.CommentHandler.DeleteComment)
		}

		userFollowGroup := apiGroup.Group("/users/:user_id")
		{
			userFollowGroup.GET("/follow", authOpt, group.FollowHandler.IsFollowing)
			userFollowGroup.POST("/follow", auth, group.FollowHandler.ToggleFollow)
			userFollowGroup.GET("/follow/count", group.FollowHandler.GetFollowCount)
		}

		notificationGroup := apiGroup.Group("/notifications")
		notificationGroup.Use(auth)
		{
			notificationGroup.GET("", group.NotificationHandler.GetNotificationList)
			notificationGroup.GET("/unread", group.NotificationHandler.GetUnreadCount)
			notificationGroup.POST("/read", group.NotificationHandler.MarkRead)
			notificationGroup.POST("/read/all", group.NotificationHandler.MarkAllRead)
			notificationGroup.DELETE("/:id", group.NotificationHandler.DeleteNotification)
			notificationGroup.DELETE("", group.NotificationHandler.DeleteAll)
			notificationGroup.POST("/purge", group.NotificationHandler.PurgeOlderThan)
		}

		movieGroup := apiGroup.Group("/movies/:movie_id/rating")
		{
			movieGroup.GET("", authOpt, group.RatingHandler.GetMyRating)
			movieGroup.GET("/aggregate", group.RatingHandler.GetAggregate)
			movieGroup.PUT("", auth, group.RatingHandler.Rate)
			movieGroup.DELETE("", auth, group.RatingHandler.DeleteRating)
		}

		apiGroup.GET("/ws/notifications", auth, group.WSHandler.Connect)
	}

	return r
}
