package consts

const (
	// UserIDKey 身份中间件写入 gin.Context 与 request context 的 key
	UserIDKey = "user_id"
	// UsernameKey 当前用户名
	UsernameKey = "username"
)

// 变更流通道名
const (
	ChannelSyncReactions     = "sync:reactions"
	ChannelSyncComments      = "sync:comments"
	ChannelSyncFollows       = "sync:follows"
	ChannelSyncNotifications = "sync:notifications"
	ChannelSyncRatings       = "sync:movie_ratings"
	ChannelUserNotifications = "notifications:" // notifications:{userID}:{sessionID}
)

// 变更流涉及的表
const (
	TableReactions     = "reactions"
	TableComments      = "comments"
	TableUserFollows   = "user_follows"
	TableNotifications = "notifications"
	TableMovieRatings  = "movie_ratings"
)

// 托管后端上的校验型存储过程
const (
	RPCManageComment     = "manage_comment"
	RPCUpsertMovieRating = "upsert_movie_rating"
)
