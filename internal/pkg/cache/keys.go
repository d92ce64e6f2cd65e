package cache

import (
	"strconv"
)

// 缓存键布局，变更处理和变更流处理都必须经由这里构造键
const (
	ReactionAggregateKey = "reaction:agg:"  // reaction:agg:{subjectType}:{subjectID}
	UserReactionKey      = "reaction:user:" // reaction:user:{subjectType}:{subjectID}:{userID}
	CommentTreeKey       = "comment:tree:"
	CommentCountKey      = "comment:count:"
	FollowStateKey       = "follow:state:" // follow:state:{followerID}:{followingID}
	FollowerCountKey     = "follow:count:followers:"
	FollowingCountKey    = "follow:count:following:"
	ProfileKey           = "profile:"
	NotificationListKey  = "notification:list:"
	NotificationUnread   = "notification:unread:"
	MovieKey             = "movie:"
	RatingAggregateKey   = "rating:agg:"
	UserRatingKey        = "rating:user:" // rating:user:{movieID}:{userID}

	FeedPrefix = "feed:"
)

func u64(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func ReactionAggregate(subjectType string, subjectID uint64) string {
	return ReactionAggregateKey + subjectType + ":" + u64(subjectID)
}

func UserReaction(subjectType string, subjectID, userID uint64) string {
	return UserReactionKey + subjectType + ":" + u64(subjectID) + ":" + u64(userID)
}

// UserReactionsOf 某个实体上所有用户的回应
func UserReactionsOf(subjectType string, subjectID uint64) string {
	return UserReactionKey + subjectType + ":" + u64(subjectID) + ":"
}

func CommentTree(postID uint64) string {
	return CommentTreeKey + u64(postID)
}

func CommentCount(postID uint64) string {
	return CommentCountKey + u64(postID)
}

func FollowState(followerID, followingID uint64) string {
	return FollowStateKey + u64(followerID) + ":" + u64(followingID)
}

func FollowerCount(userID uint64) string {
	return FollowerCountKey + u64(userID)
}

func FollowingCount(userID uint64) string {
	return FollowingCountKey + u64(userID)
}

func Profile(userID uint64) string {
	return ProfileKey + u64(userID)
}

func NotificationList(userID uint64) string {
	return NotificationListKey + u64(userID)
}

func NotificationUnreadCount(userID uint64) string {
	return NotificationUnread + u64(userID)
}

func Movie(movieID uint64) string {
	return MovieKey + u64(movieID)
}

func RatingAggregate(movieID uint64) string {
	return RatingAggregateKey + u64(movieID)
}

func UserRating(movieID, userID uint64) string {
	return UserRatingKey + u64(movieID) + ":" + u64(userID)
}
