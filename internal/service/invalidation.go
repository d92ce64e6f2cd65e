package service

import (
	"Murmur/internal/model"
	"Murmur/internal/pkg/cache"
)

// 写操作与变更流共用同一组失效规则

func reactionInvalidation(subjectType model.SubjectType, subjectID, userID uint64) cache.Invalidation {
	inv := cache.Invalidation{
		Keys:     []string{cache.ReactionAggregate(string(subjectType), subjectID)},
		Prefixes: []string{cache.FeedPrefix},
	}
	// 变更行缺少 user_id 时失效该实体下所有用户的回应
	if userID == 0 {
		inv.Prefixes = append(inv.Prefixes, cache.UserReactionsOf(string(subjectType), subjectID))
	} else {
		inv.Keys = append(inv.Keys, cache.UserReaction(string(subjectType), subjectID, userID))
	}
	return inv
}

func commentInvalidation(postID uint64) cache.Invalidation {
	return cache.Invalidation{
		Keys:     []string{cache.CommentTree(postID), cache.CommentCount(postID)},
		Prefixes: []string{cache.FeedPrefix},
	}
}

func followInvalidation(followerID, followingID uint64) cache.Invalidation {
	return cache.Invalidation{
		Keys: []string{
			cache.FollowState(followerID, followingID),
			cache.FollowerCount(followingID),
			cache.FollowingCount(followerID),
		},
		Prefixes: []string{cache.FeedPrefix},
	}
}

func notificationInvalidation(userID uint64) cache.Invalidation {
	return cache.Invalidation{
		Keys: []string{cache.NotificationList(userID), cache.NotificationUnreadCount(userID)},
	}
}

func ratingInvalidation(movieID, userID uint64) cache.Invalidation {
	return cache.Invalidation{
		Keys: []string{cache.UserRating(movieID, userID), cache.RatingAggregate(movieID)},
	}
}
