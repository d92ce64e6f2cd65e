package dto

type ToggleFollowDTO struct {
	CurrentlyFollowing bool `json:"currentlyFollowing"`
}

type FollowStateDTO struct {
	TargetID     uint64 `json:"targetId"`
	NowFollowing bool   `json:"nowFollowing"`
}

type FollowCountDTO struct {
	UserID         uint64 `json:"userId"`
	FollowerCount  int64  `json:"followerCount"`
	FollowingCount int64  `json:"followingCount"`
}
