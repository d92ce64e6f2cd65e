package model

import (
	"time"
)

// SubjectType 可被回应的实体类型
type SubjectType string

const (
	SubjectPost    SubjectType = "post"
	SubjectComment SubjectType = "comment"
)

func (t SubjectType) Valid() bool {
	return t == SubjectPost || t == SubjectComment
}

// Accepts 帖子与评论只接受社交类回应，电影类只用于评分
func (t SubjectType) Accepts(k ReactionKind) bool {
	return t.Valid() && k.Family() == FamilySocial
}

// ReactionFamily 回应类型族：社交表情与影评表情互不相交
type ReactionFamily int

const (
	FamilySocial ReactionFamily = iota + 1
	FamilyMovie
)

// ReactionKind 封闭枚举，非法字符串在 Valid 处被拒绝
type ReactionKind string

const (
	KindLike  ReactionKind = "like"
	KindLove  ReactionKind = "love"
	KindHaha  ReactionKind = "haha"
	KindWow   ReactionKind = "wow"
	KindSad   ReactionKind = "sad"
	KindAngry ReactionKind = "angry"

	KindMasterpiece ReactionKind = "masterpiece"
	KindGreat       ReactionKind = "great"
	KindFine        ReactionKind = "fine"
	KindBoring      ReactionKind = "boring"
	KindAwful       ReactionKind = "awful"
)

var (
	SocialKinds = []ReactionKind{KindLike, KindLove, KindHaha, KindWow, KindSad, KindAngry}
	MovieKinds  = []ReactionKind{KindMasterpiece, KindGreat, KindFine, KindBoring, KindAwful}
)

// Family 返回所属类型族，未知类型返回 0
func (k ReactionKind) Family() ReactionFamily {
	switch k {
	case KindLike, KindLove, KindHaha, KindWow, KindSad, KindAngry:
		return FamilySocial
	case KindMasterpiece, KindGreat, KindFine, KindBoring, KindAwful:
		return FamilyMovie
	}
	return 0
}

func (k ReactionKind) Valid() bool {
	return k.Family() != 0
}

// Icon 前端展示用图标
func (k ReactionKind) Icon() string {
	switch k {
	case KindLike:
		return "👍"
	case KindLove:
		return "❤️"
	case KindHaha:
		return "😆"
	case KindWow:
		return "😮"
	case KindSad:
		return "😢"
	case KindAngry:
		return "😡"
	case KindMasterpiece:
		return "🏆"
	case KindGreat:
		return "🍿"
	case KindFine:
		return "🎬"
	case KindBoring:
		return "🥱"
	case KindAwful:
		return "🍅"
	}
	return ""
}

// Reaction 每个 (subject_type, subject_id, user_id) 至多一行
type Reaction struct {
	SubjectType SubjectType  `gorm:"primaryKey;type:varchar(16)" json:"subjectType"`
	SubjectID   uint64       `gorm:"primaryKey;index:idx_subject" json:"subjectId"`
	UserID      uint64       `gorm:"primaryKey" json:"userId"`
	Kind        ReactionKind `gorm:"type:varchar(16);not null" json:"kind"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (Reaction) TableName() string {
	return "reactions"
}

// ReactionCount 聚合查询结果
type ReactionCount struct {
	SubjectID uint64       `gorm:"column:subject_id"`
	Kind      ReactionKind `gorm:"column:kind"`
	Count     int          `gorm:"column:count"`
}
