package model

import (
	"time"
)

type Movie struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    uint64    `gorm:"not null;index:idx_user_id" json:"userId"` // 提交者
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Movie) TableName() string {
	return "movies"
}

// MovieRating 与社交回应不相交，(movie_id, user_id) 唯一
type MovieRating struct {
	MovieID   uint64    `gorm:"primaryKey" json:"movieId"`
	UserID    uint64    `gorm:"primaryKey" json:"userId"`
	Score     int8      `gorm:"not null" json:"score"` // 1-5
	Review    *string   `gorm:"type:varchar(2000)" json:"review"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (MovieRating) TableName() string {
	return "movie_ratings"
}

type RatingAggregate struct {
	Average float64 `gorm:"column:average" json:"average"`
	Count   int64   `gorm:"column:count" json:"count"`
}
