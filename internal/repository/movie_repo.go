package repository

import (
	"Murmur/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type MovieRepo interface {
	GetMovie(ctx context.Context, id uint64) (*model.Movie, error)
	GetRating(ctx context.Context, movieID, userID uint64) (*model.MovieRating, error)
	GetRatingAggregate(ctx context.Context, movieID uint64) (*model.RatingAggregate, error)
	DeleteRating(ctx context.Context, movieID, userID uint64) (int64, error)
}

type MovieRepoImpl struct {
	db *gorm.DB
}

func NewMovieRepo(db *gorm.DB) MovieRepo {
	return &MovieRepoImpl{db: db}
}

func (s *MovieRepoImpl) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	var movie model.Movie
	result := s.db.WithContext(ctx).First(&movie, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &movie, nil
}

func (s *MovieRepoImpl) GetRating(ctx context.Context, movieID, userID uint64) (*model.MovieRating, error) {
	var rating model.MovieRating
	result := s.db.WithContext(ctx).
		Where("movie_id = ? AND user_id = ?", movieID, userID).
		First(&rating)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &rating, nil
}

func (s *MovieRepoImpl) GetRatingAggregate(ctx context.Context, movieID uint64) (*model.RatingAggregate, error) {
	agg := &model.RatingAggregate{}
	result := s.db.WithContext(ctx).
		Model(&model.MovieRating{}).
		Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS count").
		Where("movie_id = ?", movieID).
		Scan(agg)
	if result.Error != nil {
		return nil, result.Error
	}
	return agg, nil
}

func (s *MovieRepoImpl) DeleteRating(ctx context.Context, movieID, userID uint64) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("movie_id = ? AND user_id = ?", movieID, userID).
		Delete(&model.MovieRating{})
	return result.RowsAffected, result.Error
}
