package service

import (
	"Murmur/internal/api/dto"
	"Murmur/internal/model"
	"Murmur/internal/pkg/cache"
	"Murmur/internal/pkg/consts"
	"Murmur/internal/pkg/mongo"
	"Murmur/internal/pkg/rpc"
	"Murmur/internal/repository"
	"context"
	log "log/slog"
)

type RatingService interface {
	GetUserRating(ctx context.Context, movieID uint64) (*model.MovieRating, error)
	GetAggregate(ctx context.Context, movieID uint64) (*dto.RatingAggregateDTO, error)
	Rate(ctx context.Context, movieID uint64, score int8, review *string) error
	DeleteRating(ctx context.Context, movieID uint64) error
}

type rateInput struct {
	actorID uint64
	movieID uint64
	score   int8
	review  *string
}

type upsertRatingArgs struct {
	MovieID uint64  `json:"p_movie_id"`
	UserID  uint64  `json:"p_user_id"`
	Score   int8    `json:"p_score"`
	Review  *string `json:"p_review"`
}

type ratingServiceImpl struct {
	movieRepo     repository.MovieRepo
	notifications NotificationService
	rpc           rpc.Caller
	cache         *cache.Cache

	rate   *cache.Mutation[rateInput, struct{}]
	remove *cache.Mutation[rateInput, struct{}]
}

func NewRatingService(movieRepo repository.MovieRepo, notifications NotificationService, caller rpc.Caller, c *cache.Cache) RatingService {
	s := &ratingServiceImpl{
		movieRepo:     movieRepo,
		notifications: notifications,
		rpc:           caller,
		cache:         c,
	}
	affected := func(in rateInput, _ struct{}) cache.Invalidation {
		return ratingInvalidation(in.movieID, in.actorID)
	}
	s.rate = cache.NewMutation(c, s.runRate, affected)
	s.remove = cache.NewMutation(c, s.runDelete, affected)
	return s
}

// GetUserRating 未登录或未评分时返回 nil
func (s *ratingServiceImpl) GetUserRating(ctx context.Context, movieID uint64) (*model.MovieRating, error) {
	if movieID == 0 {
		return nil, ErrParamInvalid
	}
	userID, err := ActorFrom(ctx)
	if err != nil {
		return nil, nil
	}
	return cache.Fetch(ctx, s.cache, cache.UserRating(movieID, userID), s.cache.Tiers().Social,
		func(ctx context.Context) (*model.MovieRating, error) {
			return s.movieRepo.GetRating(ctx, movieID, userID)
		})
}

func (s *ratingServiceImpl) GetAggregate(ctx context.Context, movieID uint64) (*dto.RatingAggregateDTO, error) {
	if movieID == 0 {
		return nil, ErrParamInvalid
	}
	return cache.Fetch(ctx, s.cache, cache.RatingAggregate(movieID), s.cache.Tiers().Static,
		func(ctx context.Context) (*dto.RatingAggregateDTO, error) {
			agg, err := s.movieRepo.GetRatingAggregate(ctx, movieID)
			if err != nil {
				return nil, err
			}
			return &dto.RatingAggregateDTO{MovieID: movieID, Average: agg.Average, Count: agg.Count}, nil
		})
}

func (s *ratingServiceImpl) Rate(ctx context.Context, movieID uint64, score int8, review *string) error {
	actorID, err := ActorFrom(ctx)
	if err != nil {
		return err
	}
	if movieID == 0 {
		return ErrParamInvalid
	}
	if score < 1 || score > 5 {
		return ErrRatingScoreInvalid
	}
	_, err = s.rate.MutateAsync(ctx, rateInput{actorID: actorID, movieID: movieID, score: score, review: review})
	return err
}

// getMovie 电影元数据几乎不变，按 static 层级缓存
func (s *ratingServiceImpl) getMovie(ctx context.Context, movieID uint64) (*model.Movie, error) {
	return cache.Fetch(ctx, s.cache, cache.Movie(movieID), s.cache.Tiers().Static,
		func(ctx context.Context) (*model.Movie, error) {
			return s.movieRepo.GetMovie(ctx, movieID)
		})
}

func (s *ratingServiceImpl) runRate(ctx context.Context, in rateInput) (struct{}, error) {
	movie, err := s.getMovie(ctx, in.movieID)
	if err != nil {
		return struct{}{}, err
	}
	if movie == nil {
		return struct{}{}, ErrMovieNotFound
	}

	// 给自己的电影评分等业务规则由后端拒绝
	if _, err := s.rpc.Call(ctx, consts.RPCUpsertMovieRating, upsertRatingArgs{
		MovieID: in.movieID,
		UserID:  in.actorID,
		Score:   in.score,
		Review:  in.review,
	}); err != nil {
		return struct{}{}, err
	}

	if err := s.notifications.Create(ctx, NotificationInput{
		RecipientID: movie.UserID,
		ActorID:     in.actorID,
		Type:        mongo.TypeMovie,
		EntityType:  "movie",
		EntityID:    in.movieID,
		Metadata:    map[string]any{"score": in.score, "title": movie.Title},
	}); err != nil {
		log.WarnContext(ctx, "movie notification failed", "movie_id", in.movieID, "err", err)
	}
	return struct{}{}, nil
}

func (s *ratingServiceImpl) DeleteRating(ctx context.Context, movieID uint64) error {
	actorID, err := ActorFrom(ctx)
	if err != nil {
		return err
	}
	if movieID == 0 {
		return ErrParamInvalid
	}
	_, err = s.remove.MutateAsync(ctx, rateInput{actorID: actorID, movieID: movieID})
	return err
}

func (s *ratingServiceImpl) runDelete(ctx context.Context, in rateInput) (struct{}, error) {
	_, err := s.movieRepo.DeleteRating(ctx, in.movieID, in.actorID)
	return struct{}{}, err
}
