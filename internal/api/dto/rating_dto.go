package dto

type RateMovieDTO struct {
	Score  int8    `json:"score" binding:"required" validate:"min=1,max=5"`
	Review *string `json:"review,omitempty" validate:"omitempty,max=2000"`
}

type RatingAggregateDTO struct {
	MovieID uint64  `json:"movieId"`
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}
