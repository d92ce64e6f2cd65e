package service

import (
	"Murmur/internal/model"
	"Murmur/internal/pkg/consts"
	"Murmur/internal/pkg/mongo"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingRate(t *testing.T) {
	e := newTestEnv()
	review := "tense"

	require.NoError(t, e.ratingSvc.Rate(as(userA), movie, 5, &review))
	require.Len(t, e.caller.calls, 1)
	assert.Equal(t, consts.RPCUpsertMovieRating, e.caller.calls[0].fn)
	args := e.caller.calls[0].args.(upsertRatingArgs)
	assert.Equal(t, upsertRatingArgs{MovieID: movie, UserID: userA, Score: 5, Review: &review}, args)

	notes := e.notifs.of(userB, mongo.TypeMovie)
	require.Len(t, notes, 1)
	assert.Equal(t, movie, notes[0].EntityID)

	// 重新评分复用同一条通知
	require.NoError(t, e.ratingSvc.Rate(as(userA), movie, 3, nil))
	assert.Len(t, e.notifs.of(userB, mongo.TypeMovie), 1)
}

func TestRatingRate_Rejections(t *testing.T) {
	e := newTestEnv()

	assert.ErrorIs(t, e.ratingSvc.Rate(context.Background(), movie, 4, nil), ErrUnauthenticated)
	assert.ErrorIs(t, e.ratingSvc.Rate(as(userA), movie, 6, nil), ErrRatingScoreInvalid)
	assert.ErrorIs(t, e.ratingSvc.Rate(as(userA), 404, 4, nil), ErrMovieNotFound)
	assert.Empty(t, e.caller.calls)

	e.caller.reject = "cannot rate your own movie"
	err := e.ratingSvc.Rate(as(userB), movie, 4, nil)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Empty(t, e.notifs.docs)
}

func TestRatingReadsAndDelete(t *testing.T) {
	e := newTestEnv()
	e.movies.ratings[[2]uint64{movie, userA}] = &model.MovieRating{MovieID: movie, UserID: userA, Score: 4}
	e.movies.ratings[[2]uint64{movie, userC}] = &model.MovieRating{MovieID: movie, UserID: userC, Score: 2}

	mine, err := e.ratingSvc.GetUserRating(as(userA), movie)
	require.NoError(t, err)
	require.NotNil(t, mine)
	assert.EqualValues(t, 4, mine.Score)

	anon, err := e.ratingSvc.GetUserRating(context.Background(), movie)
	require.NoError(t, err)
	assert.Nil(t, anon)

	agg, err := e.ratingSvc.GetAggregate(context.Background(), movie)
	require.NoError(t, err)
	assert.EqualValues(t, 2, agg.Count)
	assert.InDelta(t, 3.0, agg.Average, 1e-9)

	require.NoError(t, e.ratingSvc.DeleteRating(as(userA), movie))
	mine, err = e.ratingSvc.GetUserRating(as(userA), movie)
	require.NoError(t, err)
	assert.Nil(t, mine)

	agg, err = e.ratingSvc.GetAggregate(context.Background(), movie)
	require.NoError(t, err)
	assert.EqualValues(t, 1, agg.Count)
}
