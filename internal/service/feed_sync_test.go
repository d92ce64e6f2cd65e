package service

import (
	"Murmur/internal/model"
	"Murmur/internal/pkg/cache"
	"Murmur/internal/pkg/consts"
	"Murmur/internal/pkg/realtime"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedSync_InvalidatesOnRemoteChange(t *testing.T) {
	e := newTestEnv()
	hub := realtime.NewHub()
	manager := realtime.NewManager(hub)
	fs := NewFeedSync(manager, e.cache)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fs.Start(ctx) }()
	require.Eventually(t, func() bool { return manager.Len() == 5 }, time.Second, 5*time.Millisecond)

	subject := Subject{Type: model.SubjectPost, ID: postB}
	agg, err := e.reactionSvc.GetAggregate(ctx, subject)
	require.NoError(t, err)
	assert.Zero(t, agg.Total)

	// 另一个会话直接写库，只有变更流可见
	e.reactions.rows[reactionKey{model.SubjectPost, postB, userC}] = model.KindWow
	agg, err = e.reactionSvc.GetAggregate(ctx, subject)
	require.NoError(t, err)
	assert.Zero(t, agg.Total)

	delivered := hub.Publish(ctx, realtime.ChangeEvent{
		Table: consts.TableReactions,
		Type:  realtime.EventInsert,
		New:   realtime.Row{"subject_type": "post", "subject_id": "10", "user_id": "3", "kind": "wow"},
	})
	assert.Equal(t, 1, delivered)

	agg, err = e.reactionSvc.GetAggregate(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Counts[model.KindWow])

	cancel()
	require.NoError(t, <-done)
	require.Eventually(t, func() bool { return manager.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestFeedSync_UpdateInvalidatesOldAndNewKeys(t *testing.T) {
	e := newTestEnv()
	f := NewFeedSync(nil, e.cache)
	store := e.cache.Store()
	ctx := context.Background()

	for _, postID := range []uint64{1, 2} {
		require.NoError(t, store.Set(ctx, cache.CommentTree(postID), []byte("[]"), e.cache.Tiers().Social))
	}

	var route syncRoute
	for _, r := range f.routes() {
		if r.table == consts.TableComments {
			route = r
		}
	}
	f.handle(ctx, route, realtime.ChangeEvent{
		Table: consts.TableComments,
		Type:  realtime.EventUpdate,
		New:   realtime.Row{"id": "5", "post_id": "2"},
		Old:   realtime.Row{"id": "5", "post_id": "1"},
	})

	for _, postID := range []uint64{1, 2} {
		entry, ok, err := store.Get(ctx, cache.CommentTree(postID))
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, entry.Stale, "post %d", postID)
	}
}

func TestReactionInvalidation_MissingUser(t *testing.T) {
	tests := []struct {
		name         string
		userID       uint64
		wantKey      string
		wantPrefixes []string
	}{
		{"known user", userA, cache.UserReaction("post", postB, userA), []string{cache.FeedPrefix}},
		{"missing user", 0, "", []string{cache.FeedPrefix, cache.UserReactionsOf("post", postB)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := reactionInvalidation(model.SubjectPost, postB, tt.userID)
			assert.Contains(t, inv.Keys, cache.ReactionAggregate("post", postB))
			if tt.wantKey != "" {
				assert.Contains(t, inv.Keys, tt.wantKey)
			} else {
				assert.Len(t, inv.Keys, 1)
			}
			assert.Equal(t, tt.wantPrefixes, inv.Prefixes)
		})
	}
}
