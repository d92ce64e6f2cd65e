package service

import (
	"Murmur/internal/model"
	"Murmur/internal/pkg/cache"
	"Murmur/internal/pkg/consts"
	"Murmur/internal/pkg/realtime"
	"context"
	log "log/slog"
	"strconv"
)

// FeedSync 订阅变更流，其他会话或后台写入的数据按与写操作相同的规则失效
type FeedSync struct {
	manager *realtime.Manager
	cache   *cache.Cache
}

func NewFeedSync(manager *realtime.Manager, c *cache.Cache) *FeedSync {
	return &FeedSync{manager: manager, cache: c}
}

type syncRoute struct {
	channel string
	table   string
	handle  func(realtime.Row) cache.Invalidation
}

func (f *FeedSync) routes() []syncRoute {
	return []syncRoute{
		{consts.ChannelSyncReactions, consts.TableReactions, func(r realtime.Row) cache.Invalidation {
			return reactionInvalidation(model.SubjectType(r.String("subject_type")), rowID(r, "subject_id"), rowID(r, "user_id"))
		}},
		{consts.ChannelSyncComments, consts.TableComments, func(r realtime.Row) cache.Invalidation {
			return commentInvalidation(rowID(r, "post_id"))
		}},
		{consts.ChannelSyncFollows, consts.TableUserFollows, func(r realtime.Row) cache.Invalidation {
			return followInvalidation(rowID(r, "follower_id"), rowID(r, "following_id"))
		}},
		{consts.ChannelSyncNotifications, consts.TableNotifications, func(r realtime.Row) cache.Invalidation {
			return notificationInvalidation(rowID(r, "user_id"))
		}},
		{consts.ChannelSyncRatings, consts.TableMovieRatings, func(r realtime.Row) cache.Invalidation {
			return ratingInvalidation(rowID(r, "movie_id"), rowID(r, "user_id"))
		}},
	}
}

// Start 挂载全部同步订阅并阻塞到 ctx 结束，ctx 结束即卸载
func (f *FeedSync) Start(ctx context.Context) error {
	for _, route := range f.routes() {
		_, err := f.manager.Subscribe(ctx, realtime.Options{
			ChannelName: route.channel,
			Table:       route.table,
			Event:       realtime.EventAll,
			Enabled:     true,
			OnEvent: func(ev realtime.ChangeEvent) {
				f.handle(ctx, route, ev)
			},
		})
		if err != nil {
			return err
		}
	}
	log.Info("feed sync started")
	<-ctx.Done()
	log.Info("feed sync stopped")
	return nil
}

func (f *FeedSync) handle(ctx context.Context, route syncRoute, ev realtime.ChangeEvent) {
	inv := route.handle(ev.Record())
	// UPDATE 可能改变了外键列，旧值对应的条目同样失效
	if ev.Type == realtime.EventUpdate && len(ev.Old) > 0 {
		inv = inv.Merge(route.handle(ev.Old))
	}
	f.cache.Apply(ctx, inv)
}

func rowID(r realtime.Row, col string) uint64 {
	id, _ := strconv.ParseUint(r.String(col), 10, 64)
	return id
}
