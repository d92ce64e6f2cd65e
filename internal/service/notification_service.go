package service

import (
	"Murmur/internal/api/config"
	"Murmur/internal/api/dto"
	"Murmur/internal/model"
	"Murmur/internal/pkg/cache"
	"Murmur/internal/pkg/consts"
	"Murmur/internal/pkg/mongo"
	"Murmur/internal/pkg/realtime"
	"Murmur/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"time"

	"github.com/jinzhu/copier"
)

const (
	defaultNotificationWindow = 7 * 24 * time.Hour
	defaultNotificationLimit  = 50
)

// EventPublisher 通知写在 Mongo，不经过 Canal，变更由服务自己发布
type EventPublisher interface {
	Publish(ctx context.Context, ev realtime.ChangeEvent) int
}

// NotificationInput 一次通知请求
type NotificationInput struct {
	RecipientID uint64
	ActorID     uint64
	Type        mongo.NotificationType
	EntityType  string
	EntityID    uint64
	Metadata    map[string]any
}

func (in NotificationInput) tuple() mongo.Tuple {
	return mongo.Tuple{
		UserID:     in.RecipientID,
		ActorID:    in.ActorID,
		Type:       in.Type,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
	}
}

type NotificationService interface {
	Create(ctx context.Context, in NotificationInput) error
	FanOut(ctx context.Context, actorID uint64, recipients []uint64, entityType string, entityID uint64, metadata map[string]any) (int, error)
	Retract(ctx context.Context, t mongo.Tuple) error
	List(ctx context.Context) ([]*dto.NotificationDTO, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
	PurgeAll(ctx context.Context, before time.Time) (int64, error)
}

type notificationServiceImpl struct {
	repo         mongo.NotificationRepo
	reactionRepo repository.ReactionRepo
	profiles     ProfileService
	cache        *cache.Cache
	publisher    EventPublisher
	window       time.Duration
	limit        int64
	now          func() time.Time
}

func NewNotificationService(
	cfg config.NotificationConfig,
	repo mongo.NotificationRepo,
	reactionRepo repository.ReactionRepo,
	profiles ProfileService,
	c *cache.Cache,
	publisher EventPublisher,
) NotificationService {
	window := time.Duration(cfg.WindowDays) * 24 * time.Hour
	if window <= 0 {
		window = defaultNotificationWindow
	}
	limit := int64(cfg.ListLimit)
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	return &notificationServiceImpl{
		repo:         repo,
		reactionRepo: reactionRepo,
		profiles:     profiles,
		cache:        c,
		publisher:    publisher,
		window:       window,
		limit:        limit,
		now:          time.Now,
	}
}

// Create 自己对自己的动作不产生通知；同一五元组已存在时重新置为未读并刷新时间
func (s *notificationServiceImpl) Create(ctx context.Context, in NotificationInput) error {
	if in.RecipientID == 0 || in.ActorID == 0 || !in.Type.Valid() {
		return ErrParamInvalid
	}
	if in.RecipientID == in.ActorID {
		return nil
	}

	n := &mongo.Notification{
		UserID:     in.RecipientID,
		ActorID:    in.ActorID,
		Type:       in.Type,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Metadata:   in.Metadata,
		CreatedAt:  s.now(),
	}
	created, err := s.repo.Upsert(ctx, n)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	evType := realtime.EventUpdate
	if created {
		evType = realtime.EventInsert
	}
	s.changed(ctx, in.RecipientID, evType, notificationRow(n))
	return nil
}

// FanOut 批量插入 mention 通知，不去重，跳过作者本人
func (s *notificationServiceImpl) FanOut(ctx context.Context, actorID uint64, recipients []uint64, entityType string, entityID uint64, metadata map[string]any) (int, error) {
	now := s.now()
	list := make([]*mongo.Notification, 0, len(recipients))
	for _, uid := range recipients {
		if uid == 0 || uid == actorID {
			continue
		}
		list = append(list, &mongo.Notification{
			UserID:     uid,
			ActorID:    actorID,
			Type:       mongo.TypeMention,
			EntityType: entityType,
			EntityID:   entityID,
			Metadata:   metadata,
			CreatedAt:  now,
		})
	}
	if len(list) == 0 {
		return 0, nil
	}
	if err := s.repo.InsertMany(ctx, list); err != nil {
		return 0, fmt.Errorf("fan out mentions: %w", err)
	}

	notified := make(map[uint64]struct{}, len(list))
	for _, n := range list {
		if _, ok := notified[n.UserID]; ok {
			continue
		}
		notified[n.UserID] = struct{}{}
		s.changed(ctx, n.UserID, realtime.EventInsert, notificationRow(n))
	}
	return len(list), nil
}

// Retract 删除某个五元组对应的通知，不存在时无操作
func (s *notificationServiceImpl) Retract(ctx context.Context, t mongo.Tuple) error {
	if t.UserID == t.ActorID {
		return nil
	}
	deleted, err := s.repo.DeleteTuple(ctx, t)
	if err != nil {
		return fmt.Errorf("retract notification: %w", err)
	}
	if deleted > 0 {
		s.changed(ctx, t.UserID, realtime.EventDelete, realtime.Row{
			"user_id":     u64(t.UserID),
			"actor_id":    u64(t.ActorID),
			"type":        string(t.Type),
			"entity_type": t.EntityType,
			"entity_id":   u64(t.EntityID),
		})
	}
	return nil
}

func (s *notificationServiceImpl) List(ctx context.Context) ([]*dto.NotificationDTO, error) {
	userID, err := ActorFrom(ctx)
	if err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, s.cache, cache.NotificationList(userID), s.cache.Tiers().Realtime,
		func(ctx context.Context) ([]*dto.NotificationDTO, error) {
			return s.loadList(ctx, userID)
		})
}

func (s *notificationServiceImpl) loadList(ctx context.Context, userID uint64) ([]*dto.NotificationDTO, error) {
	list, err := s.repo.ListSince(ctx, userID, s.now().Add(-s.window), s.limit)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return []*dto.NotificationDTO{}, nil
	}

	actorIDs := make([]uint64, 0, len(list))
	pairs := make(map[model.SubjectType][]repository.SubjectUser)
	for _, n := range list {
		actorIDs = append(actorIDs, n.ActorID)
		if st, ok := reactionSubject(n); ok {
			pairs[st] = append(pairs[st], repository.SubjectUser{SubjectID: n.EntityID, UserID: n.ActorID})
		}
	}

	profiles, err := s.profiles.GetProfiles(ctx, actorIDs)
	if err != nil {
		return nil, err
	}

	// 回应类通知展示触发者当前的回应，每种对象类型一次批量查询
	kinds := make(map[model.SubjectType]map[repository.SubjectUser]model.ReactionKind, len(pairs))
	for st, p := range pairs {
		m, err := s.reactionRepo.GetKinds(ctx, st, p)
		if err != nil {
			return nil, err
		}
		kinds[st] = m
	}

	out := make([]*dto.NotificationDTO, 0, len(list))
	for _, n := range list {
		item := &dto.NotificationDTO{}
		if err := copier.Copy(item, n); err != nil {
			return nil, err
		}
		item.ID = n.ID.Hex()
		item.Actor = profiles[n.ActorID]
		if st, ok := reactionSubject(n); ok {
			if kind, ok := kinds[st][repository.SubjectUser{SubjectID: n.EntityID, UserID: n.ActorID}]; ok {
				k := string(kind)
				item.ReactionKind = &k
				item.ReactionIcon = kind.Icon()
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func reactionSubject(n *mongo.Notification) (model.SubjectType, bool) {
	if n.Type != mongo.TypeReaction && n.Type != mongo.TypeLike {
		return "", false
	}
	st := model.SubjectType(n.EntityType)
	return st, st.Valid()
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context) (int64, error) {
	userID, err := ActorFrom(ctx)
	if err != nil {
		return 0, err
	}
	return cache.Fetch(ctx, s.cache, cache.NotificationUnreadCount(userID), s.cache.Tiers().Realtime,
		func(ctx context.Context) (int64, error) {
			return s.repo.UnreadCount(ctx, userID)
		})
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, id string) error {
	userID, err := ActorFrom(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, realtime.EventUpdate, realtime.Row{"id": id, "user_id": u64(userID), "is_read": "1"})
	return nil
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context) (int64, error) {
	userID, err := ActorFrom(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.changed(ctx, userID, realtime.EventUpdate, realtime.Row{"user_id": u64(userID), "is_read": "1"})
	}
	return n, nil
}

func (s *notificationServiceImpl) Delete(ctx context.Context, id string) error {
	userID, err := ActorFrom(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.changed(ctx, userID, realtime.EventDelete, realtime.Row{"id": id, "user_id": u64(userID)})
	return nil
}

func (s *notificationServiceImpl) DeleteAll(ctx context.Context) (int64, error) {
	userID, err := ActorFrom(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.changed(ctx, userID, realtime.EventDelete, realtime.Row{"user_id": u64(userID)})
	}
	return n, nil
}

// PurgeOlderThan 删除当前用户 days 天以前的通知
func (s *notificationServiceImpl) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	userID, err := ActorFrom(ctx)
	if err != nil {
		return 0, err
	}
	if days <= 0 {
		return 0, ErrParamInvalid
	}
	n, err := s.repo.PurgeOlderThan(ctx, userID, s.now().AddDate(0, 0, -days))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.changed(ctx, userID, realtime.EventDelete, realtime.Row{"user_id": u64(userID)})
	}
	return n, nil
}

// PurgeAll 定时任务使用，不区分用户；列表缓存按 realtime 层级自然过期
func (s *notificationServiceImpl) PurgeAll(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.repo.PurgeAllOlderThan(ctx, before)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.cache.Apply(ctx, cache.Invalidation{Prefixes: []string{cache.NotificationListKey, cache.NotificationUnread}})
	}
	return n, nil
}

// changed 使接收者的通知缓存失效并广播变更
func (s *notificationServiceImpl) changed(ctx context.Context, userID uint64, evType realtime.EventType, row realtime.Row) {
	s.cache.Apply(ctx, notificationInvalidation(userID))
	if s.publisher == nil {
		return
	}
	ev := realtime.ChangeEvent{
		Table:    consts.TableNotifications,
		Type:     evType,
		CommitTs: s.now(),
	}
	if evType == realtime.EventDelete {
		ev.Old = row
	} else {
		ev.New = row
	}
	delivered := s.publisher.Publish(ctx, ev)
	log.DebugContext(ctx, "notification change published", "user_id", userID, "type", evType, "listeners", delivered)
}

func notificationRow(n *mongo.Notification) realtime.Row {
	row := realtime.Row{
		"user_id":     u64(n.UserID),
		"actor_id":    u64(n.ActorID),
		"type":        string(n.Type),
		"entity_type": n.EntityType,
		"entity_id":   u64(n.EntityID),
		"is_read":     "0",
	}
	if !n.ID.IsZero() {
		row["id"] = n.ID.Hex()
	}
	return row
}

func u64(v uint64) string {
	return strconv.FormatUint(v, 10)
}
