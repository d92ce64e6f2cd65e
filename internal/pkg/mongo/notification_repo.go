package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepo interface {
	Upsert(ctx context.Context, n *Notification) (created bool, err error)
	InsertMany(ctx context.Context, list []*Notification) error
	ListSince(ctx context.Context, userID uint64, since time.Time, limit int64) ([]*Notification, error)
	MarkRead(ctx context.Context, userID uint64, id string) error
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
	Delete(ctx context.Context, userID uint64, id string) error
	DeleteAll(ctx context.Context, userID uint64) (int64, error)
	DeleteTuple(ctx context.Context, t Tuple) (int64, error)
	PurgeOlderThan(ctx context.Context, userID uint64, before time.Time) (int64, error)
	PurgeAllOlderThan(ctx context.Context, before time.Time) (int64, error)
	UnreadCount(ctx context.Context, userID uint64) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type notificationRepoImpl struct {
	col *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) NotificationRepo {
	return &notificationRepoImpl{
		col: db.Collection("notifications"),
	}
}

func tupleFilter(t Tuple) bson.M {
	return bson.M{
		"user_id":     t.UserID,
		"actor_id":    t.ActorID,
		"type":        t.Type,
		"entity_type": t.EntityType,
		"entity_id":   t.EntityID,
	}
}

// EnsureIndexes 去重通知上的唯一索引保证并发 Upsert 不会插入两条
func (s *notificationRepoImpl) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "actor_id", Value: 1},
				{Key: "type", Value: 1},
				{Key: "entity_type", Value: 1},
				{Key: "entity_id", Value: 1},
			},
			Options: options.Index().
				SetName("uniq_tuple").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"dedup": true}),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_user_created"),
		},
	})
	return err
}

// Upsert 不存在则插入，存在则置为未读并刷新时间；两种情况下 n 都回填为库中的文档
func (s *notificationRepoImpl) Upsert(ctx context.Context, n *Notification) (bool, error) {
	return upsertNotification(ctx, s.col, n)
}

type findOneAndUpdater interface {
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{},
		opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
}

// upsertFilter 只匹配去重通知，与唯一索引的 partial 条件一致
func upsertFilter(t Tuple) bson.M {
	filter := tupleFilter(t)
	filter["dedup"] = true
	return filter
}

func upsertUpdate(n *Notification, id primitive.ObjectID, now time.Time) bson.M {
	set := bson.M{"is_read": false, "created_at": now}
	if n.Metadata != nil {
		set["metadata"] = n.Metadata
	}
	return bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": id},
	}
}

func upsertNotification(ctx context.Context, col findOneAndUpdater, n *Notification) (bool, error) {
	now := n.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	id := primitive.NewObjectID()
	filter := upsertFilter(n.Tuple())
	update := upsertUpdate(n, id, now)
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc Notification
	err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// 并发插入落败，另一方已经插入，再执行一次即走更新分支
		err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		return false, err
	}
	*n = doc
	// 返回的 _id 是本次 $setOnInsert 生成的即为新插入
	return doc.ID == id, nil
}

func (s *notificationRepoImpl) InsertMany(ctx context.Context, list []*Notification) error {
	if len(list) == 0 {
		return nil
	}
	docs := make([]interface{}, len(list))
	for i, n := range list {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		docs[i] = n
	}
	_, err := s.col.InsertMany(ctx, docs)
	return err
}

// ListSince 按时间倒序
func (s *notificationRepoImpl) ListSince(ctx context.Context, userID uint64, since time.Time, limit int64) ([]*Notification, error) {
	filter := bson.M{"user_id": userID, "created_at": bson.M{"$gte": since}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*Notification, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *notificationRepoImpl) byID(userID uint64, id string) (bson.M, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotificationNotFound
	}
	return bson.M{"_id": objectID, "user_id": userID}, nil
}

func (s *notificationRepoImpl) MarkRead(ctx context.Context, userID uint64, id string) error {
	filter, err := s.byID(userID, id)
	if err != nil {
		return err
	}
	res, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationRepoImpl) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *notificationRepoImpl) Delete(ctx context.Context, userID uint64, id string) error {
	filter, err := s.byID(userID, id)
	if err != nil {
		return err
	}
	res, err := s.col.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationRepoImpl) DeleteAll(ctx context.Context, userID uint64) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *notificationRepoImpl) DeleteTuple(ctx context.Context, t Tuple) (int64, error) {
	res, err := s.col.DeleteMany(ctx, tupleFilter(t))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *notificationRepoImpl) PurgeOlderThan(ctx context.Context, userID uint64, before time.Time) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"user_id": userID, "created_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *notificationRepoImpl) PurgeAllOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *notificationRepoImpl) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
}
