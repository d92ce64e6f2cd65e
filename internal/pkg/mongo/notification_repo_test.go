package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeUpdater 按顺序返回预设结果，doc 为 nil 时回显本次 $setOnInsert 的 _id 模拟插入
type fakeUpdater struct {
	results []fakeResult
	filters []bson.M
	updates []bson.M
	opts    []*options.FindOneAndUpdateOptions
}

type fakeResult struct {
	doc *Notification
	err error
}

func (f *fakeUpdater) FindOneAndUpdate(_ context.Context, filter interface{}, update interface{},
	opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult {
	f.filters = append(f.filters, filter.(bson.M))
	u := update.(bson.M)
	f.updates = append(f.updates, u)
	f.opts = append(f.opts, opts...)

	r := f.results[0]
	f.results = f.results[1:]
	if r.err != nil {
		return mongo.NewSingleResultFromDocument(bson.M{}, r.err, nil)
	}
	doc := r.doc
	if doc == nil {
		set := u["$set"].(bson.M)
		doc = &Notification{
			ID:        u["$setOnInsert"].(bson.M)["_id"].(primitive.ObjectID),
			IsRead:    false,
			Dedup:     true,
			CreatedAt: set["created_at"].(time.Time),
		}
	}
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func TestUpsertFilterAndUpdate(t *testing.T) {
	n := &Notification{UserID: 2, ActorID: 1, Type: TypeFollow, EntityType: "user", EntityID: 1, Metadata: map[string]any{"k": "v"}}
	id := primitive.NewObjectID()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.M{
		"user_id":     uint64(2),
		"actor_id":    uint64(1),
		"type":        TypeFollow,
		"entity_type": "user",
		"entity_id":   uint64(1),
		"dedup":       true,
	}, upsertFilter(n.Tuple()))

	assert.Equal(t, bson.M{
		"$set":         bson.M{"is_read": false, "created_at": now, "metadata": map[string]any{"k": "v"}},
		"$setOnInsert": bson.M{"_id": id},
	}, upsertUpdate(n, id, now))

	n.Metadata = nil
	assert.NotContains(t, upsertUpdate(n, id, now)["$set"], "metadata")
}

func TestUpsertNotification(t *testing.T) {
	existing := primitive.NewObjectID()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dup := mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}
	boom := errors.New("socket closed")

	tests := []struct {
		name        string
		results     []fakeResult
		wantCreated bool
		wantCalls   int
		wantErr     error
		wantID      primitive.ObjectID
	}{
		{
			name:        "insert",
			results:     []fakeResult{{}},
			wantCreated: true,
			wantCalls:   1,
		},
		{
			name:      "resurface",
			results:   []fakeResult{{doc: &Notification{ID: existing, Dedup: true, CreatedAt: now}}},
			wantCalls: 1,
			wantID:    existing,
		},
		{
			name: "duplicate key retries as update",
			results: []fakeResult{
				{err: dup},
				{doc: &Notification{ID: existing, Dedup: true, CreatedAt: now}},
			},
			wantCalls: 2,
			wantID:    existing,
		},
		{
			name:      "other errors are not retried",
			results:   []fakeResult{{err: boom}},
			wantCalls: 1,
			wantErr:   boom,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := &fakeUpdater{results: tt.results}
			n := &Notification{UserID: 2, ActorID: 1, Type: TypeFollow, EntityType: "user", EntityID: 1, IsRead: true, CreatedAt: now}

			created, err := upsertNotification(context.Background(), col, n)
			assert.Len(t, col.updates, tt.wantCalls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, created)
			assert.False(t, n.ID.IsZero())
			assert.False(t, n.IsRead)
			if !tt.wantID.IsZero() {
				assert.Equal(t, tt.wantID, n.ID)
			} else {
				assert.Equal(t, col.updates[0]["$setOnInsert"].(bson.M)["_id"], n.ID)
			}

			// 重试沿用同一过滤条件和更新文档
			for i := 1; i < len(col.updates); i++ {
				assert.Equal(t, col.filters[0], col.filters[i])
				assert.Equal(t, col.updates[0], col.updates[i])
			}
			require.NotEmpty(t, col.opts)
			assert.True(t, *col.opts[0].Upsert)
			assert.Equal(t, options.After, *col.opts[0].ReturnDocument)
		})
	}
}
