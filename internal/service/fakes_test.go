package service

import (
	"Murmur/internal/api/config"
	"Murmur/internal/model"
	"Murmur/internal/pkg/cache"
	"Murmur/internal/pkg/mongo"
	"Murmur/internal/pkg/realtime"
	"Murmur/internal/pkg/rpc"
	"Murmur/internal/repository"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reactionKey struct {
	st  model.SubjectType
	id  uint64
	uid uint64
}

type fakeReactionRepo struct {
	mu    sync.Mutex
	rows  map[reactionKey]model.ReactionKind
	calls int
}

func newFakeReactionRepo() *fakeReactionRepo {
	return &fakeReactionRepo{rows: make(map[reactionKey]model.ReactionKind)}
}

func (f *fakeReactionRepo) GetReaction(_ context.Context, st model.SubjectType, id, uid uint64) (*model.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	kind, ok := f.rows[reactionKey{st, id, uid}]
	if !ok {
		return nil, nil
	}
	return &model.Reaction{SubjectType: st, SubjectID: id, UserID: uid, Kind: kind}, nil
}

func (f *fakeReactionRepo) UpsertReaction(_ context.Context, r *model.Reaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.rows[reactionKey{r.SubjectType, r.SubjectID, r.UserID}] = r.Kind
	return nil
}

func (f *fakeReactionRepo) DeleteReaction(_ context.Context, st model.SubjectType, id, uid uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	k := reactionKey{st, id, uid}
	if _, ok := f.rows[k]; !ok {
		return 0, nil
	}
	delete(f.rows, k)
	return 1, nil
}

func (f *fakeReactionRepo) CountByKind(_ context.Context, st model.SubjectType, ids []uint64) ([]*model.ReactionCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	want := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	counts := make(map[[2]any]int)
	for k, kind := range f.rows {
		if k.st == st && want[k.id] {
			counts[[2]any{k.id, kind}]++
		}
	}
	out := make([]*model.ReactionCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, &model.ReactionCount{SubjectID: k[0].(uint64), Kind: k[1].(model.ReactionKind), Count: n})
	}
	return out, nil
}

func (f *fakeReactionRepo) GetKinds(_ context.Context, st model.SubjectType, pairs []repository.SubjectUser) (map[repository.SubjectUser]model.ReactionKind, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make(map[repository.SubjectUser]model.ReactionKind)
	for _, p := range pairs {
		if kind, ok := f.rows[reactionKey{st, p.SubjectID, p.UserID}]; ok {
			out[p] = kind
		}
	}
	return out, nil
}

func (f *fakeReactionRepo) count(st model.SubjectType, id uint64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.rows {
		if k.st == st && k.id == id {
			n++
		}
	}
	return n
}

type fakePostRepo struct {
	posts map[uint64]*model.Post
}

func (f *fakePostRepo) GetPost(_ context.Context, id uint64) (*model.Post, error) {
	return f.posts[id], nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []*model.Comment
	nextID   uint64
}

func (f *fakeCommentRepo) GetComment(_ context.Context, id uint64) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.comments {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCommentRepo) ListByPost(_ context.Context, postID uint64) ([]*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Comment, 0)
	for _, c := range f.comments {
		if c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeCommentRepo) CountByPost(ctx context.Context, postID uint64) (int64, error) {
	list, _ := f.ListByPost(ctx, postID)
	return int64(len(list)), nil
}

func (f *fakeCommentRepo) CreateComment(_ context.Context, c *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = 100 + f.nextID
	c.CreatedAt = time.Now()
	cp := *c
	f.comments = append(f.comments, &cp)
	return nil
}

type followEdge struct{ follower, following uint64 }

type fakeFollowRepo struct {
	mu    sync.Mutex
	edges map[followEdge]struct{}
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{edges: make(map[followEdge]struct{})}
}

func (f *fakeFollowRepo) IsFollowing(_ context.Context, follower, following uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.edges[followEdge{follower, following}]
	return ok, nil
}

func (f *fakeFollowRepo) CreateUserFollow(_ context.Context, uf *model.UserFollow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edges[followEdge{uf.FollowerID, uf.FollowingID}] = struct{}{}
	return nil
}

func (f *fakeFollowRepo) DeleteUserFollow(_ context.Context, follower, following uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := followEdge{follower, following}
	if _, ok := f.edges[k]; !ok {
		return 0, nil
	}
	delete(f.edges, k)
	return 1, nil
}

func (f *fakeFollowRepo) GetUserFollowerCount(_ context.Context, uid uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for e := range f.edges {
		if e.following == uid {
			n++
		}
	}
	return n, nil
}

func (f *fakeFollowRepo) GetUserFollowingCount(_ context.Context, uid uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for e := range f.edges {
		if e.follower == uid {
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	users       map[uint64]string
	lookupCalls int
}

func (f *fakeUserRepo) GetProfiles(_ context.Context, ids []uint64) ([]*model.Profile, error) {
	out := make([]*model.Profile, 0, len(ids))
	for _, id := range ids {
		if name, ok := f.users[id]; ok {
			out = append(out, &model.Profile{UserID: id, Username: name, Nickname: name})
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetIDsByUsernames(_ context.Context, names []string) (map[string]uint64, error) {
	f.lookupCalls++
	out := make(map[string]uint64)
	for id, name := range f.users {
		for _, n := range names {
			if n == name {
				out[name] = id
			}
		}
	}
	return out, nil
}

type fakeMovieRepo struct {
	movies  map[uint64]*model.Movie
	ratings map[[2]uint64]*model.MovieRating
}

func (f *fakeMovieRepo) GetMovie(_ context.Context, id uint64) (*model.Movie, error) {
	return f.movies[id], nil
}

func (f *fakeMovieRepo) GetRating(_ context.Context, movieID, userID uint64) (*model.MovieRating, error) {
	return f.ratings[[2]uint64{movieID, userID}], nil
}

func (f *fakeMovieRepo) GetRatingAggregate(_ context.Context, movieID uint64) (*model.RatingAggregate, error) {
	agg := &model.RatingAggregate{}
	var sum float64
	for k, r := range f.ratings {
		if k[0] == movieID {
			agg.Count++
			sum += float64(r.Score)
		}
	}
	if agg.Count > 0 {
		agg.Average = sum / float64(agg.Count)
	}
	return agg, nil
}

func (f *fakeMovieRepo) DeleteRating(_ context.Context, movieID, userID uint64) (int64, error) {
	k := [2]uint64{movieID, userID}
	if _, ok := f.ratings[k]; !ok {
		return 0, nil
	}
	delete(f.ratings, k)
	return 1, nil
}

// fakeNotificationRepo 按五元组去重，mention 不去重
type fakeNotificationRepo struct {
	mu   sync.Mutex
	docs []*mongo.Notification
}

func (f *fakeNotificationRepo) find(t mongo.Tuple) *mongo.Notification {
	for _, n := range f.docs {
		if n.Dedup && n.Tuple() == t {
			return n
		}
	}
	return nil
}

func (f *fakeNotificationRepo) Upsert(_ context.Context, n *mongo.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing := f.find(n.Tuple()); existing != nil {
		existing.IsRead = false
		existing.CreatedAt = n.CreatedAt
		n.ID = existing.ID
		return false, nil
	}
	cp := *n
	cp.ID = primitive.NewObjectID()
	cp.Dedup = true
	f.docs = append(f.docs, &cp)
	n.ID = cp.ID
	return true, nil
}

func (f *fakeNotificationRepo) InsertMany(_ context.Context, list []*mongo.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range list {
		cp := *n
		cp.ID = primitive.NewObjectID()
		f.docs = append(f.docs, &cp)
	}
	return nil
}

func (f *fakeNotificationRepo) ListSince(_ context.Context, uid uint64, since time.Time, limit int64) ([]*mongo.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*mongo.Notification, 0)
	for _, n := range f.docs {
		if n.UserID == uid && !n.CreatedAt.Before(since) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotificationRepo) byID(uid uint64, id string) *mongo.Notification {
	for _, n := range f.docs {
		if n.UserID == uid && n.ID.Hex() == id {
			return n
		}
	}
	return nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, uid uint64, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.byID(uid, id)
	if n == nil {
		return mongo.ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, uid uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c int64
	for _, n := range f.docs {
		if n.UserID == uid && !n.IsRead {
			n.IsRead = true
			c++
		}
	}
	return c, nil
}

func (f *fakeNotificationRepo) deleteWhere(match func(*mongo.Notification) bool) int64 {
	kept := f.docs[:0]
	var c int64
	for _, n := range f.docs {
		if match(n) {
			c++
			continue
		}
		kept = append(kept, n)
	}
	f.docs = kept
	return c
}

func (f *fakeNotificationRepo) Delete(_ context.Context, uid uint64, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteWhere(func(n *mongo.Notification) bool { return n.UserID == uid && n.ID.Hex() == id }) == 0 {
		return mongo.ErrNotificationNotFound
	}
	return nil
}

func (f *fakeNotificationRepo) DeleteAll(_ context.Context, uid uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteWhere(func(n *mongo.Notification) bool { return n.UserID == uid }), nil
}

func (f *fakeNotificationRepo) DeleteTuple(_ context.Context, t mongo.Tuple) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteWhere(func(n *mongo.Notification) bool { return n.Tuple() == t }), nil
}

func (f *fakeNotificationRepo) PurgeOlderThan(_ context.Context, uid uint64, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteWhere(func(n *mongo.Notification) bool { return n.UserID == uid && n.CreatedAt.Before(before) }), nil
}

func (f *fakeNotificationRepo) PurgeAllOlderThan(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteWhere(func(n *mongo.Notification) bool { return n.CreatedAt.Before(before) }), nil
}

func (f *fakeNotificationRepo) UnreadCount(_ context.Context, uid uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c int64
	for _, n := range f.docs {
		if n.UserID == uid && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (f *fakeNotificationRepo) EnsureIndexes(context.Context) error { return nil }

func (f *fakeNotificationRepo) of(uid uint64, typ mongo.NotificationType) []*mongo.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*mongo.Notification
	for _, n := range f.docs {
		if n.UserID == uid && n.Type == typ {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out
}

type rpcCall struct {
	fn   string
	args any
}

type fakeCaller struct {
	calls  []rpcCall
	reject string
	err    error
}

func (f *fakeCaller) Call(_ context.Context, fn string, args any) (*rpc.Envelope, error) {
	f.calls = append(f.calls, rpcCall{fn, args})
	if f.err != nil {
		return nil, f.err
	}
	if f.reject != "" {
		return &rpc.Envelope{Message: f.reject}, &rpc.RejectedError{Fn: fn, Message: f.reject}
	}
	return &rpc.Envelope{Success: true}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.ChangeEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev realtime.ChangeEvent) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return 1
}

// testEnv 用内存实现拼装全部服务
type testEnv struct {
	cache     *cache.Cache
	reactions *fakeReactionRepo
	posts     *fakePostRepo
	comments  *fakeCommentRepo
	follows   *fakeFollowRepo
	users     *fakeUserRepo
	movies    *fakeMovieRepo
	notifs    *fakeNotificationRepo
	caller    *fakeCaller
	publisher *recordingPublisher

	notificationSvc NotificationService
	reactionSvc     ReactionService
	commentSvc      CommentService
	followSvc       FollowService
	mentionSvc      MentionService
	ratingSvc       RatingService
}

const (
	userA uint64 = 1
	userB uint64 = 2
	userC uint64 = 3
	postB uint64 = 10 // B 的帖子
	movie uint64 = 20 // B 的电影
)

func newTestEnv() *testEnv {
	e := &testEnv{
		cache:     cache.New(cache.NewMemoryStore(), cache.DefaultTiers()),
		reactions: newFakeReactionRepo(),
		posts:     &fakePostRepo{posts: map[uint64]*model.Post{postB: {ID: postB, UserID: userB, Title: "hello"}}},
		comments:  &fakeCommentRepo{},
		follows:   newFakeFollowRepo(),
		users:     &fakeUserRepo{users: map[uint64]string{userA: "alice", userB: "bob", userC: "carol"}},
		movies: &fakeMovieRepo{
			movies:  map[uint64]*model.Movie{movie: {ID: movie, UserID: userB, Title: "Heat"}},
			ratings: map[[2]uint64]*model.MovieRating{},
		},
		notifs:    &fakeNotificationRepo{},
		caller:    &fakeCaller{},
		publisher: &recordingPublisher{},
	}
	profiles := NewProfileService(e.users, e.cache)
	e.notificationSvc = NewNotificationService(configForTest(), e.notifs, e.reactions, profiles, e.cache, e.publisher)
	e.mentionSvc = NewMentionService(e.users, e.notificationSvc)
	e.reactionSvc = NewReactionService(e.reactions, e.posts, e.comments, e.notificationSvc, e.cache)
	e.commentSvc = NewCommentService(e.comments, e.posts, profiles, e.notificationSvc, e.mentionSvc, e.caller, e.cache)
	e.followSvc = NewFollowService(e.follows, e.notificationSvc, e.cache)
	e.ratingSvc = NewRatingService(e.movies, e.notificationSvc, e.caller, e.cache)
	return e
}

func as(uid uint64) context.Context {
	return WithActor(context.Background(), uid)
}

func kindPtr(k model.ReactionKind) *model.ReactionKind {
	return &k
}

func configForTest() config.NotificationConfig {
	return config.NotificationConfig{WindowDays: 7, ListLimit: 50}
}
