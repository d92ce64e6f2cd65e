package wire

import (
	"Murmur/internal/api"
	"Murmur/internal/api/config"
	"Murmur/internal/api/handler"
	"Murmur/internal/job"
	"Murmur/internal/pkg/cache"
	"Murmur/internal/pkg/consts"
	"Murmur/internal/pkg/cron"
	"Murmur/internal/pkg/kafka"
	"Murmur/internal/pkg/mongo"
	"Murmur/internal/pkg/realtime"
	"Murmur/internal/pkg/rpc"
	"Murmur/internal/pkg/security"
	"Murmur/internal/repository"
	"Murmur/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router           *gin.Engine
	DB               *gorm.DB
	KafkaManager     *kafka.ConsumerManager
	CronMgr          *cron.Manager
	FeedSync         *service.FeedSync
	Realtime         *realtime.Manager
	NotificationRepo mongo.NotificationRepo
}

// newCache rdb 为 nil 时只能使用内存驱动
func newCache(cfg config.CacheConfig, rdb redis.UniversalClient) *cache.Cache {
	var store cache.Store
	if cfg.Driver == "redis" && rdb != nil {
		store = cache.NewRedisStore(rdb)
	} else {
		store = cache.NewMemoryStore()
	}
	return cache.New(store, cache.NewTiers(cfg))
}

func BuildApplication(db *gorm.DB, rdb redis.UniversalClient, mongoDB *mongodrv.Database, cfg *config.Config) (*ApplicationContainer, error) {
	c := newCache(cfg.Cache, rdb)

	hub := realtime.NewHub()
	rtManager := realtime.NewManager(hub)

	userRepo := repository.NewUserRepo(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepo(db)
	reactionRepo := repository.NewReactionRepo(db)
	userFollowRepo := repository.NewUserFollowRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	notificationRepo := mongo.NewNotificationRepo(mongoDB)

	rpcClient := rpc.NewClient(cfg.Backend)
	tokenManager := security.NewTokenManager(cfg.JWT)

	profileService := service.NewProfileService(userRepo, c)
	notificationService := service.NewNotificationService(cfg.Notification, notificationRepo, reactionRepo, profileService, c, hub)
	mentionService := service.NewMentionService(userRepo, notificationService)
	reactionService := service.NewReactionService(reactionRepo, postRepo, commentRepo, notificationService, c)
	commentService := service.NewCommentService(commentRepo, postRepo, profileService, notificationService, mentionService, rpcClient, c)
	followService := service.NewFollowService(userFollowRepo, notificationService, c)
	ratingService := service.NewRatingService(movieRepo, notificationService, rpcClient, c)

	handlers := &api.HandlersGroup{
		TokenManager:        tokenManager,
		ReactionHandler:     handler.NewReactionHandler(reactionService),
		CommentHandler:      handler.NewCommentHandler(commentService),
		FollowHandler:       handler.NewFollowHandler(followService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		RatingHandler:       handler.NewRatingHandler(ratingService),
		WSHandler:           handler.NewWsHandler(rtManager),
	}

	router := api.SetupRouter(handlers, cfg.Logstash)

	// notifications 在 Mongo 中，由通知服务直接发布，不走 binlog
	var kafkaMgr *kafka.ConsumerManager
	if cfg.ChangeFeed.Enabled {
		var err error
		kafkaMgr, err = kafka.NewConsumerManager(cfg, hub,
			consts.TableReactions,
			consts.TableComments,
			consts.TableUserFollows,
			consts.TableMovieRatings,
		)
		if err != nil {
			return nil, err
		}
	}

	purgeJob := job.NewNotificationPurgeJob(notificationService, cfg.Notification.RetentionDays)
	cronMgr := cron.NewCronManager(cfg.Notification.PurgeSpec, purgeJob)

	return &ApplicationContainer{
		Router:           router,
		DB:               db,
		KafkaManager:     kafkaMgr,
		CronMgr:          cronMgr,
		FeedSync:         service.NewFeedSync(rtManager, c),
		Realtime:         rtManager,
		NotificationRepo: notificationRepo,
	}, nil
}
