package di

import (
	"context"
	"net/http"
	"time"

	"clipshare/internal/api"
	"clipshare/internal/common"
	"clipshare/internal/config"
	"clipshare/internal/dbmongo"
	"clipshare/internal/dbmysql"
	"clipshare/internal/gallery"
	"clipshare/internal/media"
	"clipshare/internal/notif"
	"clipshare/internal/platform"
	"clipshare/internal/rpc"
	"clipshare/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"gorm.io/gorm"
)

// APIApp is the HTTP API with an in-process platform.
type APIApp struct {
	Config        *config.Config
	Handler       http.Handler
	Notifications *notif.NotificationService
}

// RPCApp serves the platform service over gRPC.
type RPCApp struct {
	Config *config.Config
	Server *grpc.Server
}

type MediaApp struct {
	Config *config.Config
	Server *media.HTTPServer
}

func ProvideDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, func(), error) {
	db, err := dbmysql.Open(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

// ProvideMongo connects to GridFS. The media server cannot run without it.
func ProvideMongo(cfg *config.Config, log *zap.Logger) (*dbmongo.MongoClient, func(), error) {
	mc, err := dbmongo.NewMongoConnection(context.Background(), cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Connected to MongoDB", zap.String("database", cfg.MongoDB.Database))
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mc.Close(ctx)
	}
	return mc, cleanup, nil
}

// ProvideBlobs connects to GridFS for uploads. Without MongoDB the API still
// serves reads and toggles; uploads fail with a remote mutation error.
func ProvideBlobs(cfg *config.Config, log *zap.Logger) (platform.Blobs, func()) {
	mc, cleanup, err := ProvideMongo(cfg, log)
	if err != nil {
		log.Warn("MongoDB unavailable, uploads disabled", zap.Error(err))
		return nil, func() {}
	}
	return dbmongo.NewMediaStorage(mc), cleanup
}

// ProvidePublisher returns nil when realtime fan-out is disabled.
func ProvidePublisher(cfg *config.Config, log *zap.Logger) (notif.Publisher, func()) {
	if !cfg.Redis.Enabled {
		log.Info("Redis disabled, realtime notifications off")
		return nil, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis ping failed, realtime notifications off", zap.Error(err))
		_ = client.Close()
		return nil, func() {}
	}
	return client, func() { _ = client.Close() }
}

func ProvideNotificationService(cfg *config.Config, db *gorm.DB, publisher notif.Publisher, log *zap.Logger) (*notif.NotificationService, func()) {
	svc := notif.NewNotificationService(cfg, dbmysql.NewNotificationRepository(db), publisher, log.Named("notif"))
	return svc, svc.Shutdown
}

func ProvidePlatform(cfg *config.Config, db *gorm.DB, blobs platform.Blobs, notes *notif.NotificationService, log *zap.Logger) *platform.Platform {
	return platform.New(db, blobs, notes, cfg, log.Named("platform"))
}

func ProvideTokens(cfg *config.Config) *common.TokenManager {
	return common.NewTokenManager(cfg.Auth)
}

func ProvideReconciler(cfg *config.Config, backend gallery.Backend, log *zap.Logger) *gallery.Reconciler {
	return gallery.NewReconciler(backend, gallery.NewKeyedQueue(), gallery.PolicyFromConfig(cfg.Reconciler), log.Named("reconciler"))
}

func ProvideLoader(backend gallery.Backend, log *zap.Logger) *gallery.Loader {
	return gallery.NewLoader(backend, log.Named("loader"))
}

func ProvideUserHandler(db *gorm.DB, tokens *common.TokenManager, log *zap.Logger) *user.Handler {
	svc := user.NewUserService(dbmysql.NewProfileRepository(db), dbmysql.NewItemRepository(db), tokens, log.Named("user"))
	return user.NewHandler(svc)
}

func ProvideItemHandler(cfg *config.Config, p *platform.Platform, loader *gallery.Loader, rec *gallery.Reconciler, log *zap.Logger) *api.ItemHandler {
	return api.NewItemHandler(p, loader, rec, cfg.Upload.MaxBytes, log.Named("items"))
}

func ProvideNotificationHandler(svc *notif.NotificationService, log *zap.Logger) *notif.NotificationHandler {
	return notif.NewNotificationHandler(svc, log.Named("notif"))
}

func ProvideRouter(tokens *common.TokenManager, users *user.Handler, items *api.ItemHandler, notes *notif.NotificationHandler, log *zap.Logger) http.Handler {
	return api.NewRouter(tokens, log.Named("http"), users, items, notes)
}

func ProvideRPCServer(backend gallery.Backend, tokens *common.TokenManager, log *zap.Logger) *grpc.Server {
	return rpc.NewServer(rpc.NewService(backend, log.Named("rpc")), tokens, log.Named("rpc"))
}

func ProvideMediaServer(mc *dbmongo.MongoClient, log *zap.Logger) *media.HTTPServer {
	return media.NewHTTPServer(dbmongo.NewMediaStorage(mc), log.Named("media"))
}
