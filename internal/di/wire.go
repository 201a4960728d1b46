//go:build wireinject
// +build wireinject

package di

import (
	"clipshare/internal/config"
	"clipshare/internal/gallery"
	"clipshare/internal/platform"

	"github.com/google/wire"
	"go.uber.org/zap"
)

var storageSet = wire.NewSet(
	ProvideDatabase,
	ProvideBlobs,
	ProvidePublisher,
	ProvideNotificationService,
	ProvidePlatform,
	wire.Bind(new(gallery.Backend), new(*platform.Platform)),
	ProvideTokens,
)

// This is just a declaration; wire generates the real body
func InitializeAPI(cfg *config.Config, log *zap.Logger) (*APIApp, func(), error) {
	wire.Build(
		storageSet,
		ProvideLoader,
		ProvideReconciler,
		ProvideUserHandler,
		ProvideItemHandler,
		ProvideNotificationHandler,
		ProvideRouter,
		wire.Struct(new(APIApp), "*"),
	)
	return nil, nil, nil
}

func InitializeRPC(cfg *config.Config, log *zap.Logger) (*RPCApp, func(), error) {
	wire.Build(
		storageSet,
		ProvideRPCServer,
		wire.Struct(new(RPCApp), "*"),
	)
	return nil, nil, nil
}

func InitializeMedia(cfg *config.Config, log *zap.Logger) (*MediaApp, func(), error) {
	wire.Build(
		ProvideMongo,
		ProvideMediaServer,
		wire.Struct(new(MediaApp), "*"),
	)
	return nil, nil, nil
}
