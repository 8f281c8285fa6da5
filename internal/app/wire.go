//go:build wireinject
// +build wireinject

package app

import (
	"log/slog"

	"github.com/google/wire"

	"github.com/bloggerhub/device-session-service/internal/config"
	"github.com/bloggerhub/device-session-service/internal/http/handler"
	"github.com/bloggerhub/device-session-service/internal/observability"
	"github.com/bloggerhub/device-session-service/internal/repository"
	"github.com/bloggerhub/device-session-service/internal/service"
)

func InitializeApp(cfg *config.Config, logger *slog.Logger, runtime *observability.Runtime) (*App, error) {
	wire.Build(
		provideDatabase,
		provideRedisClient,
		provideTokenCodec,
		provideCookieConfig,
		repository.NewSessionRepository,
		repository.NewUserRepository,
		provideSessionManager,
		service.NewCredentialVerifier,
		provideAuthHandler,
		handler.NewSecurityHandler,
		provideRouter,
		provideServer,
		New,
	)
	return nil, nil
}
