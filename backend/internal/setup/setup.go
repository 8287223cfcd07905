package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/itchan-dev/kanaal/backend/internal/handler"
	"github.com/itchan-dev/kanaal/backend/internal/search"
	"github.com/itchan-dev/kanaal/backend/internal/service"
	"github.com/itchan-dev/kanaal/backend/internal/storage/pg"
	"github.com/itchan-dev/kanaal/backend/internal/storage/redis"
	"github.com/itchan-dev/kanaal/backend/internal/utils"
	"github.com/itchan-dev/kanaal/shared/config"
	"github.com/itchan-dev/kanaal/shared/jwt"
	"github.com/itchan-dev/kanaal/shared/logger"
	mw "github.com/itchan-dev/kanaal/shared/middleware"
)

// identityTokenTTL only bounds tokens minted locally (tests, tools). Gateway
// tokens carry their own expiry.
const identityTokenTTL = 24 * time.Hour

// Store is a primary document store together with its lifecycle.
type Store interface {
	service.Storage
	Ping(ctx context.Context) error
	Cleanup() error
}

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config         *config.Config
	Storage        Store
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
	// GatewayAuth verifies service tokens of the identity gateway, which are
	// signed with a key of their own.
	GatewayAuth    *mw.Auth
	Curation       *service.Curation
	Sweeper        *service.IntegritySweeper
}

// OpenStore connects to the store selected by storage_driver.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Public.StorageDriver {
	case "redis":
		s, err := redis.New(ctx, cfg.Private.Redis.Url)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "pg":
		s, err := pg.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Public.StorageDriver)
}

// SetupDependencies initializes all dependencies required for the application.
// ctx bounds background work (search health checks), the sweeper is started
// separately by the caller.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return Wire(ctx, cfg, storage), nil
}

// Wire builds services and handlers on top of an already opened store.
func Wire(ctx context.Context, cfg *config.Config, storage Store) *Dependencies {
	var index service.SearchIndex
	if cfg.Private.Meili.Url != "" {
		index = search.New(ctx, cfg.Private.Meili.Url, cfg.Private.Meili.ApiKey)
	} else {
		logger.Log.Info("meilisearch not configured, search scans the store", "component", "setup")
	}

	threadValidator := &utils.ThreadValidator{
		MaxTitleLength: cfg.Public.MaxTitleLength,
		MaxBodyLength:  cfg.Public.MaxBodyLength,
		MaxPollOptions: cfg.Public.MaxPollOptions,
	}
	commentValidator := &utils.CommentValidator{MaxBodyLength: cfg.Public.MaxBodyLength}

	cascade := service.NewCascade(storage, index)
	sweeper := service.NewIntegritySweeper(storage)
	ordering := service.NewOrdering(storage)

	users := service.NewUser(storage, cascade)
	threads := service.NewThread(storage, threadValidator, cascade, index, cfg.Public.ThreadsPerPage)
	curation := service.NewCuration(storage, sweeper, cfg.Public.SectionRules, cfg.Public.DefaultChannelVisible)

	h := handler.New(handler.Services{
		Users:    users,
		Threads:  threads,
		Polls:    service.NewPoll(storage),
		Comments: service.NewComment(storage, commentValidator),
		Channels: service.NewChannel(storage, utils.NameValidator{}),
		Sections: service.NewSection(storage, ordering, utils.NameValidator{}),
		Ordering: ordering,
		Curation: curation,
		Sweeps:   sweeper,
		Search:   service.NewSearch(index, storage, cfg.Public.SearchPageSize),
		Health:   storage,
	})


	return &Dependencies{
		Config:         cfg,
		Storage:        storage,
		Handler:        h,
		AuthMiddleware: mw.NewAuth(jwt.New(cfg.Private.IdentityKey, identityTokenTTL), users),
		GatewayAuth:    mw.NewAuth(jwt.New(cfg.Private.GatewayKey, identityTokenTTL), users),
		Curation:       curation,
		Sweeper:        sweeper,
	}
}
