package service

import (
	"context"
	"sync"

	"github.com/ruslan-ilesik/games-bot-sub000/pkg/api"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/config"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/configcenter"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/database"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/util/logutil"
	"go.uber.org/zap"
)

// Service owns the config center, the database pool and the admin API of
// one process.
type Service struct {
	cfg         *config.Server
	poolOptions []database.Option

	configCenter configcenter.ConfigCenter
	pool         *database.Pool
	apiServer    *api.HttpApiServer

	closeCh   chan struct{}
	closeOnce sync.Once
}

func NewService(cfg *config.Server, opts ...database.Option) *Service {
	return &Service{
		cfg:         cfg,
		poolOptions: opts,
		closeCh:     make(chan struct{}),
	}
}

func (s *Service) Init() error {
	cc, err := configcenter.CreateConfigCenter(s.cfg.ConfigCenter)
	if err != nil {
		return err
	}
	s.configCenter = cc

	pool := database.NewPool(cc, logutil.BgLogger().Named("database"), s.poolOptions...)
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Database.StartTimeout())
	defer cancel()
	if err := pool.Run(ctx); err != nil {
		return err
	}
	s.pool = pool

	if s.cfg.AdminServer.Addr == "" {
		return nil
	}
	apiServer, err := api.CreateHttpApiServer(pool, s.cfg)
	if err != nil {
		return err
	}
	s.apiServer = apiServer
	return nil
}

// Database returns the pool for the components of the bot.
func (s *Service) Database() database.Database {
	return s.pool
}

// Run blocks until Close is called or the admin API fails.
func (s *Service) Run() error {
	if s.apiServer == nil {
		<-s.closeCh
		return nil
	}
	return s.apiServer.Run()
}

// Close drains the pool and releases every resource. It is safe to call
// on a partially initialized service.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		if s.apiServer != nil {
			s.apiServer.Close()
		}
		if s.pool != nil {
			if err := s.pool.Stop(); err != nil {
				logutil.BgLogger().Error("stop database pool error", zap.Error(err))
			}
		}
		if s.configCenter != nil {
			s.configCenter.Close()
		}
		close(s.closeCh)
	})
}
