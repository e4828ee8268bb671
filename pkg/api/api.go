package api

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/config"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/database"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/metrics"
	"github.com/ruslan-ilesik/games-bot-sub000/pkg/util/logutil"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

const defaultHealthTimeout = 5 * time.Second

// Pool is the part of the database pool the admin API inspects.
type Pool interface {
	Execute(ctx context.Context, sql string) *database.Task[database.Rows]
	Stats() database.PoolStats
}

type HttpApiServer struct {
	cfg      *config.Server
	pool     Pool
	listener net.Listener
	closeCh  chan struct{}

	engine *gin.Engine
}

type DatabaseHttpHandler struct {
	pool          Pool
	healthQuery   string
	healthTimeout time.Duration
}

type CommonJsonResp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func NewDatabaseHttpHandler(pool Pool, healthQuery string) *DatabaseHttpHandler {
	return &DatabaseHttpHandler{
		pool:          pool,
		healthQuery:   healthQuery,
		healthTimeout: defaultHealthTimeout,
	}
}

func CreateHttpApiServer(pool Pool, cfg *config.Server) (*HttpApiServer, error) {
	listener, err := net.Listen("tcp", cfg.AdminServer.Addr)
	if err != nil {
		return nil, err
	}
	if cfg.AdminServer.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.AdminServer.MaxConnections)
	}

	return &HttpApiServer{
		cfg:      cfg,
		pool:     pool,
		listener: listener,
		closeCh:  make(chan struct{}),
		engine:   newEngine(pool, cfg),
	}, nil
}

func newEngine(pool Pool, cfg *config.Server) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestMetrics())

	databaseRouteGroup := engine.Group("/admin/database")
	wrapBasicAuthGinMiddleware(databaseRouteGroup, cfg.AdminServer)
	databaseHttpHandler := NewDatabaseHttpHandler(pool, cfg.Database.HealthQuery)
	databaseHttpHandler.AddHandlersToRouteGroup(databaseRouteGroup)

	metricsRouteGroup := engine.Group("/metrics")
	metricsRouteGroup.GET("/", gin.WrapF(promhttp.Handler().ServeHTTP))

	pprofRouteGroup := engine.Group("/debug/pprof")
	wrapBasicAuthGinMiddleware(pprofRouteGroup, cfg.AdminServer)
	pprofRouteGroup.Any("/", gin.WrapF(pprof.Index))
	pprofRouteGroup.Any("/cmdline", gin.WrapF(pprof.Cmdline))
	pprofRouteGroup.Any("/profile", gin.WrapF(pprof.Profile))
	pprofRouteGroup.Any("/symbol", gin.WrapF(pprof.Symbol))
	pprofRouteGroup.Any("/trace", gin.WrapF(pprof.Trace))
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		pprofRouteGroup.Any("/"+name, gin.WrapF(pprof.Handler(name).ServeHTTP))
	}

	return engine
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		metrics.APIRequestCounter.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func wrapBasicAuthGinMiddleware(group *gin.RouterGroup, cfg config.AdminServer) {
	if cfg.EnableBasicAuth && cfg.User != "" && cfg.Password != "" {
		group.Use(gin.BasicAuth(gin.Accounts{cfg.User: cfg.Password}))
	}
}

// Run serves until Close is called or the listener fails.
func (h *HttpApiServer) Run() error {
	defer func() {
		if err := h.listener.Close(); err != nil {
			logutil.BgLogger().Warn("close http api server listener error", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/", h.engine)
		errCh <- http.Serve(h.listener, mux)
	}()

	logutil.BgLogger().Info("http api server started", zap.String("addr", h.listener.Addr().String()))
	select {
	case <-h.closeCh:
		logutil.BgLogger().Info("closing http api server")
		return nil
	case err := <-errCh:
		logutil.BgLogger().Error("http api server exit on error", zap.Error(err))
		return err
	}
}

func (h *HttpApiServer) Close() {
	close(h.closeCh)
}

func (n *DatabaseHttpHandler) AddHandlersToRouteGroup(group *gin.RouterGroup) {
	group.GET("/status", n.HandleStatus)
	group.GET("/health", n.HandleHealth)
}

func (n *DatabaseHttpHandler) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, n.pool.Stats())
}

func (n *DatabaseHttpHandler) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), n.healthTimeout)
	defer cancel()

	if _, err := n.pool.Execute(ctx, n.healthQuery).Await(ctx); err != nil {
		errMsg := "database health query error"
		logutil.BgLogger().Warn(errMsg, zap.String("sql", n.healthQuery), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, CreateJsonResp(http.StatusServiceUnavailable, errMsg+": "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, CreateSuccessJsonResp())
}

func CreateJsonResp(code int, msg string) CommonJsonResp {
	return CommonJsonResp{
		Code: code,
		Msg:  msg,
	}
}

func CreateSuccessJsonResp() CommonJsonResp {
	return CommonJsonResp{
		Code: http.StatusOK,
		Msg:  "success",
	}
}
