package http

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/clmm-route-engine/internal/aggregator"
	"github.com/hxuan190/clmm-route-engine/internal/common"
	"github.com/hxuan190/clmm-route-engine/internal/config"
	"github.com/hxuan190/clmm-route-engine/internal/http/httputil"
	"github.com/hxuan190/clmm-route-engine/internal/http/middlewares"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

type HTTPService struct {
	aggregatorSvc *aggregator.Service
	rateLimiter   *middlewares.RateLimiter
	server        *gohttp.Server
	conf          *config.GeneralConfig

	handlers []httputil.IHttpHandler
}

func NewHTTPService(conf *config.GeneralConfig, aggregatorSvc *aggregator.Service) (*HTTPService, error) {
	if conf == nil {
		return nil, errors.New("invalid server config")
	}
	svc := &HTTPService{
		conf:          conf,
		aggregatorSvc: aggregatorSvc,
		rateLimiter:   middlewares.NewRateLimiter(conf.RateLimit, conf.RateBurst),
	}
	svc.handlers = []httputil.IHttpHandler{
		NewPoolHandler(aggregatorSvc),
		NewQuoteHandler(aggregatorSvc),
		NewMathHandler(),
		NewRegistryHandler(aggregatorSvc),
	}
	return svc, nil
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

// Engine builds the gin router with every route mounted.
func (svc *HTTPService) Engine() *gin.Engine {
	if svc.conf.Env != config.DevEnv {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	r.Use(middlewares.LoggerMiddleware())

	r.GET("/health", svc.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	pub := api.Group(API_VERSION)
	pub.Use(svc.rateLimiter.RateLimitMiddleware())
	admin := api.Group(fmt.Sprintf("%s/admin", API_VERSION))

	svc.setupHandlers(pub, admin)
	return r
}

// Start serves in the background. Listen errors other than a clean close are
// logged.
func (svc *HTTPService) Start(ctx context.Context) error {
	svc.server = &gohttp.Server{
		Addr:              svc.conf.Addr(),
		Handler:           svc.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	go func() {
		if err := svc.server.ListenAndServe(); err != nil && !errors.Is(err, gohttp.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	}()
	return nil
}

func (svc *HTTPService) Stop() error {
	if svc.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) health(c *gin.Context) {
	coins, pools, loadedAt := svc.aggregatorSvc.GraphStats()
	status := "ok"
	code := gohttp.StatusOK
	if pools == 0 {
		status = "loading"
		code = gohttp.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":   status,
		"coins":    coins,
		"pools":    pools,
		"loadedAt": loadedAt,
	})
}

func (svc *HTTPService) setupHandlers(rootPub *gin.RouterGroup, rootAdmin *gin.RouterGroup) {
	for _, h := range svc.handlers {
		pub := rootPub.Group(h.Root())
		admin := rootAdmin.Group(h.Root())
		h.SetRoutes(pub, admin)
	}
}

// writeError maps err to a status and writes the error envelope.
func writeError(c *gin.Context, err error) {
	var httpErr *common.HttpError
	switch {
	case errors.Is(err, aggregator.ErrPoolNotRouted):
		httpErr = common.HTTPErrorNotFound(err.Error())
	case errors.Is(err, aggregator.ErrTooManyPositions):
		httpErr = common.HTTPErrorBadRequest(err.Error())
	case errors.Is(err, aggregator.ErrPositionsDisabled):
		httpErr = &common.HttpError{StatusCode: gohttp.StatusNotImplemented, Code: "NOT_IMPLEMENTED", Message: err.Error()}
	default:
		httpErr = common.HTTPErrorFromDomain(err)
	}
	if httpErr.StatusCode >= gohttp.StatusInternalServerError {
		log.Warn().Err(err).Str("path", c.FullPath()).Int("status", httpErr.StatusCode).Msg("request failed")
	}
	httputil.Error(c, httpErr.StatusCode, httpErr.Message)
}
