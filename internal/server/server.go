// Package server HTTP 接口：候补名单、市场目录、实时价格、模拟钱包
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/betbot/hypiq/internal/cache"
	"github.com/betbot/hypiq/internal/pricestream"
	"github.com/betbot/hypiq/internal/waitlist"
	"github.com/betbot/hypiq/internal/wallet"
	"github.com/betbot/hypiq/pkg/ratelimit"
)

// WaitlistService 候补名单服务
type WaitlistService interface {
	Register(ctx context.Context, email string) (waitlist.Result, error)
	Count(ctx context.Context) (int64, error)
}

// PriceSource 各币种的价格快照
type PriceSource interface {
	Coins() []string
	Snapshot(coin string) (pricestream.Snapshot, bool)
}

// QuoteReader 读取缓存中的最近价格，价格流尚未就绪时兜底
type QuoteReader interface {
	GetQuote(ctx context.Context, coin string) (cache.Quote, bool, error)
}

type Options struct {
	Waitlist  WaitlistService
	Prices    PriceSource
	Quotes    QuoteReader
	Wallet    *wallet.Wallet
	MaxBetPct float64
	GinMode   string

	// 每个客户端每分钟的写请求上限，0 表示不限
	RateLimitPerMinute int
}

type Server struct {
	waitlist  WaitlistService
	prices    PriceSource
	quotes    QuoteReader
	wallet    *wallet.Wallet
	maxBetPct float64
	ginMode   string
	limiter   *ratelimit.KeyedLimiter

	now func() time.Time
	log *logrus.Entry
}

func New(opts Options) *Server {
	if opts.MaxBetPct <= 0 {
		opts.MaxBetPct = wallet.DefaultMaxBetPct
	}
	if opts.GinMode == "" {
		opts.GinMode = gin.ReleaseMode
	}
	return &Server{
		waitlist:  opts.Waitlist,
		prices:    opts.Prices,
		quotes:    opts.Quotes,
		wallet:    opts.Wallet,
		maxBetPct: opts.MaxBetPct,
		ginMode:   opts.GinMode,
		limiter:   ratelimit.NewKeyed(opts.RateLimitPerMinute, time.Minute),
		now:       time.Now,
		log:       logrus.WithField("component", "server"),
	}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(s.ginMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())
	r.HandleMethodNotAllowed = true
	r.NoMethod(s.wrap(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}))
	r.NoRoute(s.wrap(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	}))

	r.GET("/healthz", s.wrap(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	api := r.Group("/api")

	if s.waitlist != nil {
		api.GET("/waitlist", s.wrap(s.handleWaitlistCount))
		api.POST("/waitlist", s.limitWrites(), s.wrap(s.handleWaitlistJoin))
	}

	markets := api.Group("/markets")
	markets.GET("", s.wrap(s.handleMarketsList))
	markets.GET("/heatmap", s.wrap(s.handleMarketsHeatmap))
	markets.GET("/:slug", s.wrap(s.handleMarketGet))

	if s.prices != nil {
		prices := api.Group("/prices")
		prices.GET("", s.wrap(s.handlePricesList))
		prices.GET("/:coin", s.wrap(s.handlePriceGet))
	}

	if s.wallet != nil {
		w := api.Group("/wallet")
		w.GET("", s.wrap(s.handleWalletGet))
		w.POST("/connect", s.wrap(s.handleWalletConnect))
		w.POST("/disconnect", s.wrap(s.handleWalletDisconnect))
		w.POST("/bets", s.limitWrites(), s.wrap(s.handleWalletPlaceBet))
		w.GET("/quote", s.wrap(s.handleWalletQuote))
	}

	return r
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("http request")
	}
}

// limitWrites 按客户端 IP 限流
func (s *Server) limitWrites() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAt := s.limiter.Allow(c.ClientIP())
		if !ok {
			secs := int(time.Until(retryAt).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(secs))
			writeError(c.Writer, http.StatusTooManyRequests, "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

type paramsKeyType string

const paramsKey paramsKeyType = "hypiq_path_params"

// wrap adapts net/http handlers to gin, injecting path params into request context.
func (s *Server) wrap(h func(http.ResponseWriter, *http.Request)) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := map[string]string{}
		for _, p := range c.Params {
			m[p.Key] = p.Value
		}
		ctx := context.WithValue(c.Request.Context(), paramsKey, m)
		c.Request = c.Request.WithContext(ctx)
		h(c.Writer, c.Request)
	}
}
