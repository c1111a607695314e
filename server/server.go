// Package server 是排序服务的 HTTP 适配层：把请求转换为候选，跑 Pipeline，返回排序后的 ID。
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rushteam/feedrank/exposure"
	"github.com/rushteam/feedrank/feature"
	"github.com/rushteam/feedrank/pipeline"
	"github.com/rushteam/feedrank/pkg/logging"
)

// Options 是 Server 的运行时依赖。Seen、Persister 可以为空。
type Options struct {
	Pipeline  *pipeline.Pipeline
	Exposure  *exposure.Cache
	Seen      feature.SeenStore
	Persister *exposure.Persister
}

// Server 是排序 HTTP 服务。
type Server struct {
	cfg       Config
	pipeline  *pipeline.Pipeline
	exposure  *exposure.Cache
	seen      feature.SeenStore
	persister *exposure.Persister
	limiter   *rate.Limiter
	router    chi.Router
}

// New 创建 Server 并注册路由。
func New(cfg Config, opts Options) *Server {
	s := &Server{
		cfg:       cfg,
		pipeline:  opts.Pipeline,
		exposure:  opts.Exposure,
		seen:      opts.Seen,
		persister: opts.Persister,
	}
	if s.pipeline == nil {
		s.pipeline = &pipeline.Pipeline{Name: "empty"}
	}
	if s.exposure == nil {
		s.exposure = exposure.New()
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/timeline/rank", s.handleRank)
		r.Put("/promotions", s.handleSetPromotions)
		r.Delete("/promotions", s.handleClearPromotions)
		r.Post("/exposure/shown", s.handleRecordShown)
		r.Delete("/exposure", s.handleClearExposure)
	})
	return r
}

// Handler 返回 HTTP 处理器。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务直到 ctx 结束，然后优雅关闭。启用持久化时启动前恢复、关闭后保存曝光快照。
func (s *Server) Run(ctx context.Context) error {
	if s.persister != nil {
		if err := s.persister.Load(ctx, s.exposure); err != nil {
			logging.Warn().Err(err).Msg("restore exposure snapshot failed")
		}
	}

	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Info().Str("addr", s.cfg.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.saveSnapshot(shutdownCtx)
		logging.Info().Msg("server stopped")
		return err
	})
	return g.Wait()
}

func (s *Server) saveSnapshot(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, s.exposure); err != nil {
		logging.Warn().Err(err).Msg("save exposure snapshot failed")
	}
}
