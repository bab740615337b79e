package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/driftline/sieve/moderation"
	"github.com/driftline/sieve/recommend"
	"github.com/driftline/sieve/risk"
	"github.com/driftline/sieve/store"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogecho "github.com/samber/slog-echo"
	"golang.org/x/time/rate"
)

type Server struct {
	echo       *echo.Echo
	logger     *slog.Logger
	store      *store.Store
	mod        *moderation.Moderator
	assessor   *risk.Assessor
	engine     *recommend.Engine
	adminToken string
}

type Config struct {
	Logger     *slog.Logger
	AdminToken string
}

func NewServer(st *store.Store, mod *moderation.Moderator, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddleware("sieved"))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(50))))

	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		code := http.StatusInternalServerError
		msg := any("internal error")
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = he.Message
		} else {
			logger.Warn("handler error", "path", ctx.Path(), "err", err)
		}
		if !ctx.Response().Committed {
			if err2 := ctx.JSON(code, map[string]any{"error": msg}); err2 != nil {
				logger.Error("failed to write http error", "err", err2)
			}
		}
	}

	s := &Server{
		echo:       e,
		logger:     logger,
		store:      st,
		mod:        mod,
		assessor:   risk.NewAssessor(st, mod),
		engine:     recommend.NewEngine(st, logger),
		adminToken: config.AdminToken,
	}

	e.GET("/_health", s.handleHealthCheck)
	e.POST("/moderate", s.handleModerate)
	e.GET("/feed", s.handleFeed)

	e.POST("/users", s.handleCreateUser)
	e.GET("/users/:id/risk", s.handleUserRisk)
	e.GET("/users/:id/recommendations", s.handleRecommendations)
	e.PUT("/users/:id/follow", s.handleFollow)
	e.DELETE("/users/:id/follow", s.handleUnfollow)

	e.POST("/posts", s.handleCreatePost)
	e.GET("/posts/:id", s.handlePostDetail)
	e.DELETE("/posts/:id", s.handleDeletePost)
	e.POST("/posts/:id/comments", s.handleCreateComment)
	e.DELETE("/comments/:id", s.handleDeleteComment)
	e.PUT("/posts/:id/reaction", s.handleReact)
	e.DELETE("/posts/:id/reaction", s.handleUnreact)

	admin := e.Group("/admin", s.adminAuth)
	admin.GET("/dashboard", s.handleDashboard)
	admin.DELETE("/users/:id", s.handleAdminDeleteUser)
	admin.DELETE("/posts/:id", s.handleAdminDeletePost)
	admin.DELETE("/comments/:id", s.handleAdminDeleteComment)

	return s, nil
}

func (s *Server) RunAPI(listen string) error {
	s.logger.Info("starting API server", "bind", listen)
	srv := &http.Server{
		Addr:           listen,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return s.echo.StartServer(srv)
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) adminAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.adminToken == "" || c.Request().Header.Get("Authorization") != "Bearer "+s.adminToken {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

func (s *Server) handleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
