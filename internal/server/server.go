// Package server exposes the catalog, progress tracker, labs and chat
// client as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/abhisek/genlearn/internal/auth"
	"github.com/abhisek/genlearn/internal/catalog"
	"github.com/abhisek/genlearn/internal/labs"
	"github.com/abhisek/genlearn/internal/logger"
	"github.com/abhisek/genlearn/internal/progress"
)

type Config struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ServiceName    string
}

// Deps are the services the API serves.
type Deps struct {
	Catalog  *catalog.Catalog
	Tracker  *progress.Tracker
	Labs     *labs.Service
	Chat     labs.Sender
	Verifier *auth.Verifier
	Logger   *logger.Logger
}

type Server struct {
	cfg    Config
	deps   Deps
	log    *logger.Logger
	engine *gin.Engine
}

func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "genlearn"
	}
	s := &Server{cfg: cfg, deps: deps, log: deps.Logger.With("component", "http")}
	s.engine = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(s.cfg.ServiceName))
	r.Use(requestLogger(s.log))
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(corsMiddleware(s.cfg.AllowedOrigins))
	}

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.Use(identityMiddleware(s.deps.Verifier, s.log))
	{
		api.GET("/modules", s.listModules)
		api.GET("/modules/:moduleID", s.getModule)
		api.GET("/modules/:moduleID/next", s.nextModule)
		api.GET("/modules/:moduleID/lessons/:lessonID", s.getLesson)
		api.GET("/modules/:moduleID/lessons/:lessonID/next", s.nextLesson)

		api.GET("/progress", s.getProgress)
		api.PUT("/progress/settings", s.updateSettings)
		api.DELETE("/progress", s.resetProgress)
		api.GET("/progress/overall", s.overallProgress)

		lesson := api.Group("/progress/modules/:moduleID/lessons/:lessonID")
		lesson.POST("/start", s.startLesson)
		lesson.POST("/complete", s.completeLesson)
		lesson.POST("/quiz", s.submitQuiz)
		lesson.POST("/lab", s.runLab)
		lesson.GET("/lab/hints/:index", s.labHint)

		api.GET("/leaderboard", s.leaderboard)
		api.POST("/chat", s.chat)
	}

	return r
}

// Run serves until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) health(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok", "catalogVersion": s.deps.Catalog.Version()})
}
