package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cristianjhd92/ProCivilManager-sub002/internal/config"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/database"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/middleware"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/modules/auth"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/modules/user"
	pkgcron "github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/cron"
	jwtpkg "github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/jwt"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/mail"
	pkgredis "github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/redis"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const devJWTSecret = "procivil-dev-secret-change-me"

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *gorm.DB
	rc     *pkgredis.Client
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler
}

// New initializes the application: DB → Redis → services → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := database.Connect(cfg, true)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(buildCORSConfig(cfg)))
	router.Use(middleware.RateLimit(rc.Raw(), cfg.RateLimit))

	secret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if secret == "" {
		logger.Warn("auth.jwt_secret is empty, using built-in development secret")
		secret = devJWTSecret
	}
	codec := jwtpkg.NewCodec(secret, cfg.Auth.AccessTTL, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)

	mailer := mail.New(cfg.Mail)
	userSvc := user.NewService(db, cfg.Auth.BcryptCost, mailer, logger)
	sessionStore := auth.NewGormSessionStore(db)
	limiter := auth.NewLoginLimiter(rc.Raw(), cfg.RateLimit)
	authSvc := auth.NewService(cfg.Auth, userSvc, sessionStore, limiter, codec, logger)

	ctx, cancel := context.WithCancel(context.Background())
	sched := pkgcron.New()
	registerCronJobs(sched, authSvc, logger)
	go sched.Start(ctx)

	app := &App{cfg: cfg, router: router, db: db, rc: rc, logger: logger, cancel: cancel, sched: sched}
	app.registerRoutes(authSvc, userSvc, codec)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown cleans up background goroutines and connections.
func (a *App) Shutdown() {
	a.cancel()
	_ = a.rc.Close()
}
