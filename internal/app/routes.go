package app

import (
	"net/http"

	"github.com/cristianjhd92/ProCivilManager-sub002/internal/middleware"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/modules/auth"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/modules/user"
	jwtpkg "github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/jwt"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(authSvc *auth.Service, userSvc *user.Service, codec *jwtpkg.Codec) {
	r := a.router
	authMW := middleware.Auth(codec)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	api := r.Group("/api/v1")

	api.GET("/health", func(c *gin.Context) {
		sqlDB, err := a.db.DB()
		dbOK := err == nil && sqlDB.Ping() == nil

		status := "ok"
		code := http.StatusOK
		if !dbOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "database": dbOK})
	})

	auth.NewHandler(authSvc, a.cfg.Cookie).RegisterRoutes(api, authMW)
	user.NewHandler(userSvc).RegisterRoutes(api, authMW)
}
