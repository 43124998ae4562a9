package auth

import (
	"errors"
	"time"

	"github.com/cristianjhd92/ProCivilManager-sub002/internal/config"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/middleware"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
}

type tokenResponse struct {
	TokenType   string       `json:"token_type"`
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"`
	User        *userPayload `json:"user,omitempty"`
}

type Handler struct {
	svc    *Service
	cookie config.CookieConfig
}

func NewHandler(svc *Service, cookie config.CookieConfig) *Handler {
	return &Handler{svc: svc, cookie: cookie}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")

	a.POST("/login", h.login)
	a.POST("/refresh", h.refresh)
	a.POST("/logout", h.logout)
	a.POST("/logout-all", authMW, h.logoutAll)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}

	res, err := h.svc.Login(c.Request.Context(), dto.Email, dto.Password, requestContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setRefreshCookie(c, res.RefreshSecret, h.refreshCookieMaxAge())
	response.OK(c, tokenResponse{
		TokenType:   "Bearer",
		AccessToken: res.AccessToken,
		ExpiresIn:   res.ExpiresIn,
		User:        &userPayload{ID: res.UserID, Email: res.UserEmail, Role: res.UserRole, Name: res.UserName},
	})
}

func (h *Handler) refresh(c *gin.Context) {
	secret, _ := c.Cookie(h.cookie.Name)

	res, err := h.svc.Refresh(c.Request.Context(), secret, requestContext(c))
	if err != nil {
		// A dangling invalid cookie only invites repeated failed attempts,
		// so it goes away no matter why the refresh failed.
		h.clearRefreshCookie(c)
		h.writeError(c, err)
		return
	}

	h.setRefreshCookie(c, res.RefreshSecret, h.refreshCookieMaxAge())
	response.OK(c, tokenResponse{
		TokenType:   "Bearer",
		AccessToken: res.AccessToken,
		ExpiresIn:   res.ExpiresIn,
		User:        &userPayload{ID: res.UserID, Email: res.UserEmail, Role: res.UserRole, Name: res.UserName},
	})
}

func (h *Handler) logout(c *gin.Context) {
	secret, _ := c.Cookie(h.cookie.Name)

	err := h.svc.Logout(c.Request.Context(), secret, requestContext(c))
	h.clearRefreshCookie(c)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"ok": true})
}

func (h *Handler) logoutAll(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	err := h.svc.LogoutAll(c.Request.Context(), userID, requestContext(c))
	h.clearRefreshCookie(c)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			response.Unauthorized(c, "authentication required")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"ok": true})
}

// writeError translates the closed error set to HTTP statuses. Anything
// outside the set is a 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	var locked *AccountLockedError
	var limited *RateLimitedError
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Unauthorized(c, "invalid credentials")
	case errors.As(err, &locked):
		response.Locked(c, locked.Error())
	case errors.As(err, &limited):
		response.TooManyRequests(c, limited.RetryAfterSeconds(), limited.Scope)
	case errors.Is(err, ErrInvalidOrExpiredSession):
		response.Unauthorized(c, "invalid or expired session")
	case errors.Is(err, ErrUnauthenticated):
		response.Unauthorized(c, "authentication required")
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) refreshCookieMaxAge() int {
	return int(h.svc.cfg.RefreshTTL.Seconds())
}

func (h *Handler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(h.cookie.SameSiteMode())
	c.SetCookie(h.cookie.Name, value, maxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

// clearRefreshCookie must reuse the exact attributes used when setting the
// cookie or browsers keep the stale copy around.
func (h *Handler) clearRefreshCookie(c *gin.Context) {
	h.setRefreshCookie(c, "", -1)
}

func requestContext(c *gin.Context) RequestContext {
	return RequestContext{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Now:       time.Now(),
	}
}
