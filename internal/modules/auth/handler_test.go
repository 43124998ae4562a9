package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cristianjhd92/ProCivilManager-sub002/internal/config"
	"github.com/cristianjhd92/ProCivilManager-sub002/internal/middleware"
	jwtpkg "github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/jwt"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var testCookieCfg = config.CookieConfig{
	Name:     "pcm_refresh",
	Path:     "/api/v1/auth",
	SameSite: "lax",
}

type handlerFixture struct {
	router   *gin.Engine
	svc      *Service
	users    *memUserStore
	sessions *memSessionStore
}

func newHandlerFixture(t *testing.T, limiter Limiter) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := newMemUserStore()
	sessions := newMemSessionStore()
	codec := jwtpkg.NewCodec(testAuthCfg.JWTSecret, testAuthCfg.AccessTTL, "", "")
	svc := NewService(testAuthCfg, users, sessions, limiter, codec, zap.NewNop())

	router := gin.New()
	api := router.Group("/api/v1")
	authMW := middleware.Auth(codec)
	NewHandler(svc, testCookieCfg).RegisterRoutes(api, authMW)

	// Stand-in for any bearer-protected endpoint.
	api.GET("/whoami", authMW, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": middleware.CurrentUserID(c)})
	})

	return &handlerFixture{router: router, svc: svc, users: users, sessions: sessions}
}

func (f *handlerFixture) do(method, path, body string, setup ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, fn := range setup {
		fn(req)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == testCookieCfg.Name {
			return ck
		}
	}
	return nil
}

func decodeToken(t *testing.T, w *httptest.ResponseRecorder) tokenResponse {
	t.Helper()
	var tr tokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &tr); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return tr
}

func TestLoginEndpoint(t *testing.T) {
	f := newHandlerFixture(t, nil)
	seedUser(t, f.users, "ana@example.com", "Corr3ct!pw")

	t.Run("missing fields", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"nope"}`)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
		if ck := refreshCookie(t, w); ck != nil {
			t.Error("failed login set a refresh cookie")
		}
	})

	t.Run("success", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"Corr3ct!pw"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}

		tr := decodeToken(t, w)
		if tr.TokenType != "Bearer" || tr.AccessToken == "" {
			t.Errorf("unexpected token payload: %+v", tr)
		}
		if tr.User == nil || tr.User.Email != "ana@example.com" {
			t.Errorf("unexpected user payload: %+v", tr.User)
		}

		ck := refreshCookie(t, w)
		if ck == nil {
			t.Fatal("no refresh cookie set")
		}
		if !ck.HttpOnly {
			t.Error("refresh cookie is not HttpOnly")
		}
		if ck.Path != testCookieCfg.Path {
			t.Errorf("cookie path = %q, want %q", ck.Path, testCookieCfg.Path)
		}
		if ck.MaxAge != int(testAuthCfg.RefreshTTL.Seconds()) {
			t.Errorf("cookie max-age = %d, want %d", ck.MaxAge, int(testAuthCfg.RefreshTTL.Seconds()))
		}
		if strings.Contains(w.Body.String(), ck.Value) {
			t.Error("refresh secret leaked into the response body")
		}
	})
}

func TestBearerProtection(t *testing.T) {
	f := newHandlerFixture(t, nil)
	seedUser(t, f.users, "ana@example.com", "Corr3ct!pw")

	login := f.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"Corr3ct!pw"}`)
	token := decodeToken(t, login).AccessToken

	t.Run("no token", func(t *testing.T) {
		if w := f.do(http.MethodGet, "/api/v1/whoami", ""); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/whoami", "", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not-a-jwt")
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/whoami", "", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		})
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

func TestRefreshEndpointRotation(t *testing.T) {
	f := newHandlerFixture(t, nil)
	seedUser(t, f.users, "ana@example.com", "Corr3ct!pw")

	login := f.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"Corr3ct!pw"}`)
	first := refreshCookie(t, login)

	// Refresh with the login cookie rotates it.
	w := f.do(http.MethodPost, "/api/v1/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(first)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, body = %s", w.Code, w.Body.String())
	}
	second := refreshCookie(t, w)
	if second == nil || second.Value == "" {
		t.Fatal("refresh did not set a new cookie")
	}
	if second.Value == first.Value {
		t.Fatal("refresh reused the old cookie value")
	}

	// Replaying the retired cookie fails and clears it.
	w = f.do(http.MethodPost, "/api/v1/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(first)
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("replay status = %d, want 401", w.Code)
	}
	cleared := refreshCookie(t, w)
	if cleared == nil || cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Errorf("replay did not clear the cookie: %+v", cleared)
	}
	if cleared != nil && cleared.Path != testCookieCfg.Path {
		t.Errorf("clearing cookie path = %q, want %q", cleared.Path, testCookieCfg.Path)
	}

	// The rotated cookie still works.
	w = f.do(http.MethodPost, "/api/v1/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(second)
	})
	if w.Code != http.StatusOK {
		t.Errorf("rotated cookie status = %d, want 200", w.Code)
	}
}

func TestRefreshEndpointWithoutCookie(t *testing.T) {
	f := newHandlerFixture(t, nil)

	w := f.do(http.MethodPost, "/api/v1/auth/refresh", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if ck := refreshCookie(t, w); ck == nil || ck.Value != "" || ck.MaxAge >= 0 {
		t.Errorf("failure did not clear the cookie: %+v", ck)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	f := newHandlerFixture(t, nil)
	seedUser(t, f.users, "ana@example.com", "Corr3ct!pw")

	login := f.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"Corr3ct!pw"}`)
	ck := refreshCookie(t, login)

	w := f.do(http.MethodPost, "/api/v1/auth/logout", "", func(r *http.Request) {
		r.AddCookie(ck)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}
	if cleared := refreshCookie(t, w); cleared == nil || cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Errorf("logout did not clear the cookie: %+v", cleared)
	}

	// Logout without a cookie is fine too.
	if w := f.do(http.MethodPost, "/api/v1/auth/logout", ""); w.Code != http.StatusOK {
		t.Errorf("cookie-less logout status = %d, want 200", w.Code)
	}

	// The revoked session no longer refreshes.
	w = f.do(http.MethodPost, "/api/v1/auth/refresh", "", func(r *http.Request) {
		r.AddCookie(ck)
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout status = %d, want 401", w.Code)
	}
}

func TestLogoutAllEndpoint(t *testing.T) {
	f := newHandlerFixture(t, nil)
	u := seedUser(t, f.users, "ana@example.com", "Corr3ct!pw")

	first := f.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"Corr3ct!pw"}`)
	second := f.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"Corr3ct!pw"}`)
	token := decodeToken(t, second).AccessToken

	t.Run("requires bearer", func(t *testing.T) {
		if w := f.do(http.MethodPost, "/api/v1/auth/logout-all", ""); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	w := f.do(http.MethodPost, "/api/v1/auth/logout-all", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("logout-all status = %d", w.Code)
	}
	if got := f.sessions.usableCount(u.ID, time.Now()); got != 0 {
		t.Errorf("usable sessions = %d, want 0", got)
	}

	for name, login := range map[string]*httptest.ResponseRecorder{"first": first, "second": second} {
		ck := refreshCookie(t, login)
		w := f.do(http.MethodPost, "/api/v1/auth/refresh", "", func(r *http.Request) {
			r.AddCookie(ck)
		})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s session refresh status = %d, want 401", name, w.Code)
		}
	}
}

func TestLoginEndpointLocked(t *testing.T) {
	f := newHandlerFixture(t, nil)
	u := seedUser(t, f.users, "ana@example.com", "Corr3ct!pw")
	until := time.Now().Add(10 * time.Minute)
	u.LockedUntil = &until

	w := f.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"Corr3ct!pw"}`)
	if w.Code != http.StatusLocked {
		t.Fatalf("status = %d, want 423", w.Code)
	}
	if body := w.Body.String(); strings.Contains(body, until.Format("15:04")) {
		t.Error("response leaked the exact unlock timestamp")
	}
}

func TestLoginEndpointRateLimited(t *testing.T) {
	limiter := &stubLimiter{err: &RateLimitedError{Scope: "identity", RetryAfter: 90 * time.Second}}
	f := newHandlerFixture(t, limiter)
	seedUser(t, f.users, "ana@example.com", "Corr3ct!pw")

	w := f.do(http.MethodPost, "/api/v1/auth/login", `{"email":"ana@example.com","password":"Corr3ct!pw"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "90" {
		t.Errorf("Retry-After = %q, want 90", got)
	}
	var body struct {
		Scope      string `json:"scope"`
		RetryAfter int    `json:"retry_after"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Scope != "identity" || body.RetryAfter != 90 {
		t.Errorf("body = %+v", body)
	}
}
