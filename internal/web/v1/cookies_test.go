package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
	"github.com/pixelforge/imagegen-service/middleware"
)

func recordCookies(t *testing.T, fn func(c *gin.Context)) map[string]*http.Cookie {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	fn(c)

	cookies := make(map[string]*http.Cookie)
	for _, ck := range w.Result().Cookies() {
		cookies[ck.Name] = ck
	}
	return cookies
}

func TestSetSessionWritesBothCookies(t *testing.T) {
	cc := NewCookieCodec(false)
	session := &domain.Session{
		AccessToken:  "acc-1",
		RefreshToken: "ref-1",
		ExpiresIn:    7200,
	}

	cookies := recordCookies(t, func(c *gin.Context) {
		cc.SetSession(c, session)
	})

	access, ok := cookies[middleware.AccessTokenCookie]
	if !ok {
		t.Fatal("access cookie not set")
	}
	refresh, ok := cookies[middleware.RefreshTokenCookie]
	if !ok {
		t.Fatal("refresh cookie not set")
	}

	if access.Value != "acc-1" || refresh.Value != "ref-1" {
		t.Errorf("cookie values %q/%q, want acc-1/ref-1", access.Value, refresh.Value)
	}
	if access.MaxAge != 7200 {
		t.Errorf("access max-age %d, want the provider-reported 7200", access.MaxAge)
	}
	if refresh.MaxAge != 30*24*60*60 {
		t.Errorf("refresh max-age %d, want 30 days", refresh.MaxAge)
	}
	for _, ck := range []*http.Cookie{access, refresh} {
		if !ck.HttpOnly {
			t.Errorf("%s: want HttpOnly", ck.Name)
		}
		if ck.Path != "/" {
			t.Errorf("%s: path %q, want /", ck.Name, ck.Path)
		}
		if ck.SameSite != http.SameSiteNoneMode {
			t.Errorf("%s: want SameSite=None", ck.Name)
		}
	}
}

func TestSetSessionDefaultsAccessExpiry(t *testing.T) {
	cc := NewCookieCodec(false)

	cookies := recordCookies(t, func(c *gin.Context) {
		cc.SetSession(c, &domain.Session{AccessToken: "a", RefreshToken: "r"})
	})

	if got := cookies[middleware.AccessTokenCookie].MaxAge; got != 3600 {
		t.Errorf("access max-age %d, want the 3600 default", got)
	}
}

func TestSetSessionSecureFlag(t *testing.T) {
	cc := NewCookieCodec(true)

	cookies := recordCookies(t, func(c *gin.Context) {
		cc.SetSession(c, &domain.Session{AccessToken: "a", RefreshToken: "r"})
	})

	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		if !cookies[name].Secure {
			t.Errorf("%s: want Secure in production mode", name)
		}
	}
}

func TestClearSessionExpiresBothCookies(t *testing.T) {
	cc := NewCookieCodec(false)

	cookies := recordCookies(t, func(c *gin.Context) {
		cc.ClearSession(c)
	})

	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		ck, ok := cookies[name]
		if !ok {
			t.Fatalf("%s: no expiring Set-Cookie written", name)
		}
		if ck.Value != "" {
			t.Errorf("%s: value %q, want empty", name, ck.Value)
		}
		if ck.MaxAge >= 0 && ck.Expires.IsZero() {
			t.Errorf("%s: cookie not expired", name)
		}
	}
}
