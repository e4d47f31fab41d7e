package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
)

type stubResolver struct {
	getUserFn func(ctx context.Context, accessToken string) (*domain.User, error)
	calls     int
}

func (r *stubResolver) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	r.calls++
	if r.getUserFn != nil {
		return r.getUserFn(ctx, accessToken)
	}
	return &domain.User{ID: "u1", Email: "a@b.co"}, nil
}

func TestExtractToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer header", "Bearer tok-1", "", "tok-1"},
		{"header wins over cookie", "Bearer tok-1", "tok-2", "tok-1"},
		{"cookie fallback", "", "tok-2", "tok-2"},
		{"malformed scheme ignored", "Basic tok-1", "tok-2", "tok-2"},
		{"bare header ignored", "Bearer", "", ""},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				c.Request.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tt.cookie})
			}

			if got := ExtractToken(c); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func serveProtected(resolver UserResolver, mw func(UserResolver) gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", mw(resolver), func(c *gin.Context) {
		user, ok := UserFromContext(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.ID})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthWithoutToken(t *testing.T) {
	resolver := &stubResolver{}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	w := serveProtected(resolver, RequireAuth, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
	if resolver.calls != 0 {
		t.Error("resolver must not be consulted without a token")
	}
}

func TestRequireAuthRejectedToken(t *testing.T) {
	resolver := &stubResolver{
		getUserFn: func(ctx context.Context, accessToken string) (*domain.User, error) {
			return nil, &domain.ProviderError{Status: 401, Message: "invalid token"}
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad")

	w := serveProtected(resolver, RequireAuth, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", w.Code)
	}
}

func TestRequireAuthAttachesUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "tok-1"})

	w := serveProtected(&stubResolver{}, RequireAuth, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	if body := w.Body.String(); body != `{"user":"u1"}` {
		t.Errorf("body %s", body)
	}
}

func TestOptionalAuthAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	w := serveProtected(&stubResolver{}, OptionalAuth, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	if body := w.Body.String(); body != `{"user":null}` {
		t.Errorf("body %s", body)
	}
}

func TestOptionalAuthNeverBlocks(t *testing.T) {
	resolver := &stubResolver{
		getUserFn: func(ctx context.Context, accessToken string) (*domain.User, error) {
			return nil, &domain.ProviderError{Status: 401, Message: "invalid token"}
		},
	}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad")

	w := serveProtected(resolver, OptionalAuth, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	if body := w.Body.String(); body != `{"user":null}` {
		t.Errorf("body %s", body)
	}
}
