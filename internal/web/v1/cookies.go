package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
	"github.com/pixelforge/imagegen-service/middleware"
)

const (
	// refreshTokenMaxAge is fixed at 30 days regardless of the access
	// token's lifetime.
	refreshTokenMaxAge = 30 * 24 * 60 * 60

	// defaultAccessMaxAge applies when the provider does not report an
	// expiry.
	defaultAccessMaxAge = 3600

	cookiePath = "/"
)

// CookieCodec writes and clears the access/refresh cookie pair with one
// uniform attribute set. Browsers only honor a clear when the attributes
// match the ones used at creation, so every mutation goes through here.
type CookieCodec struct {
	secure bool
}

// NewCookieCodec creates a codec. secure should be true in production; the
// SameSite=None attribute the cross-site frontend needs requires it there.
func NewCookieCodec(secure bool) *CookieCodec {
	return &CookieCodec{secure: secure}
}

// SetSession sets both cookies from the session. The pair is always written
// together.
func (cc *CookieCodec) SetSession(c *gin.Context, session *domain.Session) {
	accessMaxAge := defaultAccessMaxAge
	if session.ExpiresIn > 0 {
		accessMaxAge = session.ExpiresIn
	}

	cc.set(c, middleware.AccessTokenCookie, session.AccessToken, accessMaxAge)
	cc.set(c, middleware.RefreshTokenCookie, session.RefreshToken, refreshTokenMaxAge)
}

// ClearSession expires both cookies.
func (cc *CookieCodec) ClearSession(c *gin.Context) {
	cc.set(c, middleware.AccessTokenCookie, "", -1)
	cc.set(c, middleware.RefreshTokenCookie, "", -1)
}

func (cc *CookieCodec) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(name, value, maxAge, cookiePath, "", cc.secure, true)
}
