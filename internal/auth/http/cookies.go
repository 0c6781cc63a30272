package http

import (
	"net/http"
	"time"

	"github.com/stockroom-app/backend/internal/common/constants"
)

// CookiePolicy controls the refresh cookie attributes that depend on where
// the service runs. Cross-site frontends need SameSite=None, which browsers
// only honor together with Secure.
type CookiePolicy struct {
	Secure     bool
	Production bool
}

func (p CookiePolicy) sameSite() http.SameSite {
	if p.Production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (p CookiePolicy) setRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	if token == "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		SameSite: p.sameSite(),
		Secure:   p.Secure,
	})
}

func (p CookiePolicy) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: p.sameSite(),
		Secure:   p.Secure,
	})
}
