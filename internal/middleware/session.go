package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/prefs"
	"github.com/anytimesk/stock-ml-front-end/internal/session"
	"github.com/anytimesk/stock-ml-front-end/internal/theme"
)

// ColorSchemeHint is the client hint carrying the platform's theme.
const ColorSchemeHint = "Sec-CH-Prefers-Color-Scheme"

const (
	sessionKey       = "session"
	clientCookieAge  = 365 * 24 * 60 * 60
	prefsReadTimeout = 2 * time.Second
)

// Session attaches the browser's dashboard session to the request,
// creating one when the cookie is missing or expired. A new session's
// theme is the stored preference, then the color scheme hint, then light.
func Session(store *session.Store, prefStore prefs.Store, logger *zap.Logger) gin.HandlerFunc {
	cfg := store.Config()

	return func(c *gin.Context) {
		c.Header("Accept-CH", ColorSchemeHint)
		c.Header("Vary", ColorSchemeHint)

		if id, err := c.Cookie(cfg.CookieName); err == nil {
			if sess, ok := store.Get(id); ok {
				c.Set(sessionKey, sess)
				c.Next()
				return
			}
		}

		c.SetSameSite(http.SameSiteLaxMode)

		clientID, err := c.Cookie(cfg.ClientCookieName)
		if err != nil || clientID == "" {
			clientID = uuid.NewString()
			c.SetCookie(cfg.ClientCookieName, clientID, clientCookieAge, "/", "", cfg.Secure, true)
		}

		var persisted string
		if prefStore != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), prefsReadTimeout)
			persisted, err = prefStore.GetTheme(ctx, clientID)
			cancel()
			if err != nil {
				logger.Warn("Failed to read theme preference", zap.String("client_id", clientID), zap.Error(err))
			}
		}

		mode := theme.Resolve(persisted, c.GetHeader(ColorSchemeHint))
		sess := store.Create(clientID, mode)
		c.SetCookie(cfg.CookieName, sess.ID, 0, "/", "", cfg.Secure, true)

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// LookupSession attaches the browser's session when its cookie names a live
// one. Unlike Session it never creates a session or sets cookies.
func LookupSession(store *session.Store) gin.HandlerFunc {
	cookieName := store.Config().CookieName

	return func(c *gin.Context) {
		if id, err := c.Cookie(cookieName); err == nil {
			if sess, ok := store.Get(id); ok {
				c.Set(sessionKey, sess)
			}
		}
		c.Next()
	}
}

// CurrentSession returns the session attached by Session or LookupSession,
// or nil.
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
