package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/anytimesk/stock-ml-front-end/internal/prefs"
	"github.com/anytimesk/stock-ml-front-end/internal/session"
	"github.com/anytimesk/stock-ml-front-end/internal/theme"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSessionStore() *session.Store {
	return session.NewStore(session.Factory{
		SearchPageSize: 10,
		FilesPageSize:  5,
		ChartWidth:     800,
		ChartHeight:    400,
		Timeout:        time.Second,
		TrainTimeout:   time.Second,
	}, session.Config{
		CookieName:       "sid",
		ClientCookieName: "cid",
		IdleTTL:          time.Minute,
		SweepInterval:    time.Second,
	}, zap.NewNop())
}

func sessionRouter(store *session.Store, prefStore prefs.Store) *gin.Engine {
	r := gin.New()
	r.Use(Session(store, prefStore, zap.NewNop()))
	r.GET("/", func(c *gin.Context) {
		sess := CurrentSession(c)
		c.String(http.StatusOK, sess.ID+" "+string(sess.Theme.Mode()))
	})
	return r
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func TestSession_CreatesAndReusesSession(t *testing.T) {
	store := newSessionStore()
	r := sessionRouter(store, prefs.NewMemoryStore())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ColorSchemeHint, rec.Header().Get("Accept-CH"))
	sid := cookieValue(rec, "sid")
	require.NotEmpty(t, sid)
	assert.NotEmpty(t, cookieValue(rec, "cid"))
	assert.Equal(t, sid+" light", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, sid+" light", rec.Body.String())
	assert.Empty(t, cookieValue(rec, "sid"))
	assert.Equal(t, 1, store.Len())
}

func TestSession_ThemeFromColorSchemeHint(t *testing.T) {
	r := sessionRouter(newSessionStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ColorSchemeHint, `"dark"`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), " dark")
}

func TestSession_StoredPreferenceBeatsHint(t *testing.T) {
	prefStore := prefs.NewMemoryStore()
	require.NoError(t, prefStore.SetTheme(context.Background(), "client-1", string(theme.Light)))
	r := sessionRouter(newSessionStore(), prefStore)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ColorSchemeHint, "dark")
	req.AddCookie(&http.Cookie{Name: "cid", Value: "client-1"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), " light")
	assert.Empty(t, cookieValue(rec, "cid"), "known client id is not reissued")
}

func TestSession_ExpiredCookieStartsNewSession(t *testing.T) {
	store := newSessionStore()
	r := sessionRouter(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "gone"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	sid := cookieValue(rec, "sid")
	assert.NotEmpty(t, sid)
	assert.NotEqual(t, "gone", sid)
	assert.Equal(t, 1, store.Len())
}

func TestLookupSession_NeverCreates(t *testing.T) {
	store := newSessionStore()
	existing := store.Create("cid-1", theme.Light)

	r := gin.New()
	r.GET("/chart", LookupSession(store), func(c *gin.Context) {
		if sess := CurrentSession(c); sess != nil {
			c.String(http.StatusOK, sess.ID)
			return
		}
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chart", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	req := httptest.NewRequest(http.MethodGet, "/chart", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "gone"})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/chart", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: existing.ID})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, existing.ID, rec.Body.String())

	assert.Equal(t, 1, store.Len())
}

func TestRateLimit_PostOnly(t *testing.T) {
	limiter := NewRateLimiter(60, 2)
	r := gin.New()
	r.Use(RateLimit(limiter, ""))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var rec *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.JSONEq(t, `{"error":"Rate limit exceeded. Try again later."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_ClientHeader(t *testing.T) {
	limiter := NewRateLimiter(60, 1)
	r := gin.New()
	r.Use(RateLimit(limiter, "X-Real-IP"))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, ip)
	}
	assert.Equal(t, 2, limiter.Clients())
}

func TestRateLimiter_ForgetsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(60, 1)
	now := time.Now()
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))

	now = now.Add(idleLimiterTTL + time.Second)
	assert.True(t, limiter.Allow("b"))
	assert.Equal(t, 1, limiter.Clients())
}

func TestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, p := range []string{"/ok", "/bad?x=1", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "/bad?x=1", entries[1].ContextMap()["path"])
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}
