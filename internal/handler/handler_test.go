package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anytimesk/stock-ml-front-end/internal/audit"
	"github.com/anytimesk/stock-ml-front-end/internal/client"
	"github.com/anytimesk/stock-ml-front-end/internal/model"
	"github.com/anytimesk/stock-ml-front-end/internal/prefs"
	"github.com/anytimesk/stock-ml-front-end/internal/service"
	"github.com/anytimesk/stock-ml-front-end/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const priceBody = `{"response":{"body":{"items":{"item":[
{"basDt":"20240103","itmsNm":"Samsung","isinCd":"KR7005930003","mkp":"101","hipr":"105","lopr":"99","clpr":"104","vs":"3","fltRt":"2.97","trqu":"1200","trPrc":"124800"},
{"basDt":"20240102","itmsNm":"Samsung","isinCd":"KR7005930003","mkp":"100","hipr":"102","lopr":"98","clpr":"101","vs":"-1","fltRt":"-0.98","trqu":"1000","trPrc":"101000"}
]},"totalCount":2}}}`

const filesBody = `{"success":true,"message":"","count":2,"files":[
{"filename":"samsung.csv","path":"/data/samsung.csv","size_bytes":2048,"created_at":"2024-01-03T10:00:00","stock_code":"005930","stock_name":"Samsung"},
{"filename":"lg.csv","path":"/data/lg.csv","size_bytes":1024,"created_at":"2024-01-02T10:00:00","stock_code":"003550","stock_name":"LG"}
]}`

// fakeBackend records requests and answers like the stock/ML service.
type fakeBackend struct {
	mu       sync.Mutex
	requests []*http.Request
	fail     bool
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.Clone(context.Background()))
	fail := b.fail
	b.mu.Unlock()

	if fail {
		http.Error(w, "boom", http.StatusBadGateway)
		return
	}

	switch {
	case r.URL.Path == client.PathStockPrice:
		w.Write([]byte(priceBody))
	case r.URL.Path == client.PathCSVList:
		w.Write([]byte(filesBody))
	case r.URL.Path == client.PathCSVSave:
		w.Write([]byte(`{"success":true}`))
	case r.URL.Path == client.PathTrain:
		w.Write([]byte(`{"status":"trained","loss":0.01}`))
	case strings.HasPrefix(r.URL.Path, client.PathPredict):
		w.Write([]byte(`{"prediction":[105.2]}`))
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.requests))
	for i, r := range b.requests {
		out[i] = r.URL.Path
	}
	return out
}

func (b *fakeBackend) last() *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return nil
	}
	return b.requests[len(b.requests)-1]
}

type testApp struct {
	router   *gin.Engine
	backend  *fakeBackend
	sessions *session.Store
	prefs    *prefs.MemoryStore
	cookies  []*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	backendClient := client.NewBackendClient(srv.URL, 2*time.Second, 2*time.Second, logger)
	prefStore := prefs.NewMemoryStore()

	sessions := session.NewStore(session.Factory{
		Searcher:       service.NewSearchService(backendClient, logger),
		ML:             service.NewMLService(backendClient, model.DefaultTrainParams(), audit.NopPublisher{}, logger),
		Prefs:          prefStore,
		SearchPageSize: 10,
		FilesPageSize:  5,
		ChartWidth:     800,
		ChartHeight:    400,
		Timeout:        2 * time.Second,
		TrainTimeout:   2 * time.Second,
	}, session.Config{
		CookieName:       "sid",
		ClientCookieName: "cid",
		IdleTTL:          time.Minute,
		SweepInterval:    time.Minute,
	}, logger)
	t.Cleanup(sessions.Close)

	router, err := NewRouter(RouterDeps{
		Sessions: sessions,
		Prefs:    prefStore,
		Health:   HealthDeps{Sessions: sessions},
		UI:       UIConfig{SettleTimeout: 2 * time.Second, RefreshSeconds: 1},
		Chart:    ChartLimits{Width: 800, MaxWidth: 1600, MaxHeight: 1000},
		Logger:   logger,
	})
	require.NoError(t, err)

	return &testApp{router: router, backend: backend, sessions: sessions, prefs: prefStore}
}

// do sends a request carrying the cookies collected so far.
func (a *testApp) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, ck := range a.cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		a.setCookie(ck)
	}
	return rec
}

func (a *testApp) setCookie(ck *http.Cookie) {
	for i, existing := range a.cookies {
		if existing.Name == ck.Name {
			a.cookies[i] = ck
			return
		}
	}
	a.cookies = append(a.cookies, ck)
}

func (a *testApp) session(t *testing.T) *session.Session {
	t.Helper()
	for _, ck := range a.cookies {
		if ck.Name == "sid" {
			sess, ok := a.sessions.Get(ck.Value)
			require.True(t, ok)
			return sess
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","redis":false,"postgres":false,"kafka":false,"tracing":false,"sessions":0}`, rec.Body.String())
}

func TestHealth_RedisDegraded(t *testing.T) {
	h := NewDashboardHandler(HealthDeps{
		RedisPing: func(context.Context) error { return errors.New("down") },
	}, zap.NewNop())
	r := gin.New()
	r.GET("/health", h.Health)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestIndex_RedirectsToActiveTab(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/search", rec.Header().Get("Location"))

	app.do(http.MethodGet, "/ml", nil)
	rec = app.do(http.MethodGet, "/", nil)
	assert.Equal(t, "/ml", rec.Header().Get("Location"))
}

func TestLayout_HeaderTabsAndFooter(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/search", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Stock Prediction")
	assert.Contains(t, body, `data-theme="light"`)
	assert.Contains(t, body, `href="/search" class="tab active"`)
	assert.Contains(t, body, `href="/ml" class="tab"`)
	assert.Contains(t, body, "Copyright &copy; sky 2025")
	assert.Contains(t, body, "--background:#fafafa")
}

func TestThemeToggle_PersistsAndRedirectsBack(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodGet, "/search", nil)

	rec := app.do(http.MethodPost, "/theme/toggle", url.Values{"return": {"/ml"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/ml", rec.Header().Get("Location"))

	sess := app.session(t)
	assert.Equal(t, "dark", string(sess.Theme.Mode()))
	stored, err := app.prefs.GetTheme(context.Background(), sess.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "dark", stored)

	rec = app.do(http.MethodGet, "/search", nil)
	assert.Contains(t, rec.Body.String(), `data-theme="dark"`)
}

func TestThemeToggle_RejectsOffsiteReturn(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/theme/toggle", url.Values{"return": {"//evil.example"}})

	assert.Equal(t, "/search", rec.Header().Get("Location"))
}

func TestSearch_EndToEnd(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodPost, "/search", url.Values{"itmsNm": {" Samsung "}, "numOfRows": {"90"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/search", rec.Header().Get("Location"))

	req := app.backend.last()
	require.NotNil(t, req)
	assert.Equal(t, "Samsung", req.URL.Query().Get("itmsNm"))
	assert.Equal(t, "90", req.URL.Query().Get("numOfRows"))

	rec = app.do(http.MethodGet, "/search", nil)
	body := rec.Body.String()
	assert.Contains(t, body, "Samsung price info")
	assert.Contains(t, body, "Samsung price chart")
	assert.Contains(t, body, "2024-01-03")
	assert.Contains(t, body, `class="positive"`)
	assert.Contains(t, body, `class="negative"`)
	assert.Contains(t, body, "/search/chart/price?")
	assert.NotContains(t, body, `http-equiv="refresh"`)

	rec = app.do(http.MethodGet, "/search/chart/price?w=900&h=450", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = app.do(http.MethodGet, "/search/chart/volume?start=0&end=100", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearch_ChartSizeIsCapped(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodPost, "/search", url.Values{"itmsNm": {"Samsung"}, "numOfRows": {"10"}})

	rec := app.do(http.MethodGet, "/search/chart/price?w=99999&h=99999", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	w, h := app.session(t).Search.Chart().Size()
	assert.Equal(t, 1600, w)
	assert.Equal(t, 1000, h)

	body := app.do(http.MethodGet, "/search?w=99999", nil).Body.String()
	assert.Contains(t, body, "w=1600")
	assert.NotContains(t, body, "w=99999")
}

func TestSearch_BlankNameMakesNoRequest(t *testing.T) {
	app := newTestApp(t)

	app.do(http.MethodPost, "/search", url.Values{"itmsNm": {"   "}, "numOfRows": {"10"}})
	rec := app.do(http.MethodGet, "/search", nil)

	assert.Empty(t, app.backend.paths())
	assert.Contains(t, rec.Body.String(), `class="error"`)
}

func TestSearch_FailureLeavesNoOutput(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodPost, "/search", url.Values{"itmsNm": {"Samsung"}, "numOfRows": {"10"}})

	app.backend.mu.Lock()
	app.backend.fail = true
	app.backend.mu.Unlock()

	app.do(http.MethodPost, "/search", url.Values{"itmsNm": {"Samsung"}, "numOfRows": {"10"}})
	rec := app.do(http.MethodGet, "/search", nil)

	body := rec.Body.String()
	assert.Contains(t, body, `class="error"`)
	assert.NotContains(t, body, "price info")
	assert.NotContains(t, body, "/search/chart/price?")

	rec = app.do(http.MethodGet, "/search/chart/price", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSearch_ChartWithoutSessionCreatesNone(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/search/chart/price", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, 0, app.sessions.Len())
}

func TestSearch_ChartBadPane(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/search/chart/pie", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestML_LoadsFilesOnFirstVisit(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/ml", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "samsung.csv")
	assert.Contains(t, body, "lg.csv")
	assert.Contains(t, body, "2 files")

	app.do(http.MethodGet, "/ml", nil)
	assert.Equal(t, []string{client.PathCSVList}, app.backend.paths())
}

func TestML_SelectTrainPredict(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodGet, "/ml", nil)

	rec := app.do(http.MethodPost, "/ml/select/1", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "003550", app.session(t).ML.Selected()[0].StockCode)

	rec = app.do(http.MethodPost, "/ml/model", url.Values{"model_type": {"rnn"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	app.do(http.MethodPost, "/ml/train", nil)
	train := app.backend.last()
	require.NotNil(t, train)
	assert.Equal(t, http.MethodPost, train.Method)
	assert.Equal(t, client.PathTrain, train.URL.Path)
	assert.Equal(t, "003550", train.URL.Query().Get("isin_code"))
	assert.Equal(t, "rnn", train.URL.Query().Get("model_type"))

	app.do(http.MethodPost, "/ml/predict", nil)
	predict := app.backend.last()
	assert.Equal(t, client.PathPredict+"003550", predict.URL.Path)

	body := app.do(http.MethodGet, "/ml", nil).Body.String()
	assert.Contains(t, body, "Training result")
	assert.Contains(t, body, "Prediction result")
	assert.Contains(t, body, "105.2")
}

func TestML_TrainWithoutSelection(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodGet, "/ml", nil)

	app.do(http.MethodPost, "/ml/train", nil)

	assert.Equal(t, []string{client.PathCSVList}, app.backend.paths())
	body := app.do(http.MethodGet, "/ml", nil).Body.String()
	assert.Contains(t, body, `class="error"`)
}

func TestML_GenerateCSVRefreshesList(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodGet, "/ml", nil)

	app.do(http.MethodPost, "/ml/csv", url.Values{"itmsNm": {"Samsung"}})

	require.Eventually(t, func() bool {
		paths := app.backend.paths()
		return len(paths) == 3 && paths[2] == client.PathCSVList
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, client.PathCSVSave, app.backend.paths()[1])

	body := app.do(http.MethodGet, "/ml", nil).Body.String()
	assert.Contains(t, body, "CSV file for &#34;Samsung&#34; was created.")
}

func TestML_BadRouteParams(t *testing.T) {
	app := newTestApp(t)
	app.do(http.MethodGet, "/ml", nil)

	rec := app.do(http.MethodPost, "/ml/select/x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid index"}`, rec.Body.String())

	rec = app.do(http.MethodPost, "/ml/select/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no file at index 9"}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, app.do(http.MethodPost, "/ml/model", url.Values{"model_type": {"gru"}}).Code)
}

func TestReturnPath(t *testing.T) {
	assert.Equal(t, "/ml", returnPath("/ml", session.TabSearch))
	assert.Equal(t, "/search", returnPath("https://x.example/ml", session.TabSearch))
	assert.Equal(t, "/ml", returnPath("", session.TabML))
}
