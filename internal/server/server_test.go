package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clientstate"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/di"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/assistant"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/options"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/portfolios"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/positions"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/selection"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/modules/trading"
	testingpkg "github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/testing"
)

func newTestContainer(t *testing.T) *di.Container {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)

	c := &di.Container{StateDB: testingpkg.NewTestDB(t, clientstate.Schema)}
	ledger := testingpkg.NewMockLedgerClient()

	c.EventBus = events.NewBus(log)
	c.EventManager = events.NewManager(c.EventBus, log)
	c.Directory = portfolios.NewDirectory(ledger, clientstate.NewMemoryStore(nil), c.EventManager, log)
	c.Selections = selection.NewRegistry(c.EventManager, log)
	c.Reconciler = positions.NewReconciler(ledger, c.Directory, c.Selections, c.EventManager, log)
	c.Directory.SetReconciler(c.Reconciler)

	base := trading.Executor{
		Ledger:       ledger,
		Active:       c.Directory,
		Reconciler:   c.Reconciler,
		Gate:         trading.NewMutationGate(true),
		EventManager: c.EventManager,
		Log:          log,
	}
	c.StockExecutor = trading.NewStockExecutor(base)
	c.CryptoExecutor = trading.NewCryptoExecutor(base)
	c.OptionExecutor = options.NewExecutor(base, testingpkg.NewMockPricingClient(), c.Reconciler, c.Reconciler)
	c.Submitters = map[domain.AssetClass]selection.Submitter{
		domain.AssetStock:  c.StockExecutor.Sell,
		domain.AssetCrypto: c.CryptoExecutor.Sell,
		domain.AssetOption: c.OptionExecutor.Sell,
	}
	c.Assistant = assistant.NewSession(testingpkg.NewMockAssistantClient("ok"), c.Reconciler, c.EventManager, log)

	return c
}

func newTestServer(t *testing.T, rps float64, burst int) (*Server, *di.Container) {
	t.Helper()
	c := newTestContainer(t)
	s := New(Config{
		Log:           zerolog.New(nil).Level(zerolog.Disabled),
		Port:          0,
		DevMode:       true,
		Container:     c,
		MutationRPS:   rps,
		MutationBurst: burst,
	})
	return s, c
}

func TestHandleHealth(t *testing.T) {
	s, _ := newTestServer(t, 0, 0)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestCORS_ScopedByDevMode(t *testing.T) {
	tests := []struct {
		name    string
		devMode bool
		origin  string
		allowed bool
	}{
		{"dev allows any origin", true, "http://ui.example.com", true},
		{"prod allows localhost", false, "http://localhost:5173", true},
		{"prod allows loopback ip", false, "http://127.0.0.1:3000", true},
		{"prod rejects foreign origin", false, "http://ui.example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{
				Log:       zerolog.New(nil).Level(zerolog.Disabled),
				DevMode:   tt.devMode,
				Container: newTestContainer(t),
			})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			got := w.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed {
				assert.NotEmpty(t, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestCORSOptions_NoCredentialsWithWildcard(t *testing.T) {
	dev := corsOptions(true)
	assert.Equal(t, []string{"*"}, dev.AllowedOrigins)
	assert.False(t, dev.AllowCredentials)

	prod := corsOptions(false)
	assert.NotContains(t, prod.AllowedOrigins, "*")
	assert.True(t, prod.AllowCredentials)
}

func TestRoutesMounted(t *testing.T) {
	s, c := newTestServer(t, 0, 0)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/portfolios/refresh", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, c.Directory.List(), 2)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/positions/reconcile", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, c.Reconciler.Summary())

	for _, path := range []string{
		"/api/portfolios",
		"/api/positions/summary",
		"/api/selection/stock",
		"/api/trade/stock_buy",
		"/api/options/option_exercise",
		"/api/assistant/",
	} {
		w = httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestMutationRateLimit(t *testing.T) {
	s, _ := newTestServer(t, 0.001, 1)

	post := func() int {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/portfolios/refresh", nil))
		return w.Code
	}
	get := func() int {
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/portfolios", nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
	assert.Equal(t, http.StatusOK, get())
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := rl.LimitMutations(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5001"))
	assert.Equal(t, http.StatusNoContent, send("10.0.0.2:5000"))
}

func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getVisitor("10.0.0.1")
	now = now.Add(5 * time.Minute)
	rl.getVisitor("10.0.0.2")

	assert.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestParseTypes(t *testing.T) {
	assert.Equal(t, events.AllEventTypes, parseTypes(""))
	assert.Equal(t,
		[]events.EventType{events.TradeExecuted, events.StaleRead},
		parseTypes("TRADE_EXECUTED, STALE_READ,,TRADE_EXECUTED"))
}

func readData(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
}

func TestEventsStream(t *testing.T) {
	s, c := newTestServer(t, 0, 0)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events/stream?types=STALE_READ", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)
	assert.Contains(t, readData(t, reader), `"type":"connected"`)

	c.EventManager.Emit(events.TradeExecuted, "test", map[string]interface{}{"symbol": "AAPL"})
	c.EventManager.Emit(events.StaleRead, "test", map[string]interface{}{"resource": "summary"})

	got := readData(t, reader)
	assert.Contains(t, got, `"type":"STALE_READ"`)
	assert.Contains(t, got, `"resource":"summary"`)
}
