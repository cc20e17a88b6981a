package positions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
	testingpkg "github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/testing"
)

type fixedActive struct {
	id int64
	ok bool
}

func (f fixedActive) ActiveID() (int64, bool) { return f.id, f.ok }

type recordingSyncer struct {
	calls map[domain.AssetClass][]map[string]decimal.Decimal
}

func (s *recordingSyncer) Sync(class domain.AssetClass, holdings map[string]decimal.Decimal) {
	if s.calls == nil {
		s.calls = make(map[domain.AssetClass][]map[string]decimal.Decimal)
	}
	s.calls[class] = append(s.calls[class], holdings)
}

func newReconciler(t *testing.T, active ActivePortfolio) (*Reconciler, *testingpkg.MockLedgerClient, *recordingSyncer, *events.Bus) {
	t.Helper()
	ledger := testingpkg.NewMockLedgerClient()
	ledger.SetSummary(testingpkg.NewSummaryFixture())
	ledger.SetOptionPositions(testingpkg.NewOptionPositionFixtures())
	ledger.SetCryptoPositions(testingpkg.NewCryptoPositionFixtures())
	ledger.SetCryptoAssets(testingpkg.NewCryptoAssetFixtures())

	syncer := &recordingSyncer{}
	bus := events.NewBus(zerolog.Nop())
	r := NewReconciler(ledger, active, syncer, events.NewManager(bus, zerolog.Nop()), zerolog.Nop())
	return r, ledger, syncer, bus
}

func TestReconcile_SummaryThenClassList(t *testing.T) {
	r, ledger, _, _ := newReconciler(t, fixedActive{id: 1, ok: true})

	r.Reconcile(context.Background(), domain.AssetOption)

	assert.Equal(t, []string{testingpkg.MethodGetSummary, testingpkg.MethodListOptionPositions}, ledger.CallLog())
	require.NotNil(t, r.Summary())
	assert.Len(t, r.OptionPositions(), 2)
	assert.Empty(t, r.CryptoPositions())

	require.Len(t, ledger.SummaryRequests, 1)
	require.NotNil(t, ledger.SummaryRequests[0])
	assert.Equal(t, int64(1), *ledger.SummaryRequests[0])
}

func TestReconcile_StockOnlyRefetchesSummary(t *testing.T) {
	r, ledger, _, _ := newReconciler(t, fixedActive{id: 1, ok: true})

	r.Reconcile(context.Background(), domain.AssetStock)
	assert.Equal(t, []string{testingpkg.MethodGetSummary}, ledger.CallLog())
}

func TestReconcile_AllClasses(t *testing.T) {
	r, ledger, _, _ := newReconciler(t, fixedActive{id: 1, ok: true})

	r.Reconcile(context.Background(), "")
	assert.Equal(t, []string{
		testingpkg.MethodGetSummary,
		testingpkg.MethodListOptionPositions,
		testingpkg.MethodListCryptoPositions,
	}, ledger.CallLog())
	assert.Len(t, r.CryptoPositions(), 1)
}

func TestReconcile_NoActiveUsesSummaryPortfolio(t *testing.T) {
	r, ledger, _, _ := newReconciler(t, fixedActive{})

	r.Reconcile(context.Background(), domain.AssetCrypto)

	require.Len(t, ledger.SummaryRequests, 1)
	assert.Nil(t, ledger.SummaryRequests[0])
	assert.Equal(t, 1, ledger.Calls(testingpkg.MethodListCryptoPositions))
}

func TestReconcile_NothingLoadedSkipsLists(t *testing.T) {
	r, ledger, _, _ := newReconciler(t, fixedActive{})
	ledger.SetError(testingpkg.MethodGetSummary, errors.New("down"))

	r.Reconcile(context.Background(), "")
	assert.Zero(t, ledger.Calls(testingpkg.MethodListOptionPositions))
	assert.Zero(t, ledger.Calls(testingpkg.MethodListCryptoPositions))
}

func TestReconcile_FailureKeepsPreviousCache(t *testing.T) {
	r, ledger, _, bus := newReconciler(t, fixedActive{id: 1, ok: true})
	r.Reconcile(context.Background(), "")
	require.NotNil(t, r.Summary())

	var stale []*events.Event
	bus.Subscribe(events.StaleRead, func(e *events.Event) { stale = append(stale, e) })

	ledger.SetError(testingpkg.MethodGetSummary, errors.New("timeout"))
	ledger.SetError(testingpkg.MethodListOptionPositions, &domain.APIError{Status: 404, Message: "Portfolio not found"})
	ledger.SetError(testingpkg.MethodListCryptoPositions, &domain.APIError{Status: 502})

	r.Reconcile(context.Background(), "")

	assert.NotNil(t, r.Summary())
	assert.Len(t, r.OptionPositions(), 2)
	assert.Len(t, r.CryptoPositions(), 1)

	assert.Equal(t, MsgSummaryFailed, r.Error(ResourceSummary))
	assert.Equal(t, "Portfolio not found", r.Error(ResourceOptions))
	assert.Equal(t, MsgCryptoFailed, r.Error(ResourceCrypto))
	assert.Len(t, stale, 3)

	ledger.SetError(testingpkg.MethodGetSummary, nil)
	r.Reconcile(context.Background(), domain.AssetStock)
	assert.Empty(t, r.Error(ResourceSummary))
	assert.Len(t, r.State().Errors, 2)
}

func TestReconcile_SyncsSelections(t *testing.T) {
	r, _, syncer, _ := newReconciler(t, fixedActive{id: 1, ok: true})

	r.Reconcile(context.Background(), "")

	require.Len(t, syncer.calls[domain.AssetStock], 1)
	assert.True(t, decimal.NewFromInt(37).Equal(syncer.calls[domain.AssetStock][0]["AAPL"]))

	require.Len(t, syncer.calls[domain.AssetOption], 1)
	assert.True(t, decimal.NewFromInt(2).Equal(syncer.calls[domain.AssetOption][0]["11"]))

	require.Len(t, syncer.calls[domain.AssetCrypto], 1)
	assert.True(t, decimal.RequireFromString("0.75").Equal(syncer.calls[domain.AssetCrypto][0]["BTC/USD"]))
}

func TestReconcile_FailedFetchDoesNotSync(t *testing.T) {
	r, ledger, syncer, _ := newReconciler(t, fixedActive{id: 1, ok: true})
	ledger.SetError(testingpkg.MethodListOptionPositions, errors.New("down"))

	r.Reconcile(context.Background(), domain.AssetOption)
	assert.Empty(t, syncer.calls[domain.AssetOption])
}

func TestReconcile_EmitsEvents(t *testing.T) {
	r, _, _, bus := newReconciler(t, fixedActive{id: 1, ok: true})

	var reconciled, refreshed int
	bus.Subscribe(events.PositionsReconciled, func(e *events.Event) { reconciled++ })
	bus.Subscribe(events.SummaryRefreshed, func(e *events.Event) { refreshed++ })

	r.Reconcile(context.Background(), "")
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, 3, reconciled)
}

func TestOptionPositionLookup(t *testing.T) {
	r, _, _, _ := newReconciler(t, fixedActive{id: 1, ok: true})
	r.Reconcile(context.Background(), domain.AssetOption)

	p, ok := r.OptionPosition(11)
	require.True(t, ok)
	assert.Equal(t, "AAPL", p.UnderlyingSymbol)

	_, ok = r.OptionPosition(999)
	assert.False(t, ok)
}

func TestRefreshCryptoAssets(t *testing.T) {
	r, ledger, _, _ := newReconciler(t, fixedActive{id: 1, ok: true})

	require.True(t, r.RefreshCryptoAssets(context.Background()))
	assert.Len(t, r.CryptoAssets(), 2)

	ledger.SetError(testingpkg.MethodListCryptoAssets, errors.New("down"))
	assert.False(t, r.RefreshCryptoAssets(context.Background()))
	assert.Len(t, r.CryptoAssets(), 2)
	assert.Equal(t, MsgCryptoAssetsFailed, r.Error(ResourceCryptoAssets))
}

func TestRefreshJob(t *testing.T) {
	r, ledger, _, _ := newReconciler(t, fixedActive{id: 1, ok: true})
	job := NewRefreshJob(r, time.Second, zerolog.Nop())

	assert.Equal(t, "positions_refresh", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, 1, ledger.Calls(testingpkg.MethodGetSummary))
	assert.Equal(t, 1, ledger.Calls(testingpkg.MethodListCryptoAssets))
	assert.Len(t, r.CryptoAssets(), 2)
}

func TestHoldings(t *testing.T) {
	r, _, _, _ := newReconciler(t, fixedActive{id: 1, ok: true})
	assert.Empty(t, r.Holdings(domain.AssetStock))

	r.Reconcile(context.Background(), "")

	stock := r.Holdings(domain.AssetStock)
	assert.Len(t, stock, 2)
	assert.True(t, decimal.NewFromInt(5).Equal(stock["MSFT"]))

	options := r.Holdings(domain.AssetOption)
	assert.True(t, options["12"].IsZero())
	assert.Contains(t, options, "11")

	assert.Contains(t, r.Holdings(domain.AssetCrypto), "BTC/USD")
}
