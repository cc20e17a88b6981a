package portfolios

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clientstate"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
	testingpkg "github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/testing"
)

type fixture struct {
	dir        *Directory
	ledger     *testingpkg.MockLedgerClient
	store      *clientstate.MemoryStore
	reconciler *testingpkg.MockReconciler
	bus        *events.Bus
}

func newFixture(t *testing.T, seed map[string]string) *fixture {
	t.Helper()
	ledger := testingpkg.NewMockLedgerClient()
	store := clientstate.NewMemoryStore(seed)
	bus := events.NewBus(zerolog.Nop())
	reconciler := testingpkg.NewMockReconciler()

	dir := NewDirectory(ledger, store, events.NewManager(bus, zerolog.Nop()), zerolog.Nop())
	dir.SetReconciler(reconciler)

	return &fixture{dir: dir, ledger: ledger, store: store, reconciler: reconciler, bus: bus}
}

func (f *fixture) loaded(t *testing.T) *fixture {
	t.Helper()
	f.ledger.SetPortfolios(testingpkg.NewPortfolioFixtures())
	require.True(t, f.dir.Refresh(context.Background()))
	return f
}

func countDefaults(list []domain.Portfolio) int {
	n := 0
	for _, p := range list {
		if p.IsDefault {
			n++
		}
	}
	return n
}

func storedActive(t *testing.T, store *clientstate.MemoryStore) (string, bool) {
	t.Helper()
	v, ok, err := store.Get(ActivePortfolioKey)
	require.NoError(t, err)
	return v, ok
}

func TestCreate_FirstPortfolioBecomesDefaultAndActive(t *testing.T) {
	f := newFixture(t, nil)

	created, ok := f.dir.Create(context.Background(), CreateInput{Name: "Growth", InitialCash: "100000"})
	require.True(t, ok)
	require.NotNil(t, created)

	list := f.dir.List()
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDefault)
	assert.Equal(t, "Growth", list[0].Name)

	active, ok := f.dir.ActiveID()
	require.True(t, ok)
	assert.Equal(t, created.ID, active)

	stored, ok := storedActive(t, f.store)
	require.True(t, ok)
	assert.Equal(t, "101", stored)

	assert.Equal(t, []domain.AssetClass{""}, f.reconciler.Classes())
	assert.Empty(t, f.dir.Error())
}

func TestCreate_DefaultNewcomerDemotesOthers(t *testing.T) {
	f := newFixture(t, nil).loaded(t)

	yes := true
	created, ok := f.dir.Create(context.Background(), CreateInput{Name: "Income", InitialCash: "2500.50", SetAsDefault: &yes})
	require.True(t, ok)

	list := f.dir.List()
	require.Len(t, list, 3)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, 1, countDefaults(list))

	active, _ := f.dir.ActiveID()
	assert.Equal(t, created.ID, active)
}

func TestCreate_NonDefaultNewcomerKeepsActive(t *testing.T) {
	f := newFixture(t, nil).loaded(t)

	no := false
	created, ok := f.dir.Create(context.Background(), CreateInput{Name: "Side", InitialCash: "10", SetAsDefault: &no})
	require.True(t, ok)

	list := f.dir.List()
	assert.Equal(t, created.ID, list[len(list)-1].ID)
	active, _ := f.dir.ActiveID()
	assert.Equal(t, int64(1), active)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateInput
		want  string
	}{
		{"empty name", CreateInput{Name: "  ", InitialCash: "100"}, MsgNameRequired},
		{"non numeric cash", CreateInput{Name: "A", InitialCash: "lots"}, MsgInitialCashInvalid},
		{"zero cash", CreateInput{Name: "A", InitialCash: "0"}, MsgInitialCashInvalid},
		{"negative cash", CreateInput{Name: "A", InitialCash: "-5"}, MsgInitialCashInvalid},
		{"empty cash", CreateInput{Name: "A", InitialCash: ""}, MsgInitialCashInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			created, ok := f.dir.Create(context.Background(), tt.input)
			assert.False(t, ok)
			assert.Nil(t, created)
			assert.Equal(t, tt.want, f.dir.Error())
			assert.Equal(t, domain.KindValidation, f.dir.State().ErrorKind)
			assert.Zero(t, f.ledger.Calls(testingpkg.MethodCreatePortfolio))
		})
	}
}

func TestCreate_LedgerMessagePassedThrough(t *testing.T) {
	f := newFixture(t, nil)
	f.ledger.SetError(testingpkg.MethodCreatePortfolio, &domain.APIError{Status: 400, Message: "Portfolio name already exists"})

	_, ok := f.dir.Create(context.Background(), CreateInput{Name: "Growth", InitialCash: "1"})
	assert.False(t, ok)
	assert.Equal(t, "Portfolio name already exists", f.dir.Error())
	assert.Empty(t, f.dir.List())
	assert.Empty(t, f.reconciler.Classes())
}

func TestCreate_TransportFailureUsesFallback(t *testing.T) {
	f := newFixture(t, nil)
	f.ledger.SetError(testingpkg.MethodCreatePortfolio, errors.New("connection refused"))

	_, ok := f.dir.Create(context.Background(), CreateInput{Name: "Growth", InitialCash: "1"})
	assert.False(t, ok)
	assert.Equal(t, MsgCreateFailed, f.dir.Error())
	assert.Equal(t, domain.KindTransport, f.dir.State().ErrorKind)
}

func TestRefresh_ExactlyOneDefault(t *testing.T) {
	f := newFixture(t, nil)
	list := testingpkg.NewPortfolioFixtures()
	list[1].IsDefault = true
	f.ledger.SetPortfolios(list)

	require.True(t, f.dir.Refresh(context.Background()))
	assert.Equal(t, 1, countDefaults(f.dir.List()))
}

func TestRefresh_FailureKeepsCache(t *testing.T) {
	f := newFixture(t, nil).loaded(t)

	var stale []*events.Event
	f.bus.Subscribe(events.StaleRead, func(e *events.Event) { stale = append(stale, e) })

	f.ledger.SetError(testingpkg.MethodListPortfolios, errors.New("timeout"))
	assert.False(t, f.dir.Refresh(context.Background()))

	assert.Len(t, f.dir.List(), 2)
	assert.Equal(t, MsgLoadFailed, f.dir.Error())
	assert.Equal(t, domain.KindStaleRead, f.dir.State().ErrorKind)
	assert.Len(t, stale, 1)
}

func TestRefresh_RestoresPersistedActive(t *testing.T) {
	f := newFixture(t, map[string]string{ActivePortfolioKey: "2"})

	id, ok := f.dir.ActiveID()
	require.True(t, ok)
	assert.Equal(t, int64(2), id)

	f.loaded(t)
	id, _ = f.dir.ActiveID()
	assert.Equal(t, int64(2), id)
}

func TestRefresh_VanishedActiveMovesToDefault(t *testing.T) {
	f := newFixture(t, map[string]string{ActivePortfolioKey: "99"}).loaded(t)

	id, ok := f.dir.ActiveID()
	require.True(t, ok)
	assert.Equal(t, int64(1), id)

	stored, _ := storedActive(t, f.store)
	assert.Equal(t, "1", stored)
}

func TestRefresh_NoDefaultFallsBackToFirst(t *testing.T) {
	f := newFixture(t, nil)
	list := testingpkg.NewPortfolioFixtures()
	list[0].IsDefault = false
	f.ledger.SetPortfolios(list)

	require.True(t, f.dir.Refresh(context.Background()))
	id, _ := f.dir.ActiveID()
	assert.Equal(t, int64(1), id)

	entries := f.dir.List()
	assert.Equal(t, 1, countDefaults(entries))
	assert.True(t, entries[0].IsDefault)
}

func TestSelect_PersistsWithoutRefetch(t *testing.T) {
	f := newFixture(t, nil).loaded(t)

	var changes []*events.Event
	f.bus.Subscribe(events.ActivePortfolioChanged, func(e *events.Event) { changes = append(changes, e) })

	require.True(t, f.dir.Select(2))
	id, _ := f.dir.ActiveID()
	assert.Equal(t, int64(2), id)

	stored, _ := storedActive(t, f.store)
	assert.Equal(t, "2", stored)
	assert.Len(t, changes, 1)
	assert.Equal(t, 1, f.ledger.Calls(testingpkg.MethodListPortfolios))
	assert.Empty(t, f.reconciler.Classes())
}

func TestSelect_UnknownID(t *testing.T) {
	f := newFixture(t, nil).loaded(t)

	assert.False(t, f.dir.Select(42))
	assert.Equal(t, MsgPortfolioNotFound, f.dir.Error())
	id, _ := f.dir.ActiveID()
	assert.Equal(t, int64(1), id)
}

func TestDelete_OnlyPortfolioRejectedLocally(t *testing.T) {
	f := newFixture(t, nil)
	f.ledger.SetPortfolios(testingpkg.NewPortfolioFixtures()[:1])
	require.True(t, f.dir.Refresh(context.Background()))

	assert.False(t, f.dir.Delete(context.Background(), 1))
	assert.Equal(t, MsgCannotDeleteOnly, f.dir.Error())
	assert.Zero(t, f.ledger.Calls(testingpkg.MethodDeletePortfolio))
	assert.Len(t, f.dir.List(), 1)
}

func TestDelete_ActiveMovesToNewDefault(t *testing.T) {
	f := newFixture(t, nil)
	list := append(testingpkg.NewPortfolioFixtures(), domain.Portfolio{ID: 3, Name: "Third"})
	f.ledger.SetPortfolios(list)
	require.True(t, f.dir.Refresh(context.Background()))

	newDefault := int64(3)
	f.ledger.SetDeleteResult(&domain.DeletePortfolioResult{PortfolioID: 1, NewDefaultID: &newDefault})

	require.True(t, f.dir.Delete(context.Background(), 1))

	id, _ := f.dir.ActiveID()
	assert.Equal(t, int64(3), id)

	remaining := f.dir.List()
	require.Len(t, remaining, 2)
	assert.False(t, remaining[0].IsDefault)
	assert.True(t, remaining[1].IsDefault)

	stored, _ := storedActive(t, f.store)
	assert.Equal(t, "3", stored)
	assert.Equal(t, []domain.AssetClass{""}, f.reconciler.Classes())
}

func TestDelete_ActiveMovesToFirstRemaining(t *testing.T) {
	f := newFixture(t, map[string]string{ActivePortfolioKey: "2"})
	list := append(testingpkg.NewPortfolioFixtures(), domain.Portfolio{ID: 3, Name: "Third"})
	f.ledger.SetPortfolios(list)
	require.True(t, f.dir.Refresh(context.Background()))

	require.True(t, f.dir.Delete(context.Background(), 2))

	id, _ := f.dir.ActiveID()
	assert.Equal(t, int64(1), id)
}

func TestDelete_InactiveKeepsActive(t *testing.T) {
	f := newFixture(t, nil).loaded(t)

	require.True(t, f.dir.Delete(context.Background(), 2))
	id, _ := f.dir.ActiveID()
	assert.Equal(t, int64(1), id)
	assert.Len(t, f.dir.List(), 1)
}

func TestDelete_NothingRemainsClearsPersistedID(t *testing.T) {
	f := newFixture(t, map[string]string{ActivePortfolioKey: "5"})

	require.True(t, f.dir.Delete(context.Background(), 5))

	_, ok := f.dir.ActiveID()
	assert.False(t, ok)
	_, ok = storedActive(t, f.store)
	assert.False(t, ok)
}

func TestDelete_LedgerRejection(t *testing.T) {
	f := newFixture(t, nil).loaded(t)
	f.ledger.SetError(testingpkg.MethodDeletePortfolio, &domain.APIError{Status: 500})

	assert.False(t, f.dir.Delete(context.Background(), 2))
	assert.Equal(t, MsgDeleteFailed, f.dir.Error())
	assert.Len(t, f.dir.List(), 2)
}

func TestRename(t *testing.T) {
	f := newFixture(t, nil).loaded(t)

	_, ok := f.dir.Rename(context.Background(), 2, " ")
	assert.False(t, ok)
	assert.Equal(t, MsgNameEmpty, f.dir.Error())
	assert.Zero(t, f.ledger.Calls(testingpkg.MethodRenamePortfolio))

	renamed, ok := f.dir.Rename(context.Background(), 2, "Long Term")
	require.True(t, ok)
	assert.Equal(t, "Long Term", renamed.Name)
	assert.Equal(t, "Long Term", f.dir.List()[1].Name)
	assert.Empty(t, f.dir.Error())
}

func TestRename_Failure(t *testing.T) {
	f := newFixture(t, nil).loaded(t)
	f.ledger.SetError(testingpkg.MethodRenamePortfolio, errors.New("reset by peer"))

	_, ok := f.dir.Rename(context.Background(), 2, "X")
	assert.False(t, ok)
	assert.Equal(t, MsgUpdateFailed, f.dir.Error())
	assert.Equal(t, "Growth", f.dir.List()[1].Name)
}

func TestSetDefault_FlipsFlags(t *testing.T) {
	f := newFixture(t, nil).loaded(t)

	updated, ok := f.dir.SetDefault(context.Background(), 2)
	require.True(t, ok)
	assert.True(t, updated.IsDefault)

	list := f.dir.List()
	assert.False(t, list[0].IsDefault)
	assert.True(t, list[1].IsDefault)
	assert.Equal(t, 1, countDefaults(list))
}

func TestSetDefault_Failure(t *testing.T) {
	f := newFixture(t, nil).loaded(t)
	f.ledger.SetError(testingpkg.MethodSetDefaultPortfolio, errors.New("boom"))

	_, ok := f.dir.SetDefault(context.Background(), 2)
	assert.False(t, ok)
	assert.Equal(t, MsgSetDefaultFailed, f.dir.Error())
	assert.True(t, f.dir.List()[0].IsDefault)
}

func TestList_ReturnsCopy(t *testing.T) {
	f := newFixture(t, nil).loaded(t)

	list := f.dir.List()
	list[0].Name = "mutated"
	assert.Equal(t, "Main", f.dir.List()[0].Name)
}
