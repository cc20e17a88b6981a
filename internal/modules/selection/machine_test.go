package selection

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/events"
)

func newMachine(class domain.AssetClass) *Machine {
	return NewMachine(class, events.NewManager(events.NewBus(zerolog.Nop()), zerolog.Nop()), zerolog.Nop())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func succeed(msg string) Submitter {
	return func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
		return domain.Succeeded(msg)
	}
}

func TestSelectPosition_PendingStartsAtMax(t *testing.T) {
	m := newMachine(domain.AssetStock)
	require.NoError(t, m.SelectPosition("AAPL", dec("37")))

	s := m.State()
	assert.Equal(t, StatusSelected, s.Status)
	assert.Equal(t, "AAPL", s.TargetID)
	assert.True(t, dec("37").Equal(s.PendingQty))
	assert.True(t, dec("37").Equal(s.MaxQty))
}

func TestSetPendingQty_ClampsToHeldQuantity(t *testing.T) {
	m := newMachine(domain.AssetStock)
	require.NoError(t, m.SelectPosition("AAPL", dec("37")))

	m.SetPendingQty(dec("50"))
	assert.True(t, dec("37").Equal(m.State().PendingQty))
}

func TestSetPendingQty_Bounds(t *testing.T) {
	tests := []struct {
		name  string
		class domain.AssetClass
		max   string
		input string
		want  string
	}{
		{"stock below one", domain.AssetStock, "10", "0", "1"},
		{"stock negative", domain.AssetStock, "10", "-3", "1"},
		{"stock in range", domain.AssetStock, "10", "4", "4"},
		{"option above max", domain.AssetOption, "2", "9", "2"},
		{"crypto zero allowed", domain.AssetCrypto, "0.75", "0", "0"},
		{"crypto negative", domain.AssetCrypto, "0.75", "-1", "0"},
		{"crypto fractional", domain.AssetCrypto, "0.75", "0.333", "0.333"},
		{"crypto above max", domain.AssetCrypto, "0.75", "1.5", "0.75"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(tt.class)
			require.NoError(t, m.SelectPosition("x", dec(tt.max)))
			m.SetPendingQty(dec(tt.input))

			s := m.State()
			assert.True(t, dec(tt.want).Equal(s.PendingQty), "got %s", s.PendingQty)
			assert.False(t, s.PendingQty.LessThan(s.LowerBound))
			assert.False(t, s.PendingQty.GreaterThan(s.MaxQty))
		})
	}
}

func TestSelectPosition_DiscreteClassesFloorHeldQuantity(t *testing.T) {
	m := newMachine(domain.AssetStock)
	require.NoError(t, m.SelectPosition("AAPL", dec("10.7")))

	s := m.State()
	assert.True(t, dec("10").Equal(s.MaxQty), "got %s", s.MaxQty)
	assert.True(t, dec("10").Equal(s.PendingQty), "got %s", s.PendingQty)

	// the unrounded holding still counts as unchanged
	m.Sync(map[string]decimal.Decimal{"AAPL": dec("10.7")})
	assert.Equal(t, StatusSelected, m.State().Status)
}

func TestSelectPosition_CryptoKeepsFractionalMax(t *testing.T) {
	m := newMachine(domain.AssetCrypto)
	require.NoError(t, m.SelectPosition("BTC/USD", dec("0.75")))
	assert.True(t, dec("0.75").Equal(m.State().MaxQty))
}

func TestSetPendingQty_DiscreteClassesTruncate(t *testing.T) {
	tests := []struct {
		name  string
		class domain.AssetClass
		input string
		want  string
	}{
		{"stock fraction", domain.AssetStock, "2.5", "2"},
		{"stock below one", domain.AssetStock, "0.9", "1"},
		{"option fraction", domain.AssetOption, "1.5", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMachine(tt.class)
			require.NoError(t, m.SelectPosition("x", dec("10")))
			m.SetPendingQty(dec(tt.input))
			assert.True(t, dec(tt.want).Equal(m.State().PendingQty), "got %s", m.State().PendingQty)
		})
	}
}

func TestSubmit_DiscreteClassSubmitsWholeQuantity(t *testing.T) {
	m := newMachine(domain.AssetStock)
	require.NoError(t, m.SelectPosition("AAPL", dec("10.7")))
	m.SetPendingQty(dec("2.5"))

	var gotQty decimal.Decimal
	_, err := m.Submit(context.Background(), func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
		gotQty = qty
		return domain.Succeeded("ok")
	})
	require.NoError(t, err)
	assert.True(t, dec("2").Equal(gotQty), "got %s", gotQty)
}

func TestSetPendingQty_IdleIsNoop(t *testing.T) {
	m := newMachine(domain.AssetStock)
	m.SetPendingQty(dec("5"))
	assert.Equal(t, StatusIdle, m.State().Status)
	assert.True(t, m.State().PendingQty.IsZero())
}

func TestClearSelection(t *testing.T) {
	m := newMachine(domain.AssetOption)
	require.NoError(t, m.SelectPosition("11", dec("2")))
	m.ClearSelection()

	s := m.State()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.TargetID)
}

func TestSubmit_SuccessReturnsToIdle(t *testing.T) {
	m := newMachine(domain.AssetStock)
	require.NoError(t, m.SelectPosition("AAPL", dec("37")))
	m.SetPendingQty(dec("10"))

	var gotTarget string
	var gotQty decimal.Decimal
	outcome, err := m.Submit(context.Background(), func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
		gotTarget, gotQty = targetID, qty
		assert.Equal(t, StatusSubmitting, m.State().Status)
		return domain.Succeeded("Sold 10 AAPL @ $190.00")
	})
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, "AAPL", gotTarget)
	assert.True(t, dec("10").Equal(gotQty))

	s := m.State()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, "Sold 10 AAPL @ $190.00", s.Success)
}

func TestSubmit_FailureKeepsSelectionWithError(t *testing.T) {
	m := newMachine(domain.AssetCrypto)
	require.NoError(t, m.SelectPosition("BTC/USD", dec("0.75")))
	m.SetPendingQty(dec("0.5"))

	outcome, err := m.Submit(context.Background(), func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
		return domain.Failed(domain.KindExecution, "Insufficient quantity")
	})
	require.NoError(t, err)
	assert.False(t, outcome.Success)

	s := m.State()
	assert.Equal(t, StatusSelected, s.Status)
	assert.Equal(t, "BTC/USD", s.TargetID)
	assert.True(t, dec("0.5").Equal(s.PendingQty))
	assert.Equal(t, "Insufficient quantity", s.Error)
	assert.Equal(t, domain.KindExecution, s.ErrorKind)
}

func TestSubmit_ZeroQuantityRejected(t *testing.T) {
	m := newMachine(domain.AssetCrypto)
	require.NoError(t, m.SelectPosition("BTC/USD", dec("0.75")))
	m.SetPendingQty(dec("0"))

	called := false
	outcome, err := m.Submit(context.Background(), func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
		called = true
		return domain.Succeeded("")
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, MsgQuantityRequired, outcome.Message)
	assert.Equal(t, StatusSelected, m.State().Status)
}

func TestSubmit_WithoutSelection(t *testing.T) {
	m := newMachine(domain.AssetStock)
	_, err := m.Submit(context.Background(), succeed("x"))
	assert.ErrorIs(t, err, ErrNotSelected)
}

func TestSelectPosition_RefusedWhileSubmitting(t *testing.T) {
	m := newMachine(domain.AssetStock)
	require.NoError(t, m.SelectPosition("AAPL", dec("37")))

	_, err := m.Submit(context.Background(), func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
		assert.ErrorIs(t, m.SelectPosition("MSFT", dec("5")), ErrSubmitting)
		return domain.Succeeded("done")
	})
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, m.State().Status)
}

func TestSubmit_ConcurrentSubmitsAreIndependent(t *testing.T) {
	m := newMachine(domain.AssetStock)
	require.NoError(t, m.SelectPosition("AAPL", dec("37")))

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	var first domain.Outcome

	wg.Add(1)
	go func() {
		defer wg.Done()
		first, _ = m.Submit(context.Background(), func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
			close(started)
			<-release
			return domain.Succeeded("first")
		})
	}()
	<-started

	second, err := m.Submit(context.Background(), func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
		return domain.Failed(domain.KindExecution, "second failed")
	})
	require.NoError(t, err)
	assert.Equal(t, "second failed", second.Message)

	close(release)
	wg.Wait()

	assert.True(t, first.Success)
	assert.Equal(t, StatusIdle, m.State().Status)
}

func TestSync_ClearsStaleSelection(t *testing.T) {
	m := newMachine(domain.AssetStock)
	require.NoError(t, m.SelectPosition("AAPL", dec("37")))

	m.Sync(map[string]decimal.Decimal{"AAPL": dec("37")})
	assert.Equal(t, StatusSelected, m.State().Status)

	m.Sync(map[string]decimal.Decimal{"AAPL": dec("30")})
	assert.Equal(t, StatusIdle, m.State().Status)
}

func TestSubmit_FailureAfterHoldingsChangedClearsSelection(t *testing.T) {
	m := newMachine(domain.AssetStock)
	require.NoError(t, m.SelectPosition("AAPL", dec("37")))

	outcome, err := m.Submit(context.Background(), func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
		m.Sync(map[string]decimal.Decimal{"AAPL": dec("5")})
		assert.Equal(t, StatusSubmitting, m.State().Status)
		return domain.Failed(domain.KindExecution, "Insufficient quantity")
	})
	require.NoError(t, err)
	assert.False(t, outcome.Success)

	s := m.State()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Empty(t, s.TargetID)
	assert.True(t, s.MaxQty.IsZero())
	assert.Equal(t, "Insufficient quantity", s.Error)
}

func TestSubmit_FailureWithUnchangedHoldingsKeepsSelection(t *testing.T) {
	m := newMachine(domain.AssetStock)
	require.NoError(t, m.SelectPosition("AAPL", dec("37")))

	_, err := m.Submit(context.Background(), func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
		m.Sync(map[string]decimal.Decimal{"AAPL": dec("37")})
		return domain.Failed(domain.KindExecution, "nope")
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSelected, m.State().Status)
	assert.True(t, dec("37").Equal(m.State().MaxQty))
}

func TestSync_ClearsWhenTargetGone(t *testing.T) {
	m := newMachine(domain.AssetOption)
	require.NoError(t, m.SelectPosition("11", dec("2")))

	m.Sync(map[string]decimal.Decimal{"12": dec("1")})
	assert.Equal(t, StatusIdle, m.State().Status)
}

func TestSync_IgnoresIdle(t *testing.T) {
	m := newMachine(domain.AssetOption)
	m.Sync(nil)
	assert.Equal(t, StatusIdle, m.State().Status)
}

func TestSelectPosition_ClearsMessages(t *testing.T) {
	m := newMachine(domain.AssetStock)
	require.NoError(t, m.SelectPosition("AAPL", dec("37")))
	_, _ = m.Submit(context.Background(), func(ctx context.Context, targetID string, qty decimal.Decimal) domain.Outcome {
		return domain.Failed(domain.KindExecution, "nope")
	})
	require.Equal(t, "nope", m.State().Error)

	require.NoError(t, m.SelectPosition("AAPL", dec("37")))
	assert.Empty(t, m.State().Error)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(nil, zerolog.Nop())
	for _, class := range domain.AllAssetClasses {
		m, err := r.Get(class)
		require.NoError(t, err)
		assert.Equal(t, class, m.AssetClass())
	}

	_, err := r.Get("bond")
	assert.Error(t, err)

	stock, _ := r.Get(domain.AssetStock)
	require.NoError(t, stock.SelectPosition("AAPL", dec("3")))
	r.Sync(domain.AssetStock, map[string]decimal.Decimal{})
	assert.Equal(t, StatusIdle, stock.State().Status)
}
