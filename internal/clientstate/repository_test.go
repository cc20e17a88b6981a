package clientstate

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/database"
)

func setupTestRepo(t *testing.T) (*Repository, *database.DB) {
	t.Helper()

	db, err := database.New(database.Config{
		Path: fmt.Sprintf("file:%s?mode=memory", t.Name()),
		Name: "client_state",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(Schema))
	return NewRepository(db.Conn()), db
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo, _ := setupTestRepo(t)

	assets := []map[string]interface{}{{"symbol": "BTC/USD", "tradable": true}}
	require.NoError(t, repo.Store(TableLedgerCache, "crypto_assets", assets, time.Hour))

	raw, err := repo.GetIfFresh(TableLedgerCache, "crypto_assets")
	require.NoError(t, err)
	require.NotNil(t, raw)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "BTC/USD", decoded[0]["symbol"])
}

func TestGetIfFresh_ExpiredReturnsNilButGetReturnsStale(t *testing.T) {
	repo, _ := setupTestRepo(t)

	base := time.Now()
	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Store(TableLedgerCache, "crypto_assets", []string{"ETH/USD"}, time.Minute))

	repo.now = func() time.Time { return base.Add(2 * time.Minute) }

	raw, err := repo.GetIfFresh(TableLedgerCache, "crypto_assets")
	require.NoError(t, err)
	assert.Nil(t, raw)

	stale, err := repo.Get(TableLedgerCache, "crypto_assets")
	require.NoError(t, err)
	assert.JSONEq(t, `["ETH/USD"]`, string(stale))
}

func TestStore_ZeroTTLNeverExpires(t *testing.T) {
	repo, _ := setupTestRepo(t)

	base := time.Now()
	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Store(TablePreferences, "k", "v", 0))

	repo.now = func() time.Time { return base.Add(365 * 24 * time.Hour) }
	raw, err := repo.GetIfFresh(TablePreferences, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `"v"`, string(raw))

	deleted, err := repo.DeleteExpired(TablePreferences)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestInvalidTableRejected(t *testing.T) {
	repo, _ := setupTestRepo(t)

	assert.Error(t, repo.Store("users; DROP TABLE preferences", "k", "v", 0))
	_, err := repo.Get("nope", "k")
	assert.Error(t, err)
	_, err = repo.DeleteExpired("nope")
	assert.Error(t, err)
}

func TestDeleteAllExpired(t *testing.T) {
	repo, _ := setupTestRepo(t)

	base := time.Now()
	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Store(TableLedgerCache, "a", 1, time.Second))
	require.NoError(t, repo.Store(TableLedgerCache, "b", 2, time.Hour))
	require.NoError(t, repo.Store(TablePreferences, "c", "keep", 0))

	repo.now = func() time.Time { return base.Add(time.Minute) }
	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results[TableLedgerCache])
	assert.Equal(t, int64(0), results[TablePreferences])

	b, err := repo.Get(TableLedgerCache, "b")
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestCleanupJob(t *testing.T) {
	repo, _ := setupTestRepo(t)

	base := time.Now()
	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Store(TableLedgerCache, "a", 1, time.Second))
	require.NoError(t, repo.Store(TableLedgerCache, "b", 2, time.Second))
	require.NoError(t, repo.Store(TablePreferences, "theme", "dark", time.Second))
	require.NoError(t, repo.Store(TablePreferences, "active", "1", 0))

	job := NewCleanupJob(repo, zerolog.Nop())
	assert.Equal(t, "client_state_cleanup", job.Name())
	assert.Equal(t, Sweep{}, job.LastSweep())

	later := base.Add(time.Minute)
	repo.now = func() time.Time { return later }
	require.NoError(t, job.Run())

	sweep := job.LastSweep()
	assert.Equal(t, int64(2), sweep.LedgerCache)
	assert.Equal(t, int64(1), sweep.Preferences)
	assert.Equal(t, int64(3), sweep.Total())
	assert.True(t, later.Equal(sweep.At))

	raw, err := repo.Get(TableLedgerCache, "a")
	require.NoError(t, err)
	assert.Nil(t, raw)
	kept, err := repo.Get(TablePreferences, "active")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestCleanupJob_EmptySweep(t *testing.T) {
	repo, _ := setupTestRepo(t)
	job := NewCleanupJob(repo, zerolog.Nop())

	require.NoError(t, job.Run())
	assert.Zero(t, job.LastSweep().Total())
	assert.False(t, job.LastSweep().At.IsZero())
}
