package clientstate

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweep is the result of one cleanup run
type Sweep struct {
	At          time.Time
	LedgerCache int64
	Preferences int64
}

// Total is the number of rows removed across tables
func (s Sweep) Total() int64 {
	return s.LedgerCache + s.Preferences
}

// CleanupJob drops expired client state on a schedule. Ledger cache rows are
// the ones that normally expire; preferences only do when stored with a TTL.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger

	mu   sync.Mutex
	last Sweep
}

func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "client_state_cleanup").Logger(),
	}
}

func (j *CleanupJob) Run() error {
	counts, err := j.repo.DeleteAllExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Client state sweep failed")
		return err
	}

	sweep := Sweep{
		At:          j.repo.now(),
		LedgerCache: counts[TableLedgerCache],
		Preferences: counts[TablePreferences],
	}
	j.mu.Lock()
	j.last = sweep
	j.mu.Unlock()

	if sweep.Total() == 0 {
		j.log.Debug().Msg("No expired client state")
		return nil
	}
	j.log.Info().
		Int64("ledger_cache", sweep.LedgerCache).
		Int64("preferences", sweep.Preferences).
		Msg("Swept expired client state")
	return nil
}

// LastSweep returns the most recent successful sweep, zero before the first
func (j *CleanupJob) LastSweep() Sweep {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

func (j *CleanupJob) Name() string {
	return "client_state_cleanup"
}
