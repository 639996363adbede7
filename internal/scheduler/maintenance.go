package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/spotledger/spotledger/internal/database"
)

// LedgerMaintenanceJob checkpoints the ledger WAL so the append-only log
// cannot grow an unbounded WAL file on a long-running instance.
type LedgerMaintenanceJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewLedgerMaintenanceJob creates the WAL maintenance job
func NewLedgerMaintenanceJob(db *database.DB, log zerolog.Logger) *LedgerMaintenanceJob {
	return &LedgerMaintenanceJob{
		db:  db,
		log: log.With().Str("job", "ledger_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *LedgerMaintenanceJob) Name() string {
	return "ledger_maintenance"
}

// Run performs the WAL checkpoint and logs database size statistics
func (j *LedgerMaintenanceJob) Run() error {
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		return err
	}

	stats, err := j.db.GetStats()
	if err != nil {
		return err
	}

	j.log.Info().
		Int64("size_bytes", stats.SizeBytes).
		Int64("wal_size_bytes", stats.WALSizeBytes).
		Int64("page_count", stats.PageCount).
		Msg("Ledger maintenance completed")

	return nil
}

// IntegrityCheckJob runs the full SQLite integrity check. Expensive, so it is
// scheduled far less often than the WAL checkpoint.
type IntegrityCheckJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewIntegrityCheckJob creates the integrity check job
func NewIntegrityCheckJob(db *database.DB, log zerolog.Logger) *IntegrityCheckJob {
	return &IntegrityCheckJob{
		db:  db,
		log: log.With().Str("job", "integrity_check").Logger(),
	}
}

// Name returns the job name
func (j *IntegrityCheckJob) Name() string {
	return "integrity_check"
}

// Run performs the integrity check with a generous timeout
func (j *IntegrityCheckJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		return err
	}

	j.log.Info().Msg("Ledger integrity check passed")
	return nil
}
