// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dkuznetsov/homeledger/internal/domain/ledger"
	"github.com/dkuznetsov/homeledger/internal/domain/recurring"
	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	store     ledger.Store
	search    *ledger.SearchIndex // nil disables indexing
	templates []*recurring.Template
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler. The search index is optional.
func NewScheduler(store ledger.Store, search *ledger.SearchIndex, templates []*recurring.Template, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		store:     store,
		search:    search,
		templates: templates,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Recurring materialization: runs daily at 2:00 AM
	_, err := s.cron.AddFunc("0 2 * * *", s.materializeDue)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.Int("templates", len(s.templates)),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers the recurring materialization immediately, without waiting
// for the next scheduled run. Blocks until the pass completes.
func (s *Scheduler) RunNow() {
	s.materializeDue()
}

// materializeDue emits every due occurrence of every template into the
// ledger. Occurrence SourceIDs are deterministic, so templates are replayed
// from their start date on every run and the dedupe key set drops anything
// already committed. Crashed or skipped runs therefore need no catch-up
// bookkeeping.
func (s *Scheduler) materializeDue() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.Materialize(ctx, time.Now()); err != nil {
		s.logger.Error("recurring materialization failed", slog.Any("error", err))
	}
}

// Materialize runs one materialization pass as of the given time.
func (s *Scheduler) Materialize(ctx context.Context, asOf time.Time) error {
	s.logger.Info("starting recurring materialization",
		slog.Time("as_of", asOf),
	)

	keys, err := s.store.ExistingKeys(ctx)
	if err != nil {
		return err
	}

	created := 0
	skipped := 0

	for _, tpl := range s.templates {
		// Replay from scratch; LastCreated persistence lives in the
		// ledger itself via the dedupe keys.
		replay := *tpl
		replay.LastCreated = time.Time{}

		var due []*transaction.Record
		for _, rec := range recurring.Materialize(&replay, asOf) {
			key := rec.DedupeKey()
			if _, seen := keys[key]; seen {
				skipped++
				continue
			}
			keys[key] = struct{}{}
			due = append(due, rec)
		}
		if len(due) == 0 {
			continue
		}

		if err := s.store.Append(ctx, due...); err != nil {
			s.logger.Warn("failed to append recurring records",
				slog.String("template", tpl.Name),
				slog.Any("error", err),
			)
			continue
		}
		if s.search != nil {
			if err := s.search.Index(due...); err != nil {
				s.logger.Warn("failed to index recurring records",
					slog.String("template", tpl.Name),
					slog.Any("error", err),
				)
			}
		}

		s.logger.Debug("materialized recurring template",
			slog.String("template", tpl.Name),
			slog.Int("occurrences", len(due)),
		)
		created += len(due)
	}

	s.logger.Info("recurring materialization completed",
		slog.Int("created", created),
		slog.Int("already_present", skipped),
	)
	return nil
}
