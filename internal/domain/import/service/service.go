// Package service orchestrates statement imports end to end: format
// detection, parsing, normalization, categorization, duplicate suppression,
// and the final batch commit into the ledger.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dkuznetsov/homeledger/internal/domain/categorization"
	"github.com/dkuznetsov/homeledger/internal/domain/import/normalizer"
	"github.com/dkuznetsov/homeledger/internal/domain/import/parser"
	"github.com/dkuznetsov/homeledger/internal/domain/ledger"
	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

// Options tweaks one import run.
type Options struct {
	// Format forces a specific parser by name; empty runs detection.
	Format string
	// DefaultCurrency and DefaultAccount fill fields the statement lacks.
	DefaultCurrency string
	DefaultAccount  string
	// Location resolves statement-local timestamps.
	Location *time.Location
	// IncludeNeedsReview commits records with field errors instead of
	// dropping them from the batch. They stay flagged for review.
	IncludeNeedsReview bool
}

// ImportSummary reports what happened to a batch. Every parsed record is
// accounted for in exactly one of the counters.
type ImportSummary struct {
	Parser      string   `json:"parser"`
	Total       int      `json:"total"`
	Added       int      `json:"added"`
	Duplicates  int      `json:"duplicates"`
	NeedsReview int      `json:"needs_review"`
	Dropped     int      `json:"dropped"` // needs_review rows not opted into the commit
	Errors      []string `json:"errors,omitempty"`
}

// Config wires the service's collaborators.
type Config struct {
	Registry    *parser.Registry
	Store       ledger.Store
	Categorizer *categorization.Categorizer // optional
	Search      *ledger.SearchIndex         // optional
	Logger      *slog.Logger
}

// Service runs statement imports against a ledger store.
type Service struct {
	registry    *parser.Registry
	store       ledger.Store
	categorizer *categorization.Categorizer
	search      *ledger.SearchIndex
	logger      *slog.Logger
}

// New creates an import service. Registry and Logger default when nil.
func New(cfg Config) *Service {
	if cfg.Registry == nil {
		cfg.Registry = parser.DefaultRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		registry:    cfg.Registry,
		store:       cfg.Store,
		categorizer: cfg.Categorizer,
		search:      cfg.Search,
		logger:      cfg.Logger,
	}
}

// Import runs the whole pipeline on one statement file. A single bad record
// never fails the batch; the only fatal errors are an unrecognized format
// and a recognized file with zero transactions.
func (s *Service) Import(ctx context.Context, in parser.Input, opts Options) (*ImportSummary, error) {
	p, err := s.selectParser(in, opts.Format)
	if err != nil {
		return nil, err
	}

	raws, err := p.Parse(in, parser.Options{DefaultCurrency: opts.DefaultCurrency})
	if err != nil {
		return nil, fmt.Errorf("parser %s: %w", p.Name(), err)
	}

	records := normalizer.NormalizeAll(raws, normalizer.Options{
		Source:          p.Source(),
		DefaultCurrency: opts.DefaultCurrency,
		DefaultAccount:  opts.DefaultAccount,
		Location:        opts.Location,
	})

	if s.categorizer != nil {
		s.categorizer.ApplyAll(records)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := &ImportSummary{Parser: p.Name(), Total: len(records)}
	commit := s.classify(ctx, records, opts, summary)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(commit) > 0 {
		if err := s.store.Append(ctx, commit...); err != nil {
			return nil, fmt.Errorf("failed to commit batch: %w", err)
		}
		if s.search != nil {
			if err := s.search.Index(commit...); err != nil {
				return nil, fmt.Errorf("failed to index batch: %w", err)
			}
		}
	}

	s.logger.InfoContext(ctx, "import finished",
		"parser", p.Name(),
		"file", in.FileName,
		"total", summary.Total,
		"added", summary.Added,
		"duplicates", summary.Duplicates,
		"needs_review", summary.NeedsReview,
	)
	return summary, nil
}

func (s *Service) selectParser(in parser.Input, format string) (parser.StatementParser, error) {
	if format != "" {
		return s.registry.ByName(format)
	}
	return s.registry.Detect(in)
}

// classify splits the normalized batch into the commit set and the counters.
// The existing-key set is built once per batch and extended as records are
// accepted, so a file containing its own duplicates dedupes against itself.
func (s *Service) classify(ctx context.Context, records []*transaction.Record, opts Options, summary *ImportSummary) []*transaction.Record {
	keys, err := s.store.ExistingKeys(ctx)
	if err != nil {
		// An unreadable key set must not silently disable deduplication.
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to load existing keys: %v", err))
		keys = make(map[string]struct{})
	}

	var commit []*transaction.Record
	for _, rec := range records {
		// Field errors win over the duplicate check: a broken record needs
		// eyes on it either way.
		if rec.Status == transaction.StatusNeedsReview {
			summary.NeedsReview++
			for _, fe := range rec.Errors {
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", rec.Description, fe))
			}
			if opts.IncludeNeedsReview {
				commit = append(commit, rec)
			} else {
				summary.Dropped++
			}
			continue
		}

		key := rec.DedupeKey()
		if _, seen := keys[key]; seen || rec.Status == transaction.StatusDuplicate {
			rec.Status = transaction.StatusDuplicate
			summary.Duplicates++
			continue
		}
		keys[key] = struct{}{}
		commit = append(commit, rec)
		summary.Added++
	}
	return commit
}
