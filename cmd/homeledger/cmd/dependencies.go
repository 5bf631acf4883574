package cmd

import (
	"fmt"
	"log/slog"

	"github.com/dkuznetsov/homeledger/internal/domain/categorization"
	importservice "github.com/dkuznetsov/homeledger/internal/domain/import/service"
	"github.com/dkuznetsov/homeledger/internal/domain/ledger"
	"github.com/dkuznetsov/homeledger/internal/domain/recurring"
	"github.com/dkuznetsov/homeledger/pkg/config"
	"github.com/dkuznetsov/homeledger/pkg/cron"
)

// Dependencies holds all application dependencies.
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Store       ledger.Store
	Search      *ledger.SearchIndex // nil when search is disabled
	Categorizer *categorization.Categorizer
	Templates   []*recurring.Template

	ImportService *importservice.Service
	Scheduler     *cron.Scheduler
}

// initDependencies initializes all application dependencies.
func initDependencies(cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: slog.Default(),
	}

	if err := deps.initStore(); err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}
	if err := deps.initCategorizer(); err != nil {
		return nil, fmt.Errorf("failed to init categorizer: %w", err)
	}
	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.Logger.Debug("all dependencies initialized")
	return deps, nil
}

// mustInitDependencies is initDependencies for command Run functions.
func mustInitDependencies() *Dependencies {
	deps, err := initDependencies(loadConfig())
	exitOnError(err, "failed to initialize")
	return deps
}

// initStore opens the ledger store and, when configured, the search index.
func (d *Dependencies) initStore() error {
	if path := d.Config.Ledger.DatabasePath; path != "" {
		store, err := ledger.OpenSQLite(path)
		if err != nil {
			return err
		}
		d.Store = store
		d.Logger.Debug("sqlite store opened", slog.String("path", path))
	} else {
		d.Store = ledger.NewMemoryStore()
		d.Logger.Debug("using in-memory store")
	}

	if path := d.Config.Ledger.SearchPath; path != "" {
		search, err := ledger.OpenSearchIndex(path)
		if err != nil {
			return fmt.Errorf("failed to open search index: %w", err)
		}
		d.Search = search
	}
	return nil
}

// initCategorizer loads user rules when configured, the built-in rule set
// otherwise. User rules extend the defaults and win ties via priority.
func (d *Dependencies) initCategorizer() error {
	rules := categorization.DefaultRules()
	if path := d.Config.Import.RulesPath; path != "" {
		loaded, err := categorization.LoadRules(path)
		if err != nil {
			return err
		}
		rules = append(rules, loaded...)
		d.Logger.Debug("categorization rules loaded",
			slog.String("path", path),
			slog.Int("rules", len(loaded)),
		)
	}
	d.Categorizer = categorization.New(rules)
	return nil
}

func (d *Dependencies) initServices() error {
	d.ImportService = importservice.New(importservice.Config{
		Store:       d.Store,
		Categorizer: d.Categorizer,
		Search:      d.Search,
		Logger:      d.Logger,
	})

	if path := d.Config.Recurring.TemplatesPath; path != "" {
		templates, err := recurring.LoadTemplates(path)
		if err != nil {
			return err
		}
		d.Templates = templates
		d.Scheduler = cron.NewScheduler(d.Store, d.Search, templates, d.Logger)
	}
	return nil
}

// Cleanup closes all resources.
func (d *Dependencies) Cleanup() {
	if d.Search != nil {
		if err := d.Search.Close(); err != nil {
			d.Logger.Warn("failed to close search index", slog.Any("error", err))
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.Warn("failed to close store", slog.Any("error", err))
		}
	}
}
