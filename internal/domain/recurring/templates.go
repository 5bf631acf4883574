package recurring

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

// templateFile is the on-disk template file shape.
type templateFile struct {
	Templates []templateSpec `yaml:"templates"`
}

type templateSpec struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Account     string   `yaml:"account"`
	AccountTo   string   `yaml:"account_to"`
	Amount      string   `yaml:"amount"`
	Currency    string   `yaml:"currency"`
	Category    string   `yaml:"category"`
	Subcategory string   `yaml:"subcategory"`
	Tags        []string `yaml:"tags"`
	Frequency   string   `yaml:"frequency"`
	Schedule    string   `yaml:"schedule"`
	StartDate   string   `yaml:"start_date"`
	EndDate     string   `yaml:"end_date"`
}

// templateNamespace scopes the name-derived template ids. IDs must be stable
// across runs: the materialized SourceID embeds them, and a changed id would
// re-create every past occurrence.
var templateNamespace = uuid.MustParse("8f2f9f10-52e7-4f14-9c2b-7b1f6d3f0a11")

// LoadTemplates reads a YAML template file and validates every entry. Dates
// use the dd.mm.yyyy locale convention with an ISO fallback, like the CSV
// export format.
func LoadTemplates(path string) ([]*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse templates file %s: %w", path, err)
	}

	out := make([]*Template, 0, len(file.Templates))
	for i, spec := range file.Templates {
		tpl, err := spec.toTemplate()
		if err != nil {
			return nil, fmt.Errorf("template %d: %w", i+1, err)
		}
		if err := tpl.Validate(); err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, nil
}

func (s templateSpec) toTemplate() (*Template, error) {
	tpl := &Template{
		ID:          uuid.NewSHA1(templateNamespace, []byte(s.Name)),
		Name:        s.Name,
		Type:        transaction.Type(s.Type),
		Account:     s.Account,
		AccountTo:   s.AccountTo,
		Currency:    s.Currency,
		Category:    s.Category,
		Subcategory: s.Subcategory,
		Tags:        s.Tags,
		Frequency:   Frequency(s.Frequency),
		Schedule:    s.Schedule,
	}
	if tpl.Type == "" {
		tpl.Type = transaction.TypeExpense
	}
	if tpl.Currency == "" {
		tpl.Currency = "RUB"
	}

	amount, err := decimal.NewFromString(s.Amount)
	if err != nil {
		return nil, fmt.Errorf("%q: invalid amount %q: %w", s.Name, s.Amount, err)
	}
	tpl.Amount = amount

	if tpl.StartDate, err = parseTemplateDate(s.StartDate); err != nil {
		return nil, fmt.Errorf("%q: invalid start date %q: %w", s.Name, s.StartDate, err)
	}
	if s.EndDate != "" {
		if tpl.EndDate, err = parseTemplateDate(s.EndDate); err != nil {
			return nil, fmt.Errorf("%q: invalid end date %q: %w", s.Name, s.EndDate, err)
		}
	}
	return tpl, nil
}

func parseTemplateDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	return transaction.ParseCSVDate(s)
}
