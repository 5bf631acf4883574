package budget

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// budgetFile is the on-disk budget file shape. Budgets in the file carry no
// period: the caller evaluates them against the month (or range) it is
// reporting on.
type budgetFile struct {
	Budgets []budgetSpec `yaml:"budgets"`
}

type budgetSpec struct {
	Category    string `yaml:"category"`
	Subcategory string `yaml:"subcategory"`
	Limit       string `yaml:"limit"`
}

// LoadBudgets reads a YAML budget file and binds every entry to the given
// period.
func LoadBudgets(path string, period Period) ([]Budget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read budgets file: %w", err)
	}

	var file budgetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse budgets file %s: %w", path, err)
	}

	out := make([]Budget, 0, len(file.Budgets))
	for i, spec := range file.Budgets {
		if strings.TrimSpace(spec.Category) == "" {
			return nil, fmt.Errorf("budget %d: category is empty", i+1)
		}
		limit, err := decimal.NewFromString(spec.Limit)
		if err != nil {
			return nil, fmt.Errorf("budget %d (%s): invalid limit %q: %w", i+1, spec.Category, spec.Limit, err)
		}
		if !limit.IsPositive() {
			return nil, fmt.Errorf("budget %d (%s): limit must be greater than zero", i+1, spec.Category)
		}
		out = append(out, Budget{
			Category:    spec.Category,
			Subcategory: spec.Subcategory,
			Period:      period,
			Limit:       limit,
		})
	}
	return out, nil
}

// ParseMonth parses a yyyy-mm month name into its period.
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month %q (want yyyy-mm): %w", s, err)
	}
	return Month(t.Year(), t.Month()), nil
}
