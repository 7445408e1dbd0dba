// Package billing holds the plan catalog and the payment ledger.
package billing

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"vtm/internal/domain/entitlement"
)

var priceDecimalPattern = regexp.MustCompile(`^\d+\.\d{2}$`)

// Plan is one purchasable catalog entry. Immutable at runtime.
type Plan struct {
	ID                string `yaml:"id"`
	Price             string `yaml:"price"` // decimal string, e.g. "5.99"
	ValidityDays      int    `yaml:"validity_days"`
	DailyLimitSeconds int    `yaml:"daily_limit_seconds"` // -1 = unlimited
	DisplayName       string `yaml:"display_name"`
}

// Unlimited reports whether the plan has no daily quota.
func (p Plan) Unlimited() bool {
	return p.DailyLimitSeconds == entitlement.UnlimitedSeconds
}

func (p Plan) validate() error {
	if p.ID == "" {
		return fmt.Errorf("plan id is required")
	}
	if p.ID == entitlement.PlanFree {
		return fmt.Errorf("plan id %q is reserved", entitlement.PlanFree)
	}
	if !priceDecimalPattern.MatchString(p.Price) {
		return fmt.Errorf("plan %s: invalid price %q", p.ID, p.Price)
	}
	if p.ValidityDays <= 0 {
		return fmt.Errorf("plan %s: validity days must be positive", p.ID)
	}
	if p.DailyLimitSeconds <= 0 && p.DailyLimitSeconds != entitlement.UnlimitedSeconds {
		return fmt.Errorf("plan %s: invalid daily limit %d", p.ID, p.DailyLimitSeconds)
	}
	if p.DisplayName == "" {
		return fmt.Errorf("plan %s: display name is required", p.ID)
	}
	return nil
}

// Catalog is the static plan id to plan mapping, read-only after load.
type Catalog struct {
	plans map[string]Plan
}

// DefaultCatalog returns the built-in production plan set.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Plan{
		{ID: "daily_4hr", Price: "4.99", ValidityDays: 30, DailyLimitSeconds: 14400, DisplayName: "Creator Pro"},
		{ID: "daily_2hr", Price: "2.99", ValidityDays: 30, DailyLimitSeconds: 7200, DisplayName: "Starter Flex"},
		{ID: "pro_monthly", Price: "5.99", ValidityDays: 30, DailyLimitSeconds: -1, DisplayName: "Monthly Pro"},
		{ID: "pro_yearly", Price: "35.99", ValidityDays: 365, DailyLimitSeconds: -1, DisplayName: "Yearly Saver"},
		{ID: "lifetime_pro", Price: "199.99", ValidityDays: 36500, DailyLimitSeconds: -1, DisplayName: "Lifetime Access"},
		{ID: "pass_1day", Price: "2.99", ValidityDays: 1, DailyLimitSeconds: -1, DisplayName: "1 Day Pass"},
	})
	if err != nil {
		panic(fmt.Sprintf("built-in plan catalog is invalid: %v", err))
	}
	return c
}

// NewCatalog builds a catalog from a plan list, validating every entry.
func NewCatalog(plans []Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("catalog requires at least one plan")
	}
	byID := make(map[string]Plan, len(plans))
	for _, p := range plans {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id: %s", p.ID)
		}
		byID[p.ID] = p
	}
	return &Catalog{plans: byID}, nil
}

// LoadCatalog reads a catalog override from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan catalog: %w", err)
	}

	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}

	return NewCatalog(doc.Plans)
}

// Resolve returns the plan for an id. The free sentinel is not purchasable
// and resolves like any unknown id.
func (c *Catalog) Resolve(planID string) (Plan, bool) {
	p, ok := c.plans[planID]
	return p, ok
}

// Plans returns all catalog entries, ordered by id.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
