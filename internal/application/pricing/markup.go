package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingConfigKey is the upstream document holding markups
const PricingConfigKey = "pricing"

var (
	maxMarkupPercent = decimal.NewFromInt(1000)
	hundred          = decimal.NewFromInt(100)
)

// PricingDocument is the wire shape of the pricing configuration
type PricingDocument struct {
	Tiers Rates `json:"tiers"`
}

// PricingForm edits markups: seller tier, then category, then percent
type PricingForm struct {
	form
}

// NewPricingForm returns an empty form
func NewPricingForm() *PricingForm {
	f := &PricingForm{}
	f.init(PricingConfigKey, "tiers", rangeCheck(decimal.Zero, maxMarkupPercent, 2))
	return f
}

// LoadPricingForm reads the current markups from store
func LoadPricingForm(ctx context.Context, store ConfigStore) (*PricingForm, error) {
	var doc PricingDocument
	if err := store.GetConfig(ctx, PricingConfigKey, &doc); err != nil {
		return nil, fmt.Errorf("pricing: failed to load markups: %w", err)
	}
	f := NewPricingForm()
	f.load(doc.Tiers)
	return f, nil
}

// SetMarkup sets the markup percent of a category in a tier
func (f *PricingForm) SetMarkup(tier, category string, percent decimal.Decimal) error {
	return f.set(tier, category, percent)
}

// RemoveMarkup deletes a category; a tier without categories is dropped
func (f *PricingForm) RemoveMarkup(tier, category string) bool {
	return f.remove(tier, category)
}

// RemoveTier deletes a tier and all its markups
func (f *PricingForm) RemoveTier(tier string) bool {
	return f.removeGroup(tier)
}

// Replace swaps all markups
func (f *PricingForm) Replace(tiers Rates) {
	f.replace(tiers)
}

// Price applies the markup of tier and category to base, rounded to cents.
// Without a markup the base price is returned unchanged.
func (f *PricingForm) Price(tier, category string, base decimal.Decimal) decimal.Decimal {
	f.mu.RLock()
	markup, ok := f.values[tier][category]
	f.mu.RUnlock()
	if !ok {
		return base
	}
	return base.Mul(decimal.NewFromInt(1).Add(markup.Div(hundred))).Round(2)
}

// Document returns the current form values
func (f *PricingForm) Document() PricingDocument {
	return PricingDocument{Tiers: f.snapshot()}
}

// Validate checks that every markup lies in [0, 1000] percent
func (f *PricingForm) Validate() error {
	return f.validate()
}

// Dirty reports whether the form differs from the last loaded or submitted markups
func (f *PricingForm) Dirty() bool {
	return f.dirty()
}

// Reset discards unsubmitted edits
func (f *PricingForm) Reset() {
	f.reset()
}

// Submit validates and writes the markups back. A clean form is not sent.
func (f *PricingForm) Submit(ctx context.Context, store ConfigStore) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	if !f.Dirty() {
		return false, nil
	}
	doc := f.Document()
	if err := store.PutConfig(ctx, PricingConfigKey, doc); err != nil {
		return false, fmt.Errorf("pricing: failed to submit markups: %w", err)
	}
	f.markSubmitted(doc.Tiers)
	return true, nil
}
