package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ShippingConfigKey is the upstream document holding shipping rates
const ShippingConfigKey = "shipping"

var maxShippingRate = decimal.NewFromInt(100000)

// ShippingDocument is the wire shape of the shipping configuration
type ShippingDocument struct {
	Zones Rates `json:"zones"`
}

// ShippingForm edits shipping rates: zone, then weight band, then rate
type ShippingForm struct {
	form
}

// NewShippingForm returns an empty form
func NewShippingForm() *ShippingForm {
	f := &ShippingForm{}
	f.init(ShippingConfigKey, "zones", rangeCheck(decimal.Zero, maxShippingRate, 2))
	return f
}

// LoadShippingForm reads the current rates from store
func LoadShippingForm(ctx context.Context, store ConfigStore) (*ShippingForm, error) {
	var doc ShippingDocument
	if err := store.GetConfig(ctx, ShippingConfigKey, &doc); err != nil {
		return nil, fmt.Errorf("pricing: failed to load shipping rates: %w", err)
	}
	f := NewShippingForm()
	f.load(doc.Zones)
	return f, nil
}

// SetRate sets the rate of a weight band in a zone
func (f *ShippingForm) SetRate(zone, band string, rate decimal.Decimal) error {
	return f.set(zone, band, rate)
}

// RemoveRate deletes a band; a zone without bands is dropped
func (f *ShippingForm) RemoveRate(zone, band string) bool {
	return f.remove(zone, band)
}

// RemoveZone deletes a zone and all its bands
func (f *ShippingForm) RemoveZone(zone string) bool {
	return f.removeGroup(zone)
}

// Replace swaps all rates
func (f *ShippingForm) Replace(zones Rates) {
	f.replace(zones)
}

// Rate returns the rate of a band
func (f *ShippingForm) Rate(zone, band string) (decimal.Decimal, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[zone][band]
	return v, ok
}

// Document returns the current form values
func (f *ShippingForm) Document() ShippingDocument {
	return ShippingDocument{Zones: f.snapshot()}
}

// Validate checks that every rate is a non-negative amount with cents precision
func (f *ShippingForm) Validate() error {
	return f.validate()
}

// Dirty reports whether the form differs from the last loaded or submitted rates
func (f *ShippingForm) Dirty() bool {
	return f.dirty()
}

// Reset discards unsubmitted edits
func (f *ShippingForm) Reset() {
	f.reset()
}

// Submit validates and writes the rates back. A clean form is not sent.
func (f *ShippingForm) Submit(ctx context.Context, store ConfigStore) (bool, error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	if !f.Dirty() {
		return false, nil
	}
	doc := f.Document()
	if err := store.PutConfig(ctx, ShippingConfigKey, doc); err != nil {
		return false, fmt.Errorf("pricing: failed to submit shipping rates: %w", err)
	}
	f.markSubmitted(doc.Zones)
	return true, nil
}
