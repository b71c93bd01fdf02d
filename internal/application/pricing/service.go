package pricing

import (
	"context"

	"github.com/shopadmin/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service loads, edits and submits the configuration forms. Every call works
// on a fresh copy of the upstream document.
type Service struct {
	store  ConfigStore
	logger *zap.Logger
}

// NewService creates the service
func NewService(store ConfigStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Shipping returns the current shipping rates
func (s *Service) Shipping(ctx context.Context) (ShippingDocument, error) {
	f, err := LoadShippingForm(ctx, s.store)
	if err != nil {
		return ShippingDocument{}, err
	}
	return f.Document(), nil
}

// ReplaceShipping validates and stores a whole shipping document
func (s *Service) ReplaceShipping(ctx context.Context, doc ShippingDocument) (ShippingDocument, bool, error) {
	return s.editShipping(ctx, "replace", func(f *ShippingForm) error {
		f.Replace(doc.Zones)
		return nil
	})
}

// ChangeShipping applies edits to the stored shipping document
func (s *Service) ChangeShipping(ctx context.Context, changes []Change) (ShippingDocument, bool, error) {
	return s.editShipping(ctx, "change", func(f *ShippingForm) error {
		return f.Apply(changes)
	})
}

// Pricing returns the current markups
func (s *Service) Pricing(ctx context.Context) (PricingDocument, error) {
	f, err := LoadPricingForm(ctx, s.store)
	if err != nil {
		return PricingDocument{}, err
	}
	return f.Document(), nil
}

// ReplacePricing validates and stores a whole pricing document
func (s *Service) ReplacePricing(ctx context.Context, doc PricingDocument) (PricingDocument, bool, error) {
	return s.editPricing(ctx, "replace", func(f *PricingForm) error {
		f.Replace(doc.Tiers)
		return nil
	})
}

// ChangePricing applies edits to the stored pricing document
func (s *Service) ChangePricing(ctx context.Context, changes []Change) (PricingDocument, bool, error) {
	return s.editPricing(ctx, "change", func(f *PricingForm) error {
		return f.Apply(changes)
	})
}

func (s *Service) editShipping(ctx context.Context, method string, edit func(*ShippingForm) error) (ShippingDocument, bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipping", method,
		telemetry.WithAttribute(telemetry.SpanAttrConfigKey, ShippingConfigKey))
	defer span.End()

	f, err := LoadShippingForm(ctx, s.store)
	if err != nil {
		telemetry.RecordError(span, err)
		return ShippingDocument{}, false, err
	}
	if err := edit(f); err != nil {
		return ShippingDocument{}, false, err
	}
	submitted, err := f.Submit(ctx, s.store)
	if err != nil {
		telemetry.RecordError(span, err)
		return ShippingDocument{}, false, err
	}
	if submitted {
		s.logger.Info("Shipping rates updated", zap.Int("zones", len(f.Document().Zones)))
	}
	return f.Document(), submitted, nil
}

func (s *Service) editPricing(ctx context.Context, method string, edit func(*PricingForm) error) (PricingDocument, bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pricing", method,
		telemetry.WithAttribute(telemetry.SpanAttrConfigKey, PricingConfigKey))
	defer span.End()

	f, err := LoadPricingForm(ctx, s.store)
	if err != nil {
		telemetry.RecordError(span, err)
		return PricingDocument{}, false, err
	}
	if err := edit(f); err != nil {
		return PricingDocument{}, false, err
	}
	submitted, err := f.Submit(ctx, s.store)
	if err != nil {
		telemetry.RecordError(span, err)
		return PricingDocument{}, false, err
	}
	if submitted {
		s.logger.Info("Pricing markups updated", zap.Int("tiers", len(f.Document().Tiers)))
	}
	return f.Document(), submitted, nil
}
