package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ChangeOp names an edit of a form entry
type ChangeOp string

const (
	ChangeSet         ChangeOp = "set"
	ChangeRemove      ChangeOp = "remove"
	ChangeRemoveGroup ChangeOp = "remove_group"
)

// ErrInvalidChange is returned for a change that cannot be applied
var ErrInvalidChange = errors.New("pricing: invalid change")

// Change is one edit sent by the browser. Group is the zone or tier, Key the
// weight band or category.
type Change struct {
	Op    ChangeOp         `json:"op"`
	Group string           `json:"group"`
	Key   string           `json:"key,omitempty"`
	Value *decimal.Decimal `json:"value,omitempty"`
}

// Apply runs changes against the shipping form in order
func (f *ShippingForm) Apply(changes []Change) error {
	return applyChanges(&f.form, changes)
}

// Apply runs changes against the pricing form in order
func (f *PricingForm) Apply(changes []Change) error {
	return applyChanges(&f.form, changes)
}

// applyChanges stops at the first malformed change; earlier ones stay applied
func applyChanges(f *form, changes []Change) error {
	for i, c := range changes {
		switch c.Op {
		case ChangeSet:
			if c.Value == nil {
				return fmt.Errorf("%w: change %d: set needs a value", ErrInvalidChange, i)
			}
			if err := f.set(c.Group, c.Key, *c.Value); err != nil {
				return fmt.Errorf("%w: change %d: %v", ErrInvalidChange, i, err)
			}
		case ChangeRemove:
			f.remove(c.Group, c.Key)
		case ChangeRemoveGroup:
			f.removeGroup(c.Group)
		default:
			return fmt.Errorf("%w: change %d: unknown op %q", ErrInvalidChange, i, c.Op)
		}
	}
	return nil
}
