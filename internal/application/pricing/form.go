// Package pricing manages the shipping rate and pricing markup configuration
// forms. Both are two-level maps of decimals loaded from and submitted back
// to the upstream API as whole documents.
package pricing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// ConfigStore reads and writes configuration documents
type ConfigStore interface {
	GetConfig(ctx context.Context, key string, out any) error
	PutConfig(ctx context.Context, key string, in any) error
}

// Rates maps a group (zone, tier) to keyed decimal values
type Rates map[string]map[string]decimal.Decimal

// Clone returns a deep copy
func (r Rates) Clone() Rates {
	out := make(Rates, len(r))
	for group, values := range r {
		inner := make(map[string]decimal.Decimal, len(values))
		for k, v := range values {
			inner[k] = v
		}
		out[group] = inner
	}
	return out
}

// Equal compares values numerically, so 4.5 equals 4.50
func (r Rates) Equal(o Rates) bool {
	if len(r) != len(o) {
		return false
	}
	for group, values := range r {
		other, ok := o[group]
		if !ok || len(other) != len(values) {
			return false
		}
		for k, v := range values {
			ov, ok := other[k]
			if !ok || !ov.Equal(v) {
				return false
			}
		}
	}
	return true
}

// FieldError describes one invalid entry
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every invalid entry of a form
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "pricing: invalid form: " + strings.Join(msgs, "; ")
}

// form is the state shared by both forms: the edited values and the
// baseline last loaded or submitted
type form struct {
	mu       sync.RWMutex
	key      string
	field    string
	values   Rates
	baseline Rates
	check    func(v decimal.Decimal) string
}

func (f *form) init(key, field string, check func(decimal.Decimal) string) {
	f.key = key
	f.field = field
	f.values = Rates{}
	f.baseline = Rates{}
	f.check = check
}

func (f *form) load(values Rates) {
	if values == nil {
		values = Rates{}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = values.Clone()
	f.baseline = values.Clone()
}

func (f *form) set(group, key string, v decimal.Decimal) error {
	group, key = strings.TrimSpace(group), strings.TrimSpace(key)
	if group == "" || key == "" {
		return fmt.Errorf("pricing: %s entries need a group and a key", f.field)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.values[group] == nil {
		f.values[group] = make(map[string]decimal.Decimal)
	}
	f.values[group][key] = v
	return nil
}

// remove deletes one entry; a group left empty is dropped
func (f *form) remove(group, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, ok := f.values[group]
	if !ok {
		return false
	}
	if _, ok := values[key]; !ok {
		return false
	}
	delete(values, key)
	if len(values) == 0 {
		delete(f.values, group)
	}
	return true
}

func (f *form) removeGroup(group string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[group]; !ok {
		return false
	}
	delete(f.values, group)
	return true
}

func (f *form) replace(values Rates) {
	if values == nil {
		values = Rates{}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = values.Clone()
}

func (f *form) snapshot() Rates {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values.Clone()
}

func (f *form) dirty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return !f.values.Equal(f.baseline)
}

func (f *form) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = f.baseline.Clone()
}

// validate reports every failing entry in a stable order
func (f *form) validate() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	groups := make([]string, 0, len(f.values))
	for g := range f.values {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var fields []FieldError
	for _, g := range groups {
		keys := make([]string, 0, len(f.values[g]))
		for k := range f.values[g] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if msg := f.check(f.values[g][k]); msg != "" {
				fields = append(fields, FieldError{
					Field:   fmt.Sprintf("%s.%s.%s", f.field, g, k),
					Message: msg,
				})
			}
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// markSubmitted makes submitted the new baseline
func (f *form) markSubmitted(submitted Rates) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.baseline = submitted.Clone()
}

// rangeCheck accepts values inside [min, max] with at most places fraction digits
func rangeCheck(min, max decimal.Decimal, places int32) func(decimal.Decimal) string {
	return func(v decimal.Decimal) string {
		switch {
		case v.LessThan(min):
			return "must be at least " + min.String()
		case v.GreaterThan(max):
			return "must be at most " + max.String()
		case !v.Equal(v.Truncate(places)):
			return fmt.Sprintf("must have at most %d decimal places", places)
		}
		return ""
	}
}
