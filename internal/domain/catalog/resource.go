package catalog

import (
	"fmt"
	"slices"
	"sort"

	"github.com/shopadmin/backend/internal/domain/shared"
	"github.com/shopadmin/backend/internal/domain/table"
)

// ErrUnknownResource is returned when no admin resource has the given name
var ErrUnknownResource = shared.NewDomainError("UNKNOWN_RESOURCE", "Unknown admin resource")

// ErrColumnNotSortable is returned when a sort names an undeclared column
var ErrColumnNotSortable = shared.NewDomainError("INVALID_SORT", "Column is not sortable")

// FacetOption is one selectable value of a facet column
type FacetOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Resource declares the table columns of one admin list screen
type Resource struct {
	Name         string                   `json:"name"`
	Title        string                   `json:"title"`
	UpstreamPath string                   `json:"-"`
	Columns      table.Columns            `json:"-"`
	Sortable     []string                 `json:"sortable"`
	DefaultSort  *table.Sort              `json:"default_sort,omitempty"`
	Facets       map[string][]FacetOption `json:"facets"`
}

// Path returns the dashboard URL path of the list screen
func (r Resource) Path() string {
	return "/admin/" + r.Name
}

// IsSortable reports whether columnID may be sorted on
func (r Resource) IsSortable(columnID string) bool {
	return slices.Contains(r.Sortable, columnID)
}

// ValidateSort checks that a sort targets a declared column
func (r Resource) ValidateSort(s *table.Sort) error {
	if s == nil || r.IsSortable(s.ColumnID) {
		return nil
	}
	return ErrColumnNotSortable.About(s.ColumnID)
}

// WithDefaultSort fills in the default sort when the state has none
func (r Resource) WithDefaultSort(s table.State) table.State {
	if s.Sort != nil || r.DefaultSort == nil {
		return s
	}
	out := s.Clone()
	def := *r.DefaultSort
	out.Sort = &def
	return out
}

var resources = map[string]Resource{
	"products": {
		Name:         "products",
		Title:        "Products",
		UpstreamPath: "/products",
		Columns: table.Columns{
			Searchable: []string{"name", "sku"},
			Filterable: []string{"status", "category"},
		},
		Sortable:    []string{"name", "sku", "price", "stock", "created_at"},
		DefaultSort: &table.Sort{ColumnID: "created_at", Descending: true},
		Facets: map[string][]FacetOption{
			"status":   options("active", "draft", "archived"),
			"category": options("shirt", "shoes", "accessories", "electronics"),
		},
	},
	"orders": {
		Name:         "orders",
		Title:        "Orders",
		UpstreamPath: "/orders",
		Columns: table.Columns{
			Searchable: []string{"number", "customer"},
			Filterable: []string{"status", "payment_status"},
		},
		Sortable:    []string{"number", "customer", "total", "created_at"},
		DefaultSort: &table.Sort{ColumnID: "created_at", Descending: true},
		Facets: map[string][]FacetOption{
			"status":         options("pending", "processing", "shipped", "delivered", "cancelled"),
			"payment_status": options("unpaid", "paid", "refunded"),
		},
	},
	"sellers": {
		Name:         "sellers",
		Title:        "Sellers",
		UpstreamPath: "/sellers",
		Columns: table.Columns{
			Searchable: []string{"name", "email"},
			Filterable: []string{"status", "tier"},
		},
		Sortable: []string{"name", "email", "created_at"},
		Facets: map[string][]FacetOption{
			"status": options("active", "pending", "suspended"),
			"tier":   options("basic", "silver", "gold"),
		},
	},
	"categories": {
		Name:         "categories",
		Title:        "Categories",
		UpstreamPath: "/categories",
		Columns: table.Columns{
			Searchable: []string{"name", "code"},
			Filterable: []string{"status"},
		},
		Sortable:    []string{"name", "code", "sort_order"},
		DefaultSort: &table.Sort{ColumnID: "sort_order"},
		Facets: map[string][]FacetOption{
			"status": options("active", "inactive"),
		},
	},
	"promotions": {
		Name:         "promotions",
		Title:        "Promotions",
		UpstreamPath: "/promotions",
		Columns: table.Columns{
			Searchable: []string{"name", "code"},
			Filterable: []string{"status", "kind"},
		},
		Sortable:    []string{"name", "code", "starts_at", "ends_at"},
		DefaultSort: &table.Sort{ColumnID: "starts_at", Descending: true},
		Facets: map[string][]FacetOption{
			"status": options("scheduled", "active", "expired"),
			"kind":   options("percentage", "fixed_amount", "free_shipping"),
		},
	},
}

func init() {
	if err := validateResources(resources); err != nil {
		panic(err)
	}
}

func validateResources(rs map[string]Resource) error {
	for name, r := range rs {
		if err := r.Columns.Validate(); err != nil {
			return fmt.Errorf("resource %s: %w", name, err)
		}
	}
	return nil
}

// Lookup returns the resource registered under name
func Lookup(name string) (Resource, error) {
	r, ok := resources[name]
	if !ok {
		return Resource{}, ErrUnknownResource.About(name)
	}
	return r, nil
}

// Names returns the registered resource names in sorted order
func Names() []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the filter columns and URL path of a resource
func Resolve(name string) (table.Columns, string, error) {
	r, err := Lookup(name)
	if err != nil {
		return table.Columns{}, "", err
	}
	return r.Columns, r.Path(), nil
}

func options(values ...string) []FacetOption {
	opts := make([]FacetOption, 0, len(values))
	for _, v := range values {
		opts = append(opts, FacetOption{Value: v, Label: label(v)})
	}
	return opts
}

func label(v string) string {
	b := []byte(v)
	for i, c := range b {
		if c == '_' {
			b[i] = ' '
		}
	}
	if len(b) > 0 && b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
