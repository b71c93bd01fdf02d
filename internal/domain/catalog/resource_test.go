package catalog

import (
	"testing"

	"github.com/shopadmin/backend/internal/domain/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name       string
		searchable []string
		filterable []string
	}{
		{"products", []string{"name", "sku"}, []string{"status", "category"}},
		{"orders", []string{"number", "customer"}, []string{"status", "payment_status"}},
		{"sellers", []string{"name", "email"}, []string{"status", "tier"}},
		{"categories", []string{"name", "code"}, []string{"status"}},
		{"promotions", []string{"name", "code"}, []string{"status", "kind"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.searchable, r.Columns.Searchable)
			assert.Equal(t, tt.filterable, r.Columns.Filterable)
			assert.Equal(t, "/admin/"+tt.name, r.Path())
			assert.NotEmpty(t, r.UpstreamPath)
			for _, col := range tt.filterable {
				assert.NotEmpty(t, r.Facets[col], "facet %s has options", col)
			}
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("invoices")
	assert.ErrorIs(t, err, ErrUnknownResource)

	_, _, err = Resolve("invoices")
	assert.ErrorIs(t, err, ErrUnknownResource)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"categories", "orders", "products", "promotions", "sellers"}, Names())
}

func TestResource_ValidateSort(t *testing.T) {
	r, err := Lookup("products")
	require.NoError(t, err)

	assert.NoError(t, r.ValidateSort(nil))
	assert.NoError(t, r.ValidateSort(&table.Sort{ColumnID: "price"}))
	assert.ErrorIs(t, r.ValidateSort(&table.Sort{ColumnID: "password"}), ErrColumnNotSortable)
}

func TestResource_WithDefaultSort(t *testing.T) {
	r, err := Lookup("orders")
	require.NoError(t, err)

	s := r.WithDefaultSort(table.NewState())
	require.NotNil(t, s.Sort)
	assert.Equal(t, table.Sort{ColumnID: "created_at", Descending: true}, *s.Sort)

	explicit := table.NewState()
	explicit.Sort = &table.Sort{ColumnID: "total"}
	assert.Equal(t, "total", r.WithDefaultSort(explicit).Sort.ColumnID)

	sellers, err := Lookup("sellers")
	require.NoError(t, err)
	assert.Nil(t, sellers.WithDefaultSort(table.NewState()).Sort)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Free shipping", label("free_shipping"))
	assert.Equal(t, "Active", label("active"))
	assert.Equal(t, "", label(""))
}

func TestValidateResources(t *testing.T) {
	require.NoError(t, validateResources(resources), "registered resources keep filter keys apart")

	err := validateResources(map[string]Resource{
		"coupons": {
			Name: "coupons",
			Columns: table.Columns{
				Searchable: []string{"code", "status"},
				Filterable: []string{"status"},
			},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, table.ErrColumnOverlap)
	assert.Contains(t, err.Error(), "coupons")
	assert.Contains(t, err.Error(), `"status"`)
}
