package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	errMissing := NewDomainError("UNKNOWN_RESOURCE", "Unknown admin resource")

	t.Run("plain", func(t *testing.T) {
		assert.Equal(t, "Unknown admin resource", errMissing.Error())
	})

	t.Run("about keeps identity", func(t *testing.T) {
		err := errMissing.About("widgets")
		assert.Equal(t, "Unknown admin resource: widgets", err.Error())
		assert.ErrorIs(t, err, errMissing)
		assert.ErrorIs(t, fmt.Errorf("lookup: %w", err), errMissing)
		assert.Empty(t, errMissing.Subject)
	})

	t.Run("different code", func(t *testing.T) {
		other := NewDomainError("INVALID_SORT", "Column is not sortable")
		assert.False(t, errors.Is(errMissing.About("x"), other))
	})

	t.Run("as", func(t *testing.T) {
		var de *DomainError
		assert.True(t, errors.As(fmt.Errorf("wrap: %w", errMissing.About("x")), &de))
		assert.Equal(t, "UNKNOWN_RESOURCE", de.Code)
		assert.Equal(t, "x", de.Subject)
	})
}
