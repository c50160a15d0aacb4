package transaction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterValidate(t *testing.T) {
	id, rev := 1, 2

	require.NoError(t, Filter{}.Validate())
	require.NoError(t, Filter{ProductID: &id, ProductRevision: &rev}.Validate())

	require.ErrorIs(t, Filter{ProductRevision: &rev}.Validate(), ErrInvalidFilter)
	require.ErrorIs(t, Filter{ContainerRevision: &rev}.Validate(), ErrInvalidFilter)
	require.ErrorIs(t, Filter{PointOfSaleRevision: &rev}.Validate(), ErrInvalidFilter)
}

func TestPageNormalize(t *testing.T) {
	require.Equal(t, Page{Take: 50}, Page{}.Normalize())
	require.Equal(t, Page{Take: 50}, Page{Take: -1}.Normalize())
	require.Equal(t, Page{Take: 50, Skip: 0}, Page{Take: 501, Skip: -3}.Normalize())
	require.Equal(t, Page{Take: 10, Skip: 20}, Page{Take: 10, Skip: 20}.Normalize())
}
