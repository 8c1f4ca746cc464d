package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmadesk/m/domain"
)

func TestApplyStockDecrementsExactly(t *testing.T) {
	stock := catalog()
	sale := domain.Sale{Items: []domain.SaleItem{
		{MedicineID: "1", Quantity: 2},
		{MedicineID: "3", Quantity: 12},
	}}

	updated, err := ApplyStock(sale, stock)
	require.NoError(t, err)
	assert.EqualValues(t, 148, updated["1"].Stock)
	assert.EqualValues(t, 0, updated["3"].Stock)

	// input untouched
	assert.EqualValues(t, 150, stock["1"].Stock)
	assert.EqualValues(t, 12, stock["3"].Stock)
}

func TestApplyStockAllOrNothing(t *testing.T) {
	stock := catalog()
	sale := domain.Sale{Items: []domain.SaleItem{
		{MedicineID: "1", Quantity: 2},
		{MedicineID: "3", Quantity: 7},
		{MedicineID: "3", Quantity: 7},
	}}

	updated, err := ApplyStock(sale, stock)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, updated)
}

func TestCheckStockMissingMedicine(t *testing.T) {
	err := CheckStock(domain.Sale{Items: []domain.SaleItem{{MedicineID: "gone", Quantity: 1}}}, catalog())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDemand(t *testing.T) {
	d := Demand(domain.Sale{Items: []domain.SaleItem{
		{MedicineID: "a", Quantity: 1},
		{MedicineID: "b", Quantity: 4},
		{MedicineID: "a", Quantity: 2},
	}})
	assert.Equal(t, map[string]int64{"a": 3, "b": 4}, d)
}
