package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pharmadesk/m/internal/store/memory"
)

func TestLoadMedicinesWithIDs(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	f, err := os.Open(filepath.Join("..", "..", "assets", "medicines.csv"))
	require.NoError(t, err)
	defer f.Close()

	n, err := LoadMedicines(ctx, repo, f)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	m, err := repo.GetMedicine(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Cetirizine 10mg", m.Name)
	assert.Equal(t, "Dr. Reddy's", m.Manufacturer)
	assert.Equal(t, "45.00", m.Price.StringFixed(2))
	assert.EqualValues(t, 12, m.Stock)
	assert.EqualValues(t, 20, m.MinStock)
	assert.False(t, m.Prescription)

	insulin, err := repo.GetMedicine(ctx, "5")
	require.NoError(t, err)
	assert.True(t, insulin.Prescription)
}

func TestLoadMedicinesWithoutIDs(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	csv := `name,category,manufacturer,price,stock,min_stock,expiry_date,batch_number,description,dosage,prescription
Ibuprofen 400mg,Pain Relief,Abbott,32.75,60,10,2026-02-01,IBU010,,,
,Skipped,Nobody,1,1,1,2026-01-01,X,,,
`
	n, err := LoadMedicines(ctx, repo, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := repo.ListMedicines(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotEmpty(t, list[0].ID)
	assert.Equal(t, "32.75", list[0].Price.String())
}

func TestLoadMedicinesRejectsBadInput(t *testing.T) {
	ctx := context.Background()

	_, err := LoadMedicines(ctx, memory.New(), strings.NewReader("sku,title\n1,Napa\n"))
	assert.ErrorContains(t, err, "header")

	bad := `name,category,manufacturer,price,stock,min_stock,expiry_date,batch_number,description,dosage,prescription
Ibuprofen,Pain Relief,Abbott,cheap,60,10,2026-02-01,IBU010,,,
`
	_, err = LoadMedicines(ctx, memory.New(), strings.NewReader(bad))
	assert.ErrorContains(t, err, "row 2")
}

func TestLoadMedicineFileOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	path := filepath.Join("..", "..", "assets", "medicines.csv")

	require.NoError(t, LoadMedicineFile(ctx, repo, path, zap.NewNop()))
	require.NoError(t, LoadMedicineFile(ctx, repo, path, zap.NewNop()))

	list, err := repo.ListMedicines(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 5)

	assert.Error(t, LoadMedicineFile(ctx, memory.New(), "missing.csv", zap.NewNop()))
}

func TestLoadDemo(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	f, err := os.Open(filepath.Join("..", "..", "assets", "medicines.csv"))
	require.NoError(t, err)
	defer f.Close()
	_, err = LoadMedicines(ctx, repo, f)
	require.NoError(t, err)

	require.NoError(t, LoadDemo(ctx, repo, zap.NewNop()))
	require.NoError(t, LoadDemo(ctx, repo, zap.NewNop()))

	customers, err := repo.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 3)
	assert.Equal(t, "5280.50", customers[0].TotalPurchases.StringFixed(2))

	history, err := repo.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "91.00", history[0].FinalTotal.StringFixed(2))

	// History does not move stock.
	m, err := repo.GetMedicine(ctx, "4")
	require.NoError(t, err)
	assert.EqualValues(t, 200, m.Stock)
}
