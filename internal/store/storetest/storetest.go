// Package storetest holds the behaviour every store.Repository must share.
// Backend test files call Run with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/store"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func paracetamol() domain.Medicine {
	return domain.Medicine{
		ID: "1", Name: "Paracetamol 500mg", Category: "Pain Relief", Manufacturer: "Cipla",
		Price: money("25.50"), Stock: 150, MinStock: 20, ExpiryDate: "2025-12-15", BatchNumber: "PAR001",
		Description: "Pain relief and fever reducer", Dosage: "1-2 tablets every 4-6 hours",
	}
}

func cetirizine() domain.Medicine {
	return domain.Medicine{
		ID: "3", Name: "Cetirizine 10mg", Category: "Antihistamine", Manufacturer: "Dr. Reddy's",
		Price: money("45.00"), Stock: 12, MinStock: 20, ExpiryDate: "2025-06-30", BatchNumber: "CET003",
	}
}

func rajesh() domain.Customer {
	return domain.Customer{
		ID: "1", Name: "Rajesh Kumar", Phone: "+91 9876543210", Email: "rajesh.kumar@email.com",
		TotalPurchases: money("5280.50"), LastVisit: "2024-01-15",
	}
}

func strPtr(s string) *string { return &s }

func sampleSale(customerID *string) domain.Sale {
	return domain.Sale{
		CustomerID:   customerID,
		CustomerName: "Rajesh Kumar",
		Items: []domain.SaleItem{
			{MedicineID: "1", MedicineName: "Paracetamol 500mg", Quantity: 2, Price: money("25.50"), Total: money("51.00")},
			{MedicineID: "3", MedicineName: "Cetirizine 10mg", Quantity: 1, Price: money("45.00"), Total: money("45.00")},
		},
		Total: money("96.00"), Discount: money("5.00"), FinalTotal: money("91.00"),
		PaymentMethod: domain.PaymentCash, Date: "2024-01-16", Time: "14:30",
	}
}

func seed(t *testing.T, repo store.Repository) {
	t.Helper()
	ctx := context.Background()
	_, err := repo.CreateMedicine(ctx, paracetamol())
	require.NoError(t, err)
	_, err = repo.CreateMedicine(ctx, cetirizine())
	require.NoError(t, err)
	_, err = repo.CreateCustomer(ctx, rajesh())
	require.NoError(t, err)
}

// Run exercises newRepo against the shared repository contract.
func Run(t *testing.T, newRepo func(t *testing.T) store.Repository) {
	t.Run("medicine CRUD", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		seed(t, repo)

		got, err := repo.GetMedicine(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "Paracetamol 500mg", got.Name)
		assert.True(t, got.Price.Equal(money("25.50")))
		assert.Equal(t, "Pain relief and fever reducer", got.Description)

		fresh, err := repo.CreateMedicine(ctx, domain.Medicine{Name: "Vitamin D3", Price: money("120"), Stock: 5, ExpiryDate: "2026-01-15", Prescription: true})
		require.NoError(t, err)
		assert.NotEmpty(t, fresh.ID)

		list, err := repo.ListMedicines(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"1", "3", fresh.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
		assert.True(t, list[2].Prescription)

		got.Stock = 99
		_, err = repo.UpdateMedicine(ctx, got)
		require.NoError(t, err)
		got, err = repo.GetMedicine(ctx, "1")
		require.NoError(t, err)
		assert.EqualValues(t, 99, got.Stock)

		require.NoError(t, repo.DeleteMedicine(ctx, "3"))
		_, err = repo.GetMedicine(ctx, "3")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteMedicine(ctx, "3"), domain.ErrNotFound)
		_, err = repo.UpdateMedicine(ctx, domain.Medicine{ID: "missing"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("customers", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		seed(t, repo)

		c, err := repo.GetCustomer(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "rajesh.kumar@email.com", c.Email)
		assert.True(t, c.TotalPurchases.Equal(money("5280.50")))

		added, err := repo.CreateCustomer(ctx, domain.Customer{Name: "Priya Sharma", Phone: "+91 8765432109", TotalPurchases: decimal.Zero})
		require.NoError(t, err)
		list, err := repo.ListCustomers(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, added.ID, list[1].ID)

		_, err = repo.GetCustomer(ctx, "nobody")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("record sale decrements stock and credits customer", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		seed(t, repo)

		saved, err := repo.RecordSale(ctx, sampleSale(strPtr("1")))
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)

		p, err := repo.GetMedicine(ctx, "1")
		require.NoError(t, err)
		assert.EqualValues(t, 148, p.Stock)
		c3, err := repo.GetMedicine(ctx, "3")
		require.NoError(t, err)
		assert.EqualValues(t, 11, c3.Stock)

		cust, err := repo.GetCustomer(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "5371.50", cust.TotalPurchases.StringFixed(2))
		assert.Equal(t, "2024-01-16", cust.LastVisit)

		back, err := repo.GetSale(ctx, saved.ID)
		require.NoError(t, err)
		require.Len(t, back.Items, 2)
		assert.Equal(t, "Paracetamol 500mg", back.Items[0].MedicineName)
		assert.True(t, back.FinalTotal.Equal(money("91.00")))
		require.NotNil(t, back.CustomerID)
		assert.Equal(t, "1", *back.CustomerID)

		list, err := repo.ListSales(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Len(t, list[0].Items, 2)
	})

	t.Run("walk-in sale", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		seed(t, repo)

		sale := sampleSale(nil)
		sale.CustomerName = ""
		saved, err := repo.RecordSale(ctx, sale)
		require.NoError(t, err)

		back, err := repo.GetSale(ctx, saved.ID)
		require.NoError(t, err)
		assert.True(t, back.WalkIn())

		cust, err := repo.GetCustomer(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "5280.50", cust.TotalPurchases.StringFixed(2))
	})

	t.Run("rejected sale changes nothing", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		seed(t, repo)

		tooMany := sampleSale(strPtr("1"))
		tooMany.Items[1].Quantity = 13
		_, err := repo.RecordSale(ctx, tooMany)
		require.ErrorIs(t, err, domain.ErrInsufficientStock)
		var stockErr *domain.StockError
		require.True(t, errors.As(err, &stockErr))
		assert.EqualValues(t, 12, stockErr.Available)

		unknown := sampleSale(nil)
		unknown.Items[1].MedicineID = "404"
		_, err = repo.RecordSale(ctx, unknown)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		noCustomer := sampleSale(strPtr("ghost"))
		_, err = repo.RecordSale(ctx, noCustomer)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		p, err := repo.GetMedicine(ctx, "1")
		require.NoError(t, err)
		assert.EqualValues(t, 150, p.Stock)
		c3, err := repo.GetMedicine(ctx, "3")
		require.NoError(t, err)
		assert.EqualValues(t, 12, c3.Stock)
		cust, err := repo.GetCustomer(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "2024-01-15", cust.LastVisit)

		list, err := repo.ListSales(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("stock can reach zero but not below", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		seed(t, repo)

		sale := sampleSale(nil)
		sale.Items = sale.Items[1:]
		sale.Items[0].Quantity = 12
		_, err := repo.RecordSale(ctx, sale)
		require.NoError(t, err)

		c3, err := repo.GetMedicine(ctx, "3")
		require.NoError(t, err)
		assert.EqualValues(t, 0, c3.Stock)

		sale.Items[0].Quantity = 1
		_, err = repo.RecordSale(ctx, sale)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	})

	t.Run("import sale leaves stock alone", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		seed(t, repo)

		historical := sampleSale(strPtr("1"))
		historical.ID = "1"
		saved, err := repo.ImportSale(ctx, historical)
		require.NoError(t, err)
		assert.Equal(t, "1", saved.ID)

		p, err := repo.GetMedicine(ctx, "1")
		require.NoError(t, err)
		assert.EqualValues(t, 150, p.Stock)

		_, err = repo.GetSale(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("concurrent sales never oversell", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		seed(t, repo)

		const buyers = 40
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			sold      int
			otherErrs []error
		)
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.RecordSale(ctx, oneCetirizine())
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					sold++
				case !errors.Is(err, domain.ErrInsufficientStock):
					otherErrs = append(otherErrs, err)
				}
			}()
		}
		wg.Wait()

		require.Empty(t, otherErrs)
		assert.Equal(t, 12, sold)
		m, err := repo.GetMedicine(ctx, "3")
		require.NoError(t, err)
		assert.EqualValues(t, 0, m.Stock)
		list, err := repo.ListSales(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 12)
	})
}

func oneCetirizine() domain.Sale {
	return domain.Sale{
		Items: []domain.SaleItem{
			{MedicineID: "3", MedicineName: "Cetirizine 10mg", Quantity: 1, Price: money("45.00"), Total: money("45.00")},
		},
		Total: money("45.00"), Discount: decimal.Zero, FinalTotal: money("45.00"),
		PaymentMethod: domain.PaymentCash, Date: "2024-01-16", Time: "10:05",
	}
}
