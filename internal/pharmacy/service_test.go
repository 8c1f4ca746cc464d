package pharmacy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/sales"
	"pharmadesk/m/internal/store/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var fixedNow = time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

func newService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()
	for _, m := range []domain.Medicine{
		{ID: "1", Name: "Paracetamol 500mg", Category: "Pain Relief", Manufacturer: "Cipla", Price: money("25.50"), Stock: 150, MinStock: 20, ExpiryDate: "2025-12-15", BatchNumber: "PAR001"},
		{ID: "3", Name: "Cetirizine 10mg", Category: "Antihistamine", Manufacturer: "Dr. Reddy's", Price: money("45.00"), Stock: 12, MinStock: 20, ExpiryDate: "2025-06-30", BatchNumber: "CET003"},
	} {
		_, err := repo.CreateMedicine(ctx, m)
		require.NoError(t, err)
	}
	_, err := repo.CreateCustomer(ctx, domain.Customer{ID: "1", Name: "Rajesh Kumar", Phone: "+91 9876543210", TotalPurchases: money("100.00"), LastVisit: "2025-01-01"})
	require.NoError(t, err)
	return New(repo, Options{Now: func() time.Time { return fixedNow }, Location: time.UTC})
}

func TestRecordSale(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	sale, err := svc.RecordSale(ctx, SaleRequest{
		CustomerID:    "1",
		Items:         []sales.Pick{{MedicineID: "1", Quantity: 2}, {MedicineID: "3", Quantity: 1}},
		Discount:      money("5.00"),
		PaymentMethod: domain.PaymentUPI,
	})
	require.NoError(t, err)
	assert.Equal(t, "96.00", sale.Total.StringFixed(2))
	assert.Equal(t, "91.00", sale.FinalTotal.StringFixed(2))
	assert.Equal(t, "Rajesh Kumar", sale.CustomerName)
	assert.Equal(t, "2025-06-10", sale.Date)
	assert.Equal(t, "14:30", sale.Time)

	m, err := svc.GetMedicine(ctx, "3")
	require.NoError(t, err)
	assert.EqualValues(t, 11, m.Stock)

	c, err := svc.GetCustomer(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "191.00", c.TotalPurchases.StringFixed(2))
	assert.Equal(t, "2025-06-10", c.LastVisit)

	list, err := svc.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sale.ID, list[0].ID)
}

func TestRecordSaleRejections(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.RecordSale(ctx, SaleRequest{CustomerID: "missing", Items: []sales.Pick{{MedicineID: "1", Quantity: 1}}, PaymentMethod: domain.PaymentCash})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.RecordSale(ctx, SaleRequest{Items: []sales.Pick{{MedicineID: "3", Quantity: 13}}, PaymentMethod: domain.PaymentCash})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = svc.RecordSale(ctx, SaleRequest{PaymentMethod: domain.PaymentCash})
	assert.ErrorIs(t, err, domain.ErrInvalidSale)

	m, err := svc.GetMedicine(ctx, "3")
	require.NoError(t, err)
	assert.EqualValues(t, 12, m.Stock)
}

func TestAddMedicineValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.AddMedicine(ctx, domain.Medicine{Name: "  ", Price: money("-1"), Stock: -1, ExpiryDate: "15/12/2025"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Medicine name is required", verr.Fields["name"])
	assert.Equal(t, "Price cannot be negative", verr.Fields["price"])
	assert.Equal(t, "Stock cannot be negative", verr.Fields["stock"])
	assert.Equal(t, "Expiry date must be in YYYY-MM-DD format", verr.Fields["expiry_date"])
	assert.Contains(t, verr.Fields, "batch_number")

	created, err := svc.AddMedicine(ctx, domain.Medicine{
		ID: "ignored", Name: " Vitamin D3 ", Category: "Vitamins", Manufacturer: "Sun Pharma",
		Price: money("180.00"), Stock: 8, MinStock: 15, ExpiryDate: "2026-03-20", BatchNumber: "VIT004",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "ignored", created.ID)
	assert.Equal(t, "Vitamin D3", created.Name)

	low, err := svc.LowStock(ctx)
	require.NoError(t, err)
	var names []string
	for _, m := range low {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Cetirizine 10mg", "Vitamin D3"}, names)
}

func TestUpdateMedicineMergesFields(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	stock := int64(5)
	price := money("27.00")
	updated, err := svc.UpdateMedicine(ctx, "1", MedicinePatch{Stock: &stock, Price: &price})
	require.NoError(t, err)
	assert.EqualValues(t, 5, updated.Stock)
	assert.True(t, updated.Price.Equal(price))
	assert.Equal(t, "Paracetamol 500mg", updated.Name)
	assert.Equal(t, "PAR001", updated.BatchNumber)

	negative := int64(-3)
	_, err = svc.UpdateMedicine(ctx, "1", MedicinePatch{MinStock: &negative})
	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = svc.UpdateMedicine(ctx, "nope", MedicinePatch{Stock: &stock})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteMedicine(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	require.NoError(t, svc.DeleteMedicine(ctx, "3"))
	_, err := svc.GetMedicine(ctx, "3")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteMedicine(ctx, "3"), domain.ErrNotFound)
}

func TestAddCustomer(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.AddCustomer(ctx, domain.Customer{Name: "Amit", Email: "not-an-email"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Phone number is required", verr.Fields["phone"])
	assert.Equal(t, "Please enter a valid email address", verr.Fields["email"])

	c, err := svc.AddCustomer(ctx, domain.Customer{Name: "Amit Singh", Phone: "+91 9876543212"})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10", c.LastVisit)
	assert.True(t, c.TotalPurchases.IsZero())

	found, err := svc.ListCustomers(ctx, "amit")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, c.ID, found[0].ID)

	summary, err := svc.CustomerSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Customers)
	assert.Equal(t, "100.00", summary.TotalPurchases.StringFixed(2))
}

func TestViews(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.RecordSale(ctx, SaleRequest{Items: []sales.Pick{{MedicineID: "1", Quantity: 3}}, PaymentMethod: domain.PaymentCash})
	require.NoError(t, err)

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.Stats.TotalMedicines)
	assert.Equal(t, 1, dash.Stats.TodaySales)
	assert.Len(t, dash.RecentSales, 1)

	expiring, err := svc.Expiring(ctx, 0)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "3", expiring[0].ID)

	expiring, err = svc.Expiring(ctx, 365)
	require.NoError(t, err)
	assert.Len(t, expiring, 2)

	top, err := svc.TopSellers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.EqualValues(t, 3, top[0].Quantity)

	daily, err := svc.DailySales(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, daily, DefaultReportDays)

	revenue, err := svc.Revenue(ctx, "2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, "76.50", revenue.Revenue.StringFixed(2))
	assert.Equal(t, 1, revenue.Sales)

	all, err := svc.Revenue(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, all.Sales)

	quiet, err := svc.Revenue(ctx, "2025-06-09")
	require.NoError(t, err)
	assert.True(t, quiet.Revenue.IsZero())

	_, err = svc.Revenue(ctx, "10/06/2025")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "date")

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pain Relief", "Antihistamine"}, cats)
}

func TestLongRangesAreCapped(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	expiring, err := svc.Expiring(ctx, 200000)
	require.NoError(t, err)
	assert.Len(t, expiring, 2)

	daily, err := svc.DailySales(ctx, 2_000_000)
	require.NoError(t, err)
	assert.Len(t, daily, MaxReportDays)
	assert.Equal(t, "2025-06-10", daily[len(daily)-1].Date)

	summary, err := svc.Summary(ctx, 100_000_000, 0)
	require.NoError(t, err)
	assert.Len(t, summary.Daily, MaxReportDays)
}
