package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/store"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

// DemoCustomers are the regulars shown on a fresh install.
func DemoCustomers() []domain.Customer {
	return []domain.Customer{
		{ID: "1", Name: "Rajesh Kumar", Email: "rajesh.kumar@email.com", Phone: "+91 9876543210", Address: "123 Main Street, Delhi", TotalPurchases: money("5280.50"), LastVisit: "2024-01-15"},
		{ID: "2", Name: "Priya Sharma", Phone: "+91 8765432109", Address: "456 Oak Avenue, Mumbai", TotalPurchases: money("3450.00"), LastVisit: "2024-01-14"},
		{ID: "3", Name: "Amit Patel", Email: "amit.patel@email.com", Phone: "+91 7654321098", TotalPurchases: money("1890.75"), LastVisit: "2024-01-13"},
	}
}

// DemoSales is past sales history. It is already reflected in the catalog
// stock and customer totals.
func DemoSales() []domain.Sale {
	return []domain.Sale{
		{
			ID: "1", CustomerID: strPtr("1"), CustomerName: "Rajesh Kumar",
			Items: []domain.SaleItem{
				{MedicineID: "1", MedicineName: "Paracetamol 500mg", Quantity: 2, Price: money("25.50"), Total: money("51.00")},
				{MedicineID: "3", MedicineName: "Cetirizine 10mg", Quantity: 1, Price: money("45.00"), Total: money("45.00")},
			},
			Total: money("96.00"), Discount: money("5.00"), FinalTotal: money("91.00"),
			PaymentMethod: domain.PaymentCash, Date: "2024-01-15", Time: "14:30",
		},
		{
			ID: "2", CustomerID: strPtr("2"), CustomerName: "Priya Sharma",
			Items: []domain.SaleItem{
				{MedicineID: "4", MedicineName: "Vitamin D3 60000 IU", Quantity: 3, Price: money("120.00"), Total: money("360.00")},
			},
			Total: money("360.00"), Discount: decimal.Zero, FinalTotal: money("360.00"),
			PaymentMethod: domain.PaymentUPI, Date: "2024-01-14", Time: "11:15",
		},
	}
}

// LoadDemo adds the demo customers and sales when repo has no customers.
func LoadDemo(ctx context.Context, repo store.Repository, logger *zap.Logger) error {
	existing, err := repo.ListCustomers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	customers := DemoCustomers()
	for _, c := range customers {
		if _, err := repo.CreateCustomer(ctx, c); err != nil {
			return fmt.Errorf("seed customer %s: %w", c.Name, err)
		}
	}
	history := DemoSales()
	for _, s := range history {
		if _, err := repo.ImportSale(ctx, s); err != nil {
			return fmt.Errorf("seed sale %s: %w", s.ID, err)
		}
	}
	logger.Info("seeded demo data", zap.Int("customers", len(customers)), zap.Int("sales", len(history)))
	return nil
}
