package sales

import (
	"fmt"

	"pharmadesk/m/domain"
)

// Demand totals the quantity a sale takes from each medicine.
func Demand(sale domain.Sale) map[string]int64 {
	demand := make(map[string]int64, len(sale.Items))
	for _, item := range sale.Items {
		demand[item.MedicineID] += item.Quantity
	}
	return demand
}

// CheckStock verifies every line of sale against current stock without
// changing anything. It fails on the first missing medicine or shortfall.
func CheckStock(sale domain.Sale, stock map[string]domain.Medicine) error {
	for _, item := range sale.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("quantity for medicine %q must be positive: %w", item.MedicineID, domain.ErrInvalidSale)
		}
	}
	for id, qty := range Demand(sale) {
		med, ok := stock[id]
		if !ok {
			return fmt.Errorf("medicine %q: %w", id, domain.ErrNotFound)
		}
		if qty > med.Stock {
			return &domain.StockError{MedicineID: id, Name: med.Name, Requested: qty, Available: med.Stock}
		}
	}
	return nil
}

// ApplyStock returns the medicines touched by sale with their stock reduced.
// stock itself is left unchanged; callers commit the result only when it
// returns no error.
func ApplyStock(sale domain.Sale, stock map[string]domain.Medicine) (map[string]domain.Medicine, error) {
	if err := CheckStock(sale, stock); err != nil {
		return nil, err
	}
	updated := make(map[string]domain.Medicine)
	for id, qty := range Demand(sale) {
		med := stock[id]
		med.Stock -= qty
		updated[id] = med
	}
	return updated, nil
}
