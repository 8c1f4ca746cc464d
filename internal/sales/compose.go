// Package sales builds sale records from counter picks and applies them to stock.
package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"pharmadesk/m/domain"
)

// Pick is one medicine chosen at the counter.
type Pick struct {
	MedicineID string `json:"medicine_id"`
	Quantity   int64  `json:"quantity"`
}

// Order is everything the counter collects before a sale is completed.
// A nil Customer is a walk-in sale.
type Order struct {
	Picks         []Pick
	Customer      *domain.Customer
	Discount      decimal.Decimal
	PaymentMethod domain.PaymentMethod
}

// Index keys medicines by id.
func Index(medicines []domain.Medicine) map[string]domain.Medicine {
	idx := make(map[string]domain.Medicine, len(medicines))
	for _, m := range medicines {
		idx[m.ID] = m
	}
	return idx
}

// MergePicks sums quantities of repeated medicines, keeping first-seen order.
func MergePicks(picks []Pick) []Pick {
	merged := make([]Pick, 0, len(picks))
	pos := make(map[string]int, len(picks))
	for _, p := range picks {
		if i, ok := pos[p.MedicineID]; ok {
			merged[i].Quantity += p.Quantity
			continue
		}
		pos[p.MedicineID] = len(merged)
		merged = append(merged, p)
	}
	return merged
}

// Compose prices an order against the catalog and stamps it with now.
// The returned sale has no id; the store assigns one when it is recorded.
func Compose(order Order, catalog map[string]domain.Medicine, now time.Time) (domain.Sale, error) {
	picks := MergePicks(order.Picks)
	if len(picks) == 0 {
		return domain.Sale{}, fmt.Errorf("at least one item is required: %w", domain.ErrInvalidSale)
	}
	if !order.PaymentMethod.Valid() {
		return domain.Sale{}, fmt.Errorf("payment method %q: %w", order.PaymentMethod, domain.ErrInvalidSale)
	}
	if order.Discount.IsNegative() {
		return domain.Sale{}, fmt.Errorf("discount cannot be negative: %w", domain.ErrInvalidSale)
	}

	items := make([]domain.SaleItem, 0, len(picks))
	total := decimal.Zero
	for _, p := range picks {
		if p.Quantity <= 0 {
			return domain.Sale{}, fmt.Errorf("quantity for medicine %q must be positive: %w", p.MedicineID, domain.ErrInvalidSale)
		}
		med, ok := catalog[p.MedicineID]
		if !ok {
			return domain.Sale{}, fmt.Errorf("medicine %q: %w", p.MedicineID, domain.ErrNotFound)
		}
		if p.Quantity > med.Stock {
			return domain.Sale{}, &domain.StockError{MedicineID: med.ID, Name: med.Name, Requested: p.Quantity, Available: med.Stock}
		}
		line := med.Price.Mul(decimal.NewFromInt(p.Quantity))
		items = append(items, domain.SaleItem{
			MedicineID:   med.ID,
			MedicineName: med.Name,
			Quantity:     p.Quantity,
			Price:        med.Price,
			Total:        line,
		})
		total = total.Add(line)
	}

	if order.Discount.GreaterThan(total) {
		return domain.Sale{}, fmt.Errorf("discount %s exceeds total %s: %w", order.Discount.StringFixed(2), total.StringFixed(2), domain.ErrInvalidSale)
	}

	sale := domain.Sale{
		Items:         items,
		Total:         total,
		Discount:      order.Discount,
		FinalTotal:    total.Sub(order.Discount),
		PaymentMethod: order.PaymentMethod,
		Date:          now.Format(domain.DateLayout),
		Time:          now.Format(domain.TimeLayout),
	}
	if order.Customer != nil {
		id := order.Customer.ID
		sale.CustomerID = &id
		sale.CustomerName = order.Customer.Name
	}
	return sale, nil
}
