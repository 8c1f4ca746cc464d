// Package reports derives dashboard and report views from the live
// medicine, customer and sale collections. Nothing here is cached; every
// view is recomputed from its inputs.
package reports

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmadesk/m/domain"
)

// DefaultExpiryWindow is how far ahead "expiring soon" looks.
const DefaultExpiryWindow = 30 * 24 * time.Hour

const (
	StatusOutOfStock = "Out of Stock"
	StatusLowStock   = "Low Stock"
	StatusInStock    = "In Stock"
)

// LowStock returns medicines whose stock is at or below their minimum.
func LowStock(medicines []domain.Medicine) []domain.Medicine {
	out := []domain.Medicine{}
	for _, m := range medicines {
		if m.IsLowStock() {
			out = append(out, m)
		}
	}
	return out
}

// ExpiringSoon returns medicines whose expiry date is on or before
// now+window. Medicines that already expired are included.
func ExpiringSoon(medicines []domain.Medicine, now time.Time, window time.Duration) []domain.Medicine {
	deadline := now.Add(window)
	out := []domain.Medicine{}
	for _, m := range medicines {
		if m.ExpiresBy(deadline) {
			out = append(out, m)
		}
	}
	return out
}

// StockStatus labels a medicine for inventory listings.
func StockStatus(m domain.Medicine) string {
	switch {
	case m.Stock == 0:
		return StatusOutOfStock
	case m.IsLowStock():
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Revenue sums finalTotal over sales. An empty date means all sales.
func Revenue(sales []domain.Sale, date string) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range sales {
		if date != "" && s.Date != date {
			continue
		}
		sum = sum.Add(s.FinalTotal)
	}
	return sum
}

// CountOn returns how many sales happened on date.
func CountOn(sales []domain.Sale, date string) int {
	n := 0
	for _, s := range sales {
		if s.Date == date {
			n++
		}
	}
	return n
}

// AverageSale is total revenue divided by the number of sales, or zero.
func AverageSale(sales []domain.Sale) decimal.Decimal {
	if len(sales) == 0 {
		return decimal.Zero
	}
	return Revenue(sales, "").Div(decimal.NewFromInt(int64(len(sales)))).Round(2)
}

type DayTotal struct {
	Date    string          `json:"date"`
	Sales   int             `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
}

// DailySales returns one entry per day for the last days days ending at
// now, oldest first.
func DailySales(sales []domain.Sale, now time.Time, days int) []DayTotal {
	if days <= 0 {
		return []DayTotal{}
	}
	out := make([]DayTotal, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format(domain.DateLayout)
		out = append(out, DayTotal{
			Date:    date,
			Sales:   CountOn(sales, date),
			Revenue: Revenue(sales, date),
		})
	}
	return out
}

type TopSeller struct {
	Medicine domain.Medicine `json:"medicine"`
	Quantity int64           `json:"quantity"`
}

// TopSellers groups sold quantities by medicine and returns the n best,
// highest quantity first. Sales of medicines no longer in the catalog are
// skipped.
func TopSellers(sales []domain.Sale, medicines []domain.Medicine, n int) []TopSeller {
	sold := make(map[string]int64)
	for _, s := range sales {
		for _, item := range s.Items {
			sold[item.MedicineID] += item.Quantity
		}
	}

	out := []TopSeller{}
	for _, m := range medicines {
		if q, ok := sold[m.ID]; ok {
			out = append(out, TopSeller{Medicine: m, Quantity: q})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Medicine.Name < out[j].Medicine.Name
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Categories lists distinct medicine categories in first-seen order.
func Categories(medicines []domain.Medicine) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, m := range medicines {
		if !seen[m.Category] {
			seen[m.Category] = true
			out = append(out, m.Category)
		}
	}
	return out
}

// FilterMedicines matches term against name or manufacturer, case
// insensitively, and category exactly. Empty arguments match everything.
func FilterMedicines(medicines []domain.Medicine, term, category string) []domain.Medicine {
	term = strings.ToLower(strings.TrimSpace(term))
	out := []domain.Medicine{}
	for _, m := range medicines {
		if category != "" && m.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(m.Name), term) &&
			!strings.Contains(strings.ToLower(m.Manufacturer), term) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// FilterCustomers matches term against name or email case insensitively,
// or against the phone number as typed.
func FilterCustomers(customers []domain.Customer, term string) []domain.Customer {
	raw := strings.TrimSpace(term)
	lower := strings.ToLower(raw)
	out := []domain.Customer{}
	for _, c := range customers {
		if raw == "" ||
			strings.Contains(strings.ToLower(c.Name), lower) ||
			strings.Contains(c.Phone, raw) ||
			(c.Email != "" && strings.Contains(strings.ToLower(c.Email), lower)) {
			out = append(out, c)
		}
	}
	return out
}
