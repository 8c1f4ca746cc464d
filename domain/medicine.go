package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for expiry dates, sale dates
// and customer visits.
const DateLayout = "2006-01-02"

// TimeLayout is the wall-clock format stored on sales.
const TimeLayout = "15:04"

type Medicine struct {
	ID           string          `db:"id" json:"id"`
	Name         string          `db:"name" json:"name"`
	Category     string          `db:"category" json:"category"`
	Manufacturer string          `db:"manufacturer" json:"manufacturer"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Stock        int64           `db:"stock" json:"stock"`
	MinStock     int64           `db:"min_stock" json:"min_stock"`
	ExpiryDate   string          `db:"expiry_date" json:"expiry_date"`
	BatchNumber  string          `db:"batch_number" json:"batch_number"`
	Description  string          `db:"description" json:"description,omitempty"`
	Dosage       string          `db:"dosage" json:"dosage,omitempty"`
	Prescription bool            `db:"prescription" json:"prescription"`
}

// IsLowStock reports whether on-hand stock is at or below the configured minimum.
func (m Medicine) IsLowStock() bool {
	return m.Stock <= m.MinStock
}

// Expiry parses ExpiryDate as a date in loc.
func (m Medicine) Expiry(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, m.ExpiryDate, loc)
}

// ExpiresBy reports whether the medicine expires on or before deadline.
// Unparseable dates never match.
func (m Medicine) ExpiresBy(deadline time.Time) bool {
	expiry, err := m.Expiry(deadline.Location())
	if err != nil {
		return false
	}
	return !expiry.After(deadline)
}
