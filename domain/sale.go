package domain

import "github.com/shopspring/decimal"

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

// Valid reports whether p is one of the accepted payment methods.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

type Sale struct {
	ID            string          `db:"id" json:"id"`
	CustomerID    *string         `db:"customer_id" json:"customer_id,omitempty"`
	CustomerName  string          `db:"customer_name" json:"customer_name,omitempty"`
	Items         []SaleItem      `db:"-" json:"items"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Discount      decimal.Decimal `db:"discount" json:"discount"`
	FinalTotal    decimal.Decimal `db:"final_total" json:"final_total"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"payment_method"`
	Date          string          `db:"sale_date" json:"date"`
	Time          string          `db:"sale_time" json:"time"`
}

// WalkIn reports whether the sale has no associated customer.
func (s Sale) WalkIn() bool {
	return s.CustomerID == nil || *s.CustomerID == ""
}

type SaleItem struct {
	SaleID       string          `db:"sale_id" json:"-"`
	MedicineID   string          `db:"medicine_id" json:"medicine_id"`
	MedicineName string          `db:"medicine_name" json:"medicine_name"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	Price        decimal.Decimal `db:"price" json:"price"`
	Total        decimal.Decimal `db:"total" json:"total"`
}
