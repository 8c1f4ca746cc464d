package domain

import "github.com/shopspring/decimal"

type Customer struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Phone          string          `db:"phone" json:"phone"`
	Email          string          `db:"email" json:"email,omitempty"`
	Address        string          `db:"address" json:"address,omitempty"`
	TotalPurchases decimal.Decimal `db:"total_purchases" json:"total_purchases"`
	LastVisit      string          `db:"last_visit" json:"last_visit"`
}
