// Package store defines the persistence contract shared by the in-memory and
// SQLite backends.
package store

import (
	"context"

	"github.com/google/uuid"

	"pharmadesk/m/domain"
)

// Repository owns the medicine, customer and sale collections. Lists come
// back in insertion order. Lookups of unknown ids fail with domain.ErrNotFound.
type Repository interface {
	ListMedicines(ctx context.Context) ([]domain.Medicine, error)
	GetMedicine(ctx context.Context, id string) (domain.Medicine, error)
	CreateMedicine(ctx context.Context, m domain.Medicine) (domain.Medicine, error)
	UpdateMedicine(ctx context.Context, m domain.Medicine) (domain.Medicine, error)
	DeleteMedicine(ctx context.Context, id string) error

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (domain.Customer, error)
	CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error)

	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSale(ctx context.Context, id string) (domain.Sale, error)
	// RecordSale checks that every referenced medicine exists with enough
	// stock and that the customer (if any) exists, then decrements stock,
	// credits the customer and stores the sale, all or nothing.
	RecordSale(ctx context.Context, s domain.Sale) (domain.Sale, error)
	// ImportSale stores a historical sale without touching stock or customers.
	ImportSale(ctx context.Context, s domain.Sale) (domain.Sale, error)

	Close() error
}

// NewID returns a fresh record id.
func NewID() string {
	return uuid.NewString()
}
