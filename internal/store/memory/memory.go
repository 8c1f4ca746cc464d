// Package memory keeps every collection in process memory. State lasts for
// the life of the process.
package memory

import (
	"context"
	"fmt"
	"sync"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/sales"
	"pharmadesk/m/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	medicines []domain.Medicine
	customers []domain.Customer
	sales     []domain.Sale
}

var _ store.Repository = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Close() error { return nil }

func (s *Store) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Medicine, len(s.medicines))
	copy(out, s.medicines)
	return out, nil
}

func (s *Store) medicineIndex(id string) int {
	for i, m := range s.medicines {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) GetMedicine(ctx context.Context, id string) (domain.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.medicineIndex(id)
	if i < 0 {
		return domain.Medicine{}, fmt.Errorf("medicine %q: %w", id, domain.ErrNotFound)
	}
	return s.medicines[i], nil
}

func (s *Store) CreateMedicine(ctx context.Context, m domain.Medicine) (domain.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = store.NewID()
	}
	if s.medicineIndex(m.ID) >= 0 {
		return domain.Medicine{}, fmt.Errorf("medicine %q already exists", m.ID)
	}
	s.medicines = append(s.medicines, m)
	return m, nil
}

func (s *Store) UpdateMedicine(ctx context.Context, m domain.Medicine) (domain.Medicine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.medicineIndex(m.ID)
	if i < 0 {
		return domain.Medicine{}, fmt.Errorf("medicine %q: %w", m.ID, domain.ErrNotFound)
	}
	s.medicines[i] = m
	return m, nil
}

func (s *Store) DeleteMedicine(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.medicineIndex(id)
	if i < 0 {
		return fmt.Errorf("medicine %q: %w", id, domain.ErrNotFound)
	}
	s.medicines = append(s.medicines[:i], s.medicines[i+1:]...)
	return nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Customer, len(s.customers))
	copy(out, s.customers)
	return out, nil
}

func (s *Store) customerIndex(id string) int {
	for i, c := range s.customers {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.customerIndex(id)
	if i < 0 {
		return domain.Customer{}, fmt.Errorf("customer %q: %w", id, domain.ErrNotFound)
	}
	return s.customers[i], nil
}

func (s *Store) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = store.NewID()
	}
	if s.customerIndex(c.ID) >= 0 {
		return domain.Customer{}, fmt.Errorf("customer %q already exists", c.ID)
	}
	s.customers = append(s.customers, c)
	return c, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Sale, len(s.sales))
	for i, sale := range s.sales {
		out[i] = cloneSale(sale)
	}
	return out, nil
}

func (s *Store) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sale := range s.sales {
		if sale.ID == id {
			return cloneSale(sale), nil
		}
	}
	return domain.Sale{}, fmt.Errorf("sale %q: %w", id, domain.ErrNotFound)
}

func (s *Store) RecordSale(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer := -1
	if !sale.WalkIn() {
		customer = s.customerIndex(*sale.CustomerID)
		if customer < 0 {
			return domain.Sale{}, fmt.Errorf("customer %q: %w", *sale.CustomerID, domain.ErrNotFound)
		}
	}

	updated, err := sales.ApplyStock(sale, sales.Index(s.medicines))
	if err != nil {
		return domain.Sale{}, err
	}

	for i, m := range s.medicines {
		if u, ok := updated[m.ID]; ok {
			s.medicines[i].Stock = u.Stock
		}
	}
	if customer >= 0 {
		c := &s.customers[customer]
		c.TotalPurchases = c.TotalPurchases.Add(sale.FinalTotal)
		c.LastVisit = sale.Date
	}
	return s.appendSale(sale), nil
}

func (s *Store) ImportSale(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendSale(sale), nil
}

func (s *Store) appendSale(sale domain.Sale) domain.Sale {
	if sale.ID == "" {
		sale.ID = store.NewID()
	}
	sale = cloneSale(sale)
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
	}
	s.sales = append(s.sales, sale)
	return cloneSale(sale)
}

func cloneSale(sale domain.Sale) domain.Sale {
	items := make([]domain.SaleItem, len(sale.Items))
	copy(items, sale.Items)
	sale.Items = items
	if sale.CustomerID != nil {
		id := *sale.CustomerID
		sale.CustomerID = &id
	}
	return sale
}
