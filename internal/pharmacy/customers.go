package pharmacy

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/reports"
)

func validateCustomer(c domain.Customer) error {
	v := &domain.ValidationError{}
	if c.Name == "" {
		v.Add("name", "Name is required")
	}
	if c.Phone == "" {
		v.Add("phone", "Phone number is required")
	}
	if c.Email != "" && !domain.ValidEmail(c.Email) {
		v.Add("email", "Please enter a valid email address")
	}
	return v.Err()
}

func (s *Service) ListCustomers(ctx context.Context, term string) ([]domain.Customer, error) {
	snap, err := s.load(ctx, false, true, false)
	if err != nil {
		return nil, err
	}
	return reports.FilterCustomers(snap.customers, term), nil
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// AddCustomer registers a customer with no purchases, visiting today unless
// a last visit is supplied.
func (s *Service) AddCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	c.ID = ""
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Address = strings.TrimSpace(c.Address)
	if err := validateCustomer(c); err != nil {
		return domain.Customer{}, err
	}
	if c.TotalPurchases.IsNegative() {
		c.TotalPurchases = decimal.Zero
	}
	if c.LastVisit == "" {
		c.LastVisit = s.today()
	}
	created, err := s.repo.CreateCustomer(ctx, c)
	if err != nil {
		return domain.Customer{}, err
	}
	s.logger.Info("customer added", zap.String("id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func (s *Service) CustomerSummary(ctx context.Context) (reports.CustomerSummary, error) {
	snap, err := s.load(ctx, false, true, false)
	if err != nil {
		return reports.CustomerSummary{}, err
	}
	return reports.SummarizeCustomers(snap.customers), nil
}
