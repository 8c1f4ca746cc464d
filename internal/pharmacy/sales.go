package pharmacy

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/sales"
)

// SaleRequest is a completed counter form. An empty CustomerID is a walk-in.
type SaleRequest struct {
	CustomerID    string               `json:"customer_id"`
	Items         []sales.Pick         `json:"items"`
	Discount      decimal.Decimal      `json:"discount"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

// RecordSale prices the request against current stock and commits it. The
// store re-checks stock atomically, so a concurrent sale cannot oversell.
func (s *Service) RecordSale(ctx context.Context, req SaleRequest) (domain.Sale, error) {
	var customer *domain.Customer
	if req.CustomerID != "" {
		c, err := s.repo.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			return domain.Sale{}, err
		}
		customer = &c
	}

	snap, err := s.load(ctx, true, false, false)
	if err != nil {
		return domain.Sale{}, err
	}
	sale, err := sales.Compose(sales.Order{
		Picks:         req.Items,
		Customer:      customer,
		Discount:      req.Discount,
		PaymentMethod: req.PaymentMethod,
	}, sales.Index(snap.medicines), s.Now())
	if err != nil {
		return domain.Sale{}, err
	}

	saved, err := s.repo.RecordSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}
	s.logger.Info("sale recorded",
		zap.String("id", saved.ID),
		zap.Int("items", len(saved.Items)),
		zap.String("final_total", saved.FinalTotal.StringFixed(2)),
		zap.String("payment", string(saved.PaymentMethod)),
		zap.Bool("walk_in", saved.WalkIn()),
	)
	return saved, nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	return s.repo.GetSale(ctx, id)
}
