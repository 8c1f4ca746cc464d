// Package pharmacy is the single owner of pharmacy state. It validates
// intents from the API, applies them to the store and serves the derived
// dashboard and report views.
package pharmacy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/reports"
	"pharmadesk/m/internal/store"
)

type Options struct {
	// ExpiryWindow is the "expiring soon" lookahead.
	ExpiryWindow time.Duration
	Location     *time.Location
	Now          func() time.Time
	Logger       *zap.Logger
}

type Service struct {
	repo         store.Repository
	expiryWindow time.Duration
	loc          *time.Location
	now          func() time.Time
	logger       *zap.Logger
}

func New(repo store.Repository, opts Options) *Service {
	if opts.ExpiryWindow <= 0 {
		opts.ExpiryWindow = reports.DefaultExpiryWindow
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		repo:         repo,
		expiryWindow: opts.ExpiryWindow,
		loc:          opts.Location,
		now:          opts.Now,
		logger:       opts.Logger,
	}
}

// Now is the service clock in the configured time zone.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) today() string {
	return s.Now().Format(domain.DateLayout)
}

type snapshot struct {
	medicines []domain.Medicine
	customers []domain.Customer
	sales     []domain.Sale
}

// load reads the collections the caller asks for.
func (s *Service) load(ctx context.Context, medicines, customers, sales bool) (snapshot, error) {
	var (
		snap snapshot
		err  error
	)
	if medicines {
		if snap.medicines, err = s.repo.ListMedicines(ctx); err != nil {
			return snapshot{}, fmt.Errorf("load medicines: %w", err)
		}
	}
	if customers {
		if snap.customers, err = s.repo.ListCustomers(ctx); err != nil {
			return snapshot{}, fmt.Errorf("load customers: %w", err)
		}
	}
	if sales {
		if snap.sales, err = s.repo.ListSales(ctx); err != nil {
			return snapshot{}, fmt.Errorf("load sales: %w", err)
		}
	}
	return snap, nil
}
