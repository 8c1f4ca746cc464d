package pharmacy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/reports"
)

const (
	DefaultReportDays = 7
	DefaultTopSellers = 5

	// MaxReportDays bounds the daily sales series.
	MaxReportDays = 366
	// MaxExpiryDays bounds the expiry lookahead.
	MaxExpiryDays = 3650
)

// clampDays maps non-positive days to def and caps the rest at limit.
func clampDays(days, def, limit int) int {
	switch {
	case days <= 0:
		return def
	case days > limit:
		return limit
	}
	return days
}

func (s *Service) Dashboard(ctx context.Context) (reports.Dashboard, error) {
	snap, err := s.load(ctx, true, true, true)
	if err != nil {
		return reports.Dashboard{}, err
	}
	return reports.BuildDashboard(snap.medicines, snap.customers, snap.sales, s.Now(), s.expiryWindow), nil
}

// Summary builds the reports page over the last days days with the top
// best-selling medicines. Non-positive arguments fall back to 7 and 5; days
// is capped at MaxReportDays.
func (s *Service) Summary(ctx context.Context, days, top int) (reports.Summary, error) {
	days = clampDays(days, DefaultReportDays, MaxReportDays)
	if top <= 0 {
		top = DefaultTopSellers
	}
	snap, err := s.load(ctx, true, false, true)
	if err != nil {
		return reports.Summary{}, err
	}
	return reports.BuildSummary(snap.medicines, snap.sales, s.Now(), s.expiryWindow, days, top), nil
}

func (s *Service) LowStock(ctx context.Context) ([]domain.Medicine, error) {
	snap, err := s.load(ctx, true, false, false)
	if err != nil {
		return nil, err
	}
	return reports.LowStock(snap.medicines), nil
}

// Expiring lists medicines expiring within days days, or within the
// configured window when days is not positive. days is capped at
// MaxExpiryDays.
func (s *Service) Expiring(ctx context.Context, days int) ([]domain.Medicine, error) {
	window := s.expiryWindow
	if days > 0 {
		window = time.Duration(clampDays(days, 0, MaxExpiryDays)) * 24 * time.Hour
	}
	snap, err := s.load(ctx, true, false, false)
	if err != nil {
		return nil, err
	}
	return reports.ExpiringSoon(snap.medicines, s.Now(), window), nil
}

func (s *Service) TopSellers(ctx context.Context, n int) ([]reports.TopSeller, error) {
	if n <= 0 {
		n = DefaultTopSellers
	}
	snap, err := s.load(ctx, true, false, true)
	if err != nil {
		return nil, err
	}
	return reports.TopSellers(snap.sales, snap.medicines, n), nil
}

// DailySales is the per-day series for the last days days, capped at
// MaxReportDays.
func (s *Service) DailySales(ctx context.Context, days int) ([]reports.DayTotal, error) {
	days = clampDays(days, DefaultReportDays, MaxReportDays)
	snap, err := s.load(ctx, false, false, true)
	if err != nil {
		return nil, err
	}
	return reports.DailySales(snap.sales, s.Now(), days), nil
}

type RevenueTotal struct {
	Date    string          `json:"date,omitempty"`
	Sales   int             `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Revenue sums sales on date, or all sales when date is empty.
func (s *Service) Revenue(ctx context.Context, date string) (RevenueTotal, error) {
	if date != "" {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			v := &domain.ValidationError{}
			v.Add("date", "Date must be in YYYY-MM-DD format")
			return RevenueTotal{}, v
		}
	}
	snap, err := s.load(ctx, false, false, true)
	if err != nil {
		return RevenueTotal{}, err
	}
	count := len(snap.sales)
	if date != "" {
		count = reports.CountOn(snap.sales, date)
	}
	return RevenueTotal{Date: date, Sales: count, Revenue: reports.Revenue(snap.sales, date)}, nil
}
