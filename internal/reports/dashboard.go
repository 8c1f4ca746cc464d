package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"pharmadesk/m/domain"
)

const recentSalesLimit = 5

type Stats struct {
	TotalMedicines    int             `json:"total_medicines"`
	LowStockCount     int             `json:"low_stock_count"`
	TotalCustomers    int             `json:"total_customers"`
	TodaySales        int             `json:"today_sales"`
	TodayRevenue      decimal.Decimal `json:"today_revenue"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	ExpiringMedicines int             `json:"expiring_medicines"`
}

type Dashboard struct {
	Stats       Stats             `json:"stats"`
	LowStock    []domain.Medicine `json:"low_stock"`
	Expiring    []domain.Medicine `json:"expiring"`
	RecentSales []domain.Sale     `json:"recent_sales"`
}

// BuildDashboard assembles the landing-page view. RecentSales holds the
// latest sales, newest first.
func BuildDashboard(medicines []domain.Medicine, customers []domain.Customer, sales []domain.Sale, now time.Time, window time.Duration) Dashboard {
	today := now.Format(domain.DateLayout)
	low := LowStock(medicines)
	expiring := ExpiringSoon(medicines, now, window)

	recent := make([]domain.Sale, 0, recentSalesLimit)
	for i := len(sales) - 1; i >= 0 && len(recent) < recentSalesLimit; i-- {
		recent = append(recent, sales[i])
	}

	return Dashboard{
		Stats: Stats{
			TotalMedicines:    len(medicines),
			LowStockCount:     len(low),
			TotalCustomers:    len(customers),
			TodaySales:        CountOn(sales, today),
			TodayRevenue:      Revenue(sales, today),
			TotalRevenue:      Revenue(sales, ""),
			ExpiringMedicines: len(expiring),
		},
		LowStock:    low,
		Expiring:    expiring,
		RecentSales: recent,
	}
}

type Summary struct {
	TotalRevenue decimal.Decimal   `json:"total_revenue"`
	TotalSales   int               `json:"total_sales"`
	AverageSale  decimal.Decimal   `json:"average_sale"`
	Daily        []DayTotal        `json:"daily"`
	TopSellers   []TopSeller       `json:"top_sellers"`
	LowStock     []domain.Medicine `json:"low_stock"`
	Expiring     []domain.Medicine `json:"expiring"`
}

// BuildSummary assembles the reports page: headline revenue figures, the
// last days days of sales and the top sellers.
func BuildSummary(medicines []domain.Medicine, sales []domain.Sale, now time.Time, window time.Duration, days, top int) Summary {
	return Summary{
		TotalRevenue: Revenue(sales, ""),
		TotalSales:   len(sales),
		AverageSale:  AverageSale(sales),
		Daily:        DailySales(sales, now, days),
		TopSellers:   TopSellers(sales, medicines, top),
		LowStock:     LowStock(medicines),
		Expiring:     ExpiringSoon(medicines, now, window),
	}
}

type CustomerSummary struct {
	Customers      int             `json:"customers"`
	TotalPurchases decimal.Decimal `json:"total_purchases"`
	AveragePerHead decimal.Decimal `json:"average_per_customer"`
}

func SummarizeCustomers(customers []domain.Customer) CustomerSummary {
	sum := decimal.Zero
	for _, c := range customers {
		sum = sum.Add(c.TotalPurchases)
	}
	avg := decimal.Zero
	if len(customers) > 0 {
		avg = sum.Div(decimal.NewFromInt(int64(len(customers)))).Round(2)
	}
	return CustomerSummary{Customers: len(customers), TotalPurchases: sum, AveragePerHead: avg}
}
