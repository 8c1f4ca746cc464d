package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/onboarding"
	"pharmadesk/m/internal/pharmacy"
	"pharmadesk/m/internal/reports"
	"pharmadesk/m/internal/seed"
	"pharmadesk/m/internal/store/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var salesDay = time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()
	f, err := os.Open(filepath.Join("..", "..", "assets", "medicines.csv"))
	require.NoError(t, err)
	defer f.Close()
	_, err = seed.LoadMedicines(ctx, repo, f)
	require.NoError(t, err)

	svc := pharmacy.New(repo, pharmacy.Options{Now: func() time.Time { return salesDay }, Location: time.UTC})
	flow := onboarding.New(onboarding.Options{Codes: onboarding.StaticCode("123456"), HashCost: bcrypt.MinCost})
	return New(svc, flow, Options{Secret: "test-secret"}).Router()
}

func do(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func registration() map[string]any {
	return map[string]any{
		"name": "Asha Verma", "age": 34, "email": "asha@example.com",
		"shop_name": "City Pharmacy", "shop_license_number": "DL-20B-1234", "shop_owner_name": "Asha Verma",
		"address": "12 MG Road", "city": "Pune", "state": "Maharashtra", "pincode": "411001",
	}
}

func pharmacist(id string) map[string]any {
	return map[string]any{
		"session_id": id, "pharmacist_name": "R. Iyer", "license_number": "MH-PH-5521",
		"issued_year": 2015, "expiration_date": "2099-03-31", "issued_organization": onboarding.Organizations[0],
	}
}

// onboard walks a fresh phone number through every step and returns the token.
func onboard(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/auth/login", "", map[string]string{"phone_number": "9876543210"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[sessionResponse](t, rec).ID

	rec = do(t, router, http.MethodPost, "/auth/otp/verify", "", map[string]string{"session_id": id, "otp": "123456"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reg := registration()
	reg["session_id"] = id
	rec = do(t, router, http.MethodPost, "/auth/registration", "", reg)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/auth/pharmacist", "", pharmacist(id))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decode[sessionResponse](t, rec).Token
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	rec := do(t, newRouter(t), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestOnboarding(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodPost, "/auth/login", "", map[string]string{"phone_number": "12345"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	bad := decode[validationResponse](t, rec)
	assert.Equal(t, "Please enter a valid 10-digit mobile number", bad.Fields["phone_number"])

	rec = do(t, router, http.MethodPost, "/auth/login", "", map[string]string{"phone_number": "+91 98765 43210"})
	require.Equal(t, http.StatusCreated, rec.Code)
	s := decode[sessionResponse](t, rec)
	assert.Equal(t, onboarding.StepOTP, s.Step)
	assert.Equal(t, "+91 98765 43210", s.FormattedPhone)
	assert.Greater(t, s.ResendInSeconds, 0)

	rec = do(t, router, http.MethodPost, "/auth/otp/resend", "", map[string]string{"session_id": s.ID})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = do(t, router, http.MethodPost, "/auth/otp/verify", "", map[string]string{"session_id": s.ID, "otp": "123"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Please enter complete 6-digit OTP", decode[validationResponse](t, rec).Fields["otp"])

	rec = do(t, router, http.MethodPost, "/auth/otp/verify", "", map[string]string{"session_id": s.ID, "otp": "654321"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Invalid OTP. Please try again.", decode[validationResponse](t, rec).Fields["otp"])

	rec = do(t, router, http.MethodPost, "/auth/pharmacist", "", pharmacist(s.ID))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/otp/verify", "", map[string]string{"session_id": s.ID, "otp": "123456"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, onboarding.StepRegistration, decode[sessionResponse](t, rec).Step)

	reg := registration()
	reg["session_id"] = s.ID
	reg["step"] = 1
	reg["email"] = "asha@"
	rec = do(t, router, http.MethodPost, "/auth/registration", "", reg)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[validationResponse](t, rec).Fields, "email")

	reg["email"] = "asha@example.com"
	rec = do(t, router, http.MethodPost, "/auth/registration", "", reg)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[sessionResponse](t, rec).NextStep)

	reg["step"] = 3
	rec = do(t, router, http.MethodPost, "/auth/registration", "", reg)
	require.Equal(t, http.StatusOK, rec.Code)
	s = decode[sessionResponse](t, rec)
	assert.Equal(t, onboarding.StepPharmacistInfo, s.Step)
	require.NotNil(t, s.Registration)
	assert.Equal(t, "9876543210", s.Registration.PhoneNumber)

	expired := pharmacist(s.ID)
	expired["expiration_date"] = "2001-01-01"
	rec = do(t, router, http.MethodPost, "/auth/pharmacist", "", expired)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "License must not be expired", decode[validationResponse](t, rec).Fields["expiration_date"])

	rec = do(t, router, http.MethodPost, "/auth/pharmacist", "", pharmacist(s.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	done := decode[sessionResponse](t, rec)
	assert.Equal(t, onboarding.StepAuthenticated, done.Step)

	rec = do(t, router, http.MethodGet, "/me", done.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[sessionResponse](t, rec)
	assert.Equal(t, "City Pharmacy", me.Registration.ShopName)
	assert.Equal(t, "R. Iyer", me.Pharmacist.PharmacistName)
}

func TestBackForgetsPhone(t *testing.T) {
	router := newRouter(t)
	rec := do(t, router, http.MethodPost, "/auth/login", "", map[string]string{"phone_number": "9876543210"})
	id := decode[sessionResponse](t, rec).ID

	rec = do(t, router, http.MethodPost, "/auth/back", "", map[string]string{"session_id": id})
	require.Equal(t, http.StatusOK, rec.Code)
	s := decode[sessionResponse](t, rec)
	assert.Equal(t, onboarding.StepLogin, s.Step)
	assert.Empty(t, s.Phone)

	rec = do(t, router, http.MethodPost, "/auth/back", "", map[string]string{"session_id": "unknown"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	router := newRouter(t)

	rec := do(t, router, http.MethodGet, "/medicines", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodGet, "/medicines", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other := New(nil, onboarding.New(onboarding.Options{}), Options{Secret: "other"})
	forged, err := other.generateToken(onboarding.Session{ID: "x", Phone: "9876543210"})
	require.NoError(t, err)
	rec = do(t, router, http.MethodGet, "/medicines", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMedicineEndpoints(t *testing.T) {
	router := newRouter(t)
	token := onboard(t, router)

	rec := do(t, router, http.MethodGet, "/medicines", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]medicineResponse](t, rec)
	require.Len(t, list, 5)
	assert.Equal(t, reports.StatusLowStock, list[2].Status)
	assert.True(t, list[2].LowStock)

	rec = do(t, router, http.MethodGet, "/medicines?q=CIPLA", token, nil)
	assert.Len(t, decode[[]medicineResponse](t, rec), 1)

	rec = do(t, router, http.MethodGet, "/medicines/categories", token, nil)
	assert.Equal(t, []string{"Pain Relief", "Antibiotics", "Antihistamine", "Vitamins", "Diabetes"}, decode[[]string](t, rec))

	rec = do(t, router, http.MethodPost, "/medicines", token, map[string]any{"name": "Ibuprofen", "stock": -1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodPost, "/medicines", token, map[string]any{"name": "Ibuprofen", "unknown": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/medicines", token, map[string]any{
		"name": "Ibuprofen 400mg", "category": "Pain Relief", "manufacturer": "Abbott", "price": "32.75",
		"stock": 0, "min_stock": 10, "expiry_date": "2026-02-01", "batch_number": "IBU010",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[medicineResponse](t, rec)
	assert.Equal(t, reports.StatusOutOfStock, created.Status)

	rec = do(t, router, http.MethodPut, "/medicines/"+created.ID, token, map[string]any{"stock": 40})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[medicineResponse](t, rec)
	assert.EqualValues(t, 40, updated.Stock)
	assert.Equal(t, "Ibuprofen 400mg", updated.Name)
	assert.Equal(t, reports.StatusInStock, updated.Status)

	rec = do(t, router, http.MethodDelete, "/medicines/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodGet, "/medicines/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomerEndpoints(t *testing.T) {
	router := newRouter(t)
	token := onboard(t, router)

	rec := do(t, router, http.MethodPost, "/customers", token, map[string]string{"name": "Amit Singh"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodPost, "/customers", token, map[string]string{"name": "Amit Singh", "phone": "+91 9876543212"})
	require.Equal(t, http.StatusCreated, rec.Code)
	c := decode[domain.Customer](t, rec)
	assert.Equal(t, "2025-06-10", c.LastVisit)

	rec = do(t, router, http.MethodGet, "/customers/"+c.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/customers?q=9876543212", token, nil)
	assert.Len(t, decode[[]domain.Customer](t, rec), 1)

	rec = do(t, router, http.MethodGet, "/customers/summary", token, nil)
	assert.Equal(t, 1, decode[reports.CustomerSummary](t, rec).Customers)
}

func TestSaleEndpoints(t *testing.T) {
	router := newRouter(t)
	token := onboard(t, router)

	rec := do(t, router, http.MethodPost, "/customers", token, map[string]string{"name": "Rajesh Kumar", "phone": "+91 9876543210"})
	require.Equal(t, http.StatusCreated, rec.Code)
	customer := decode[domain.Customer](t, rec)

	rec = do(t, router, http.MethodPost, "/sales", token, map[string]any{
		"customer_id":    customer.ID,
		"items":          []map[string]any{{"medicine_id": "1", "quantity": 2}, {"medicine_id": "3", "quantity": 1}},
		"discount":       "5.00",
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sale := decode[domain.Sale](t, rec)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("96.00")))
	assert.True(t, sale.FinalTotal.Equal(decimal.RequireFromString("91.00")))
	assert.Equal(t, "Rajesh Kumar", sale.CustomerName)

	rec = do(t, router, http.MethodGet, "/medicines/3", token, nil)
	assert.EqualValues(t, 11, decode[medicineResponse](t, rec).Stock)

	rec = do(t, router, http.MethodPost, "/sales", token, map[string]any{
		"items": []map[string]any{{"medicine_id": "3", "quantity": 12}}, "payment_method": "upi",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/sales", token, map[string]any{
		"items": []map[string]any{{"medicine_id": "1", "quantity": 1}}, "payment_method": "cheque",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodPost, "/sales", token, map[string]any{
		"customer_id": "missing", "items": []map[string]any{{"medicine_id": "1", "quantity": 1}}, "payment_method": "card",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/sales", token, nil)
	assert.Len(t, decode[[]domain.Sale](t, rec), 1)

	rec = do(t, router, http.MethodGet, "/sales/"+sale.ID+"/receipt", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "City Pharmacy\n"))
	assert.Contains(t, body, "Paid by: CASH")

	rec = do(t, router, http.MethodGet, "/sales/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportEndpoints(t *testing.T) {
	router := newRouter(t)
	token := onboard(t, router)

	rec := do(t, router, http.MethodPost, "/sales", token, map[string]any{
		"items": []map[string]any{{"medicine_id": "4", "quantity": 3}, {"medicine_id": "1", "quantity": 1}}, "payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/reports/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[reports.Dashboard](t, rec)
	assert.Equal(t, 5, dash.Stats.TotalMedicines)
	assert.Equal(t, 2, dash.Stats.LowStockCount)
	assert.Equal(t, 1, dash.Stats.TodaySales)
	assert.True(t, dash.Stats.TodayRevenue.Equal(decimal.RequireFromString("385.50")))

	rec = do(t, router, http.MethodGet, "/reports/low-stock", token, nil)
	assert.Len(t, decode[[]domain.Medicine](t, rec), 2)

	rec = do(t, router, http.MethodGet, "/reports/top-sellers?limit=1", token, nil)
	top := decode[[]reports.TopSeller](t, rec)
	require.Len(t, top, 1)
	assert.Equal(t, "4", top[0].Medicine.ID)

	rec = do(t, router, http.MethodGet, "/reports/daily?days=3", token, nil)
	daily := decode[[]reports.DayTotal](t, rec)
	require.Len(t, daily, 3)
	assert.Equal(t, "2025-06-10", daily[2].Date)
	assert.Equal(t, 1, daily[2].Sales)

	rec = do(t, router, http.MethodGet, "/reports/expiring?days=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/reports/expiring?days=3650", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Medicine](t, rec), 5)

	rec = do(t, router, http.MethodGet, "/reports/revenue?date=2025-06-10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rev := decode[pharmacy.RevenueTotal](t, rec)
	assert.Equal(t, 1, rev.Sales)
	assert.True(t, rev.Revenue.Equal(decimal.RequireFromString("385.50")))

	rec = do(t, router, http.MethodGet, "/reports/revenue?date=June", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodGet, "/reports/summary?days=7&top=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[reports.Summary](t, rec).TotalSales)
}

func TestReportRangesAreBounded(t *testing.T) {
	router := newRouter(t)
	token := onboard(t, router)

	for _, path := range []string{
		"/reports/daily?days=100000000",
		"/reports/daily?days=367",
		"/reports/summary?days=367",
		"/reports/expiring?days=200000",
		"/reports/top-sellers?limit=5000",
		"/reports/daily?days=-1",
	} {
		rec := do(t, router, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}

	rec := do(t, router, http.MethodGet, "/reports/daily?days=366", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]reports.DayTotal](t, rec), 366)
}

func TestClock(t *testing.T) {
	assert.Equal(t, "0:30", clock(30*time.Second))
	assert.Equal(t, "1:05", clock(65*time.Second))
}
