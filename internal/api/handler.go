package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"pharmadesk/m/internal/onboarding"
	"pharmadesk/m/internal/pharmacy"
)

type ctxKey string

const ctxSession ctxKey = "session"

// Options configures a Handler. Zero values get development defaults.
type Options struct {
	Secret      string
	TokenTTL    time.Duration
	CORSOrigins []string
	Logger      *zap.Logger
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	svc      *pharmacy.Service
	flow     *onboarding.Flow
	secret   string
	tokenTTL time.Duration
	origins  []string
	logger   *zap.Logger
}

// New constructs a Handler.
func New(svc *pharmacy.Service, flow *onboarding.Flow, opts Options) *Handler {
	if opts.Secret == "" {
		opts.Secret = "dev_secret"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = onboarding.DefaultSessionTTL
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{
		svc:      svc,
		flow:     flow,
		secret:   opts.Secret,
		tokenTTL: opts.TokenTTL,
		origins:  opts.CORSOrigins,
		logger:   opts.Logger,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/organizations", h.organizations)
		r.Post("/login", h.login)
		r.Post("/otp/verify", h.verifyOTP)
		r.Post("/otp/resend", h.resendOTP)
		r.Post("/back", h.back)
		r.Post("/registration", h.registration)
		r.Post("/pharmacist", h.pharmacist)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(h.authMiddleware)

		pr.Get("/me", h.me)

		pr.Route("/medicines", func(r chi.Router) {
			r.Get("/", h.listMedicines)
			r.Post("/", h.createMedicine)
			r.Get("/categories", h.categories)
			r.Get("/{id}", h.getMedicine)
			r.Put("/{id}", h.updateMedicine)
			r.Delete("/{id}", h.deleteMedicine)
		})

		pr.Route("/customers", func(r chi.Router) {
			r.Get("/", h.listCustomers)
			r.Post("/", h.createCustomer)
			r.Get("/summary", h.customerSummary)
			r.Get("/{id}", h.getCustomer)
		})

		pr.Route("/sales", func(r chi.Router) {
			r.Get("/", h.listSales)
			r.Post("/", h.createSale)
			r.Get("/{id}", h.getSale)
			r.Get("/{id}/receipt", h.saleReceipt)
		})

		pr.Route("/reports", func(r chi.Router) {
			r.Get("/dashboard", h.dashboard)
			r.Get("/summary", h.summary)
			r.Get("/low-stock", h.lowStock)
			r.Get("/expiring", h.expiring)
			r.Get("/top-sellers", h.topSellers)
			r.Get("/daily", h.dailySales)
			r.Get("/revenue", h.revenue)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one line per request once the response is written.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
