package pharmacy

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/reports"
)

// MedicinePatch carries the fields of an edit; nil fields stay unchanged.
type MedicinePatch struct {
	Name         *string          `json:"name"`
	Category     *string          `json:"category"`
	Manufacturer *string          `json:"manufacturer"`
	Price        *decimal.Decimal `json:"price"`
	Stock        *int64           `json:"stock"`
	MinStock     *int64           `json:"min_stock"`
	ExpiryDate   *string          `json:"expiry_date"`
	BatchNumber  *string          `json:"batch_number"`
	Description  *string          `json:"description"`
	Dosage       *string          `json:"dosage"`
	Prescription *bool            `json:"prescription"`
}

func (p MedicinePatch) apply(m domain.Medicine) domain.Medicine {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Category != nil {
		m.Category = *p.Category
	}
	if p.Manufacturer != nil {
		m.Manufacturer = *p.Manufacturer
	}
	if p.Price != nil {
		m.Price = *p.Price
	}
	if p.Stock != nil {
		m.Stock = *p.Stock
	}
	if p.MinStock != nil {
		m.MinStock = *p.MinStock
	}
	if p.ExpiryDate != nil {
		m.ExpiryDate = *p.ExpiryDate
	}
	if p.BatchNumber != nil {
		m.BatchNumber = *p.BatchNumber
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Dosage != nil {
		m.Dosage = *p.Dosage
	}
	if p.Prescription != nil {
		m.Prescription = *p.Prescription
	}
	return m
}

func normalizeMedicine(m domain.Medicine) domain.Medicine {
	m.Name = strings.TrimSpace(m.Name)
	m.Category = strings.TrimSpace(m.Category)
	m.Manufacturer = strings.TrimSpace(m.Manufacturer)
	m.ExpiryDate = strings.TrimSpace(m.ExpiryDate)
	m.BatchNumber = strings.TrimSpace(m.BatchNumber)
	m.Description = strings.TrimSpace(m.Description)
	m.Dosage = strings.TrimSpace(m.Dosage)
	return m
}

// ValidateMedicine checks the fields the inventory form marks as required.
func ValidateMedicine(m domain.Medicine) error {
	v := &domain.ValidationError{}
	if m.Name == "" {
		v.Add("name", "Medicine name is required")
	}
	if m.Category == "" {
		v.Add("category", "Category is required")
	}
	if m.Manufacturer == "" {
		v.Add("manufacturer", "Manufacturer is required")
	}
	if m.Price.IsNegative() {
		v.Add("price", "Price cannot be negative")
	}
	if m.Stock < 0 {
		v.Add("stock", "Stock cannot be negative")
	}
	if m.MinStock < 0 {
		v.Add("min_stock", "Minimum stock cannot be negative")
	}
	if m.ExpiryDate == "" {
		v.Add("expiry_date", "Expiry date is required")
	} else if _, err := time.Parse(domain.DateLayout, m.ExpiryDate); err != nil {
		v.Add("expiry_date", "Expiry date must be in YYYY-MM-DD format")
	}
	if m.BatchNumber == "" {
		v.Add("batch_number", "Batch number is required")
	}
	return v.Err()
}

// ListMedicines returns the catalog filtered by a search term and category.
func (s *Service) ListMedicines(ctx context.Context, term, category string) ([]domain.Medicine, error) {
	snap, err := s.load(ctx, true, false, false)
	if err != nil {
		return nil, err
	}
	return reports.FilterMedicines(snap.medicines, term, category), nil
}

func (s *Service) GetMedicine(ctx context.Context, id string) (domain.Medicine, error) {
	return s.repo.GetMedicine(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	snap, err := s.load(ctx, true, false, false)
	if err != nil {
		return nil, err
	}
	return reports.Categories(snap.medicines), nil
}

// AddMedicine validates and stores a new medicine. Any id on m is replaced.
func (s *Service) AddMedicine(ctx context.Context, m domain.Medicine) (domain.Medicine, error) {
	m = normalizeMedicine(m)
	m.ID = ""
	if err := ValidateMedicine(m); err != nil {
		return domain.Medicine{}, err
	}
	created, err := s.repo.CreateMedicine(ctx, m)
	if err != nil {
		return domain.Medicine{}, err
	}
	s.logger.Info("medicine added", zap.String("id", created.ID), zap.String("name", created.Name), zap.Int64("stock", created.Stock))
	return created, nil
}

// UpdateMedicine merges patch into the stored medicine.
func (s *Service) UpdateMedicine(ctx context.Context, id string, patch MedicinePatch) (domain.Medicine, error) {
	current, err := s.repo.GetMedicine(ctx, id)
	if err != nil {
		return domain.Medicine{}, err
	}
	next := normalizeMedicine(patch.apply(current))
	if err := ValidateMedicine(next); err != nil {
		return domain.Medicine{}, err
	}
	updated, err := s.repo.UpdateMedicine(ctx, next)
	if err != nil {
		return domain.Medicine{}, err
	}
	s.logger.Info("medicine updated", zap.String("id", id), zap.Int64("stock", updated.Stock))
	return updated, nil
}

func (s *Service) DeleteMedicine(ctx context.Context, id string) error {
	if err := s.repo.DeleteMedicine(ctx, id); err != nil {
		return err
	}
	s.logger.Info("medicine deleted", zap.String("id", id))
	return nil
}
