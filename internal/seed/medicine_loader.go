// Package seed fills an empty store with the medicine catalog and the demo
// customers and sales history.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/store"
)

var catalogColumns = []string{
	"name", "category", "manufacturer", "price", "stock", "min_stock",
	"expiry_date", "batch_number", "description", "dosage", "prescription",
}

// LoadMedicines ingests catalog rows into repo. The header must list the
// catalog columns in order, optionally preceded by an id column. Rows
// without a name are skipped; malformed rows are errors.
func LoadMedicines(ctx context.Context, repo store.Repository, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read medicine header: %w", err)
	}
	offset, err := checkHeader(header)
	if err != nil {
		return 0, err
	}
	reader.FieldsPerRecord = len(header)

	rows := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("read medicine row %d: %w", line, err)
		}
		m, err := parseMedicine(record, offset)
		if err != nil {
			return rows, fmt.Errorf("medicine row %d: %w", line, err)
		}
		if m.Name == "" {
			continue
		}
		if _, err := repo.CreateMedicine(ctx, m); err != nil {
			return rows, fmt.Errorf("insert medicine %s: %w", m.Name, err)
		}
		rows++
	}
	return rows, nil
}

func checkHeader(header []string) (int, error) {
	offset := 0
	if len(header) > 0 && strings.EqualFold(strings.TrimSpace(header[0]), "id") {
		offset = 1
	}
	got := header[offset:]
	if len(got) != len(catalogColumns) {
		return 0, fmt.Errorf("medicine header has %d columns, want %d", len(got), len(catalogColumns))
	}
	for i, col := range catalogColumns {
		if !strings.EqualFold(strings.TrimSpace(got[i]), col) {
			return 0, fmt.Errorf("medicine header column %d is %q, want %q", i+offset+1, got[i], col)
		}
	}
	return offset, nil
}

func parseMedicine(record []string, offset int) (domain.Medicine, error) {
	field := func(i int) string { return strings.TrimSpace(record[offset+i]) }

	var m domain.Medicine
	if offset == 1 {
		m.ID = strings.TrimSpace(record[0])
	}
	m.Name = field(0)
	m.Category = field(1)
	m.Manufacturer = field(2)
	m.ExpiryDate = field(6)
	m.BatchNumber = field(7)
	m.Description = field(8)
	m.Dosage = field(9)

	var err error
	if m.Price, err = decimal.NewFromString(field(3)); err != nil {
		return m, fmt.Errorf("price %q: %w", field(3), err)
	}
	if m.Stock, err = strconv.ParseInt(field(4), 10, 64); err != nil {
		return m, fmt.Errorf("stock %q: %w", field(4), err)
	}
	if m.MinStock, err = strconv.ParseInt(field(5), 10, 64); err != nil {
		return m, fmt.Errorf("min_stock %q: %w", field(5), err)
	}
	if p := field(10); p != "" {
		if m.Prescription, err = strconv.ParseBool(p); err != nil {
			return m, fmt.Errorf("prescription %q: %w", p, err)
		}
	}
	if m.Stock < 0 || m.MinStock < 0 || m.Price.IsNegative() {
		return m, fmt.Errorf("negative price or stock for %s", m.Name)
	}
	return m, nil
}

// LoadMedicineFile loads the catalog at path when repo has no medicines yet.
func LoadMedicineFile(ctx context.Context, repo store.Repository, path string, logger *zap.Logger) error {
	existing, err := repo.ListMedicines(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Debug("medicine catalog already present", zap.Int("medicines", len(existing)))
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to load medicine catalog %s: %w", path, err)
	}
	defer file.Close()

	rows, err := LoadMedicines(ctx, repo, file)
	if err != nil {
		return err
	}
	logger.Info("seeded medicine catalog", zap.String("path", path), zap.Int("rows", rows))
	return nil
}
