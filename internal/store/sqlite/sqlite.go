// Package sqlite persists the pharmacy collections in SQLite through sqlx.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/sales"
	"pharmadesk/m/internal/store"
)

const medicineColumns = `id, name, category, manufacturer, price, stock, min_stock, expiry_date, batch_number, description, dosage, prescription`

const customerColumns = `id, name, phone, email, address, total_purchases, last_visit`

const saleColumns = `id, customer_id, customer_name, total, discount, final_total, payment_method, sale_date, sale_time`

type Store struct {
	db *sqlx.DB
}

var _ store.Repository = (*Store)(nil)

// New wraps an open, migrated database.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	if err := s.db.SelectContext(ctx, &medicines, `SELECT `+medicineColumns+` FROM medicines ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return medicines, nil
}

func (s *Store) GetMedicine(ctx context.Context, id string) (domain.Medicine, error) {
	var m domain.Medicine
	err := s.db.GetContext(ctx, &m, `SELECT `+medicineColumns+` FROM medicines WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Medicine{}, fmt.Errorf("medicine %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Medicine{}, fmt.Errorf("get medicine %q: %w", id, err)
	}
	return m, nil
}

func (s *Store) CreateMedicine(ctx context.Context, m domain.Medicine) (domain.Medicine, error) {
	if m.ID == "" {
		m.ID = store.NewID()
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO medicines (`+medicineColumns+`)
        VALUES (:id, :name, :category, :manufacturer, :price, :stock, :min_stock, :expiry_date, :batch_number, :description, :dosage, :prescription)`, m)
	if err != nil {
		return domain.Medicine{}, fmt.Errorf("insert medicine %q: %w", m.Name, err)
	}
	return m, nil
}

func (s *Store) UpdateMedicine(ctx context.Context, m domain.Medicine) (domain.Medicine, error) {
	res, err := s.db.NamedExecContext(ctx, `UPDATE medicines SET name = :name, category = :category, manufacturer = :manufacturer,
        price = :price, stock = :stock, min_stock = :min_stock, expiry_date = :expiry_date, batch_number = :batch_number,
        description = :description, dosage = :dosage, prescription = :prescription WHERE id = :id`, m)
	if err != nil {
		return domain.Medicine{}, fmt.Errorf("update medicine %q: %w", m.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Medicine{}, fmt.Errorf("medicine %q: %w", m.ID, domain.ErrNotFound)
	}
	return m, nil
}

func (s *Store) DeleteMedicine(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete medicine %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("medicine %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	if err := s.db.SelectContext(ctx, &customers, `SELECT `+customerColumns+` FROM customers ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	var c domain.Customer
	err := s.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Customer{}, fmt.Errorf("customer %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Customer{}, fmt.Errorf("get customer %q: %w", id, err)
	}
	return c, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	if c.ID == "" {
		c.ID = store.NewID()
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO customers (`+customerColumns+`)
        VALUES (:id, :name, :phone, :email, :address, :total_purchases, :last_visit)`, c)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("insert customer %q: %w", c.Name, err)
	}
	return c, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	list := []domain.Sale{}
	if err := s.db.SelectContext(ctx, &list, `SELECT `+saleColumns+` FROM sales ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, len(list))
	for i, sale := range list {
		ids[i] = sale.ID
	}
	query, args, err := sqlx.In(`SELECT sale_id, medicine_id, medicine_name, quantity, price, total
        FROM sale_items WHERE sale_id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("prepare sale items query: %w", err)
	}
	var rows []domain.SaleItem
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}
	itemsBySale := make(map[string][]domain.SaleItem)
	for _, row := range rows {
		itemsBySale[row.SaleID] = append(itemsBySale[row.SaleID], row)
	}
	for i := range list {
		list[i].Items = itemsBySale[list[i].ID]
		if list[i].Items == nil {
			list[i].Items = []domain.SaleItem{}
		}
	}
	return list, nil
}

func (s *Store) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	var sale domain.Sale
	err := s.db.GetContext(ctx, &sale, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sale{}, fmt.Errorf("sale %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Sale{}, fmt.Errorf("get sale %q: %w", id, err)
	}
	sale.Items = []domain.SaleItem{}
	if err := s.db.SelectContext(ctx, &sale.Items, `SELECT sale_id, medicine_id, medicine_name, quantity, price, total
        FROM sale_items WHERE sale_id = ? ORDER BY id`, id); err != nil {
		return domain.Sale{}, fmt.Errorf("load items for sale %q: %w", id, err)
	}
	return sale, nil
}

func (s *Store) RecordSale(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	for _, item := range sale.Items {
		if item.Quantity <= 0 {
			return domain.Sale{}, fmt.Errorf("quantity for medicine %q must be positive: %w", item.MedicineID, domain.ErrInvalidSale)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("start sale: %w", err)
	}
	defer tx.Rollback()

	if !sale.WalkIn() {
		var c domain.Customer
		err := tx.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, *sale.CustomerID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Sale{}, fmt.Errorf("customer %q: %w", *sale.CustomerID, domain.ErrNotFound)
		}
		if err != nil {
			return domain.Sale{}, fmt.Errorf("load customer %q: %w", *sale.CustomerID, err)
		}
		total := c.TotalPurchases.Add(sale.FinalTotal)
		if _, err := tx.ExecContext(ctx, `UPDATE customers SET total_purchases = ?, last_visit = ? WHERE id = ?`,
			total.String(), sale.Date, c.ID); err != nil {
			return domain.Sale{}, fmt.Errorf("update customer %q: %w", c.ID, err)
		}
	}

	for id, qty := range sales.Demand(sale) {
		res, err := tx.ExecContext(ctx, `UPDATE medicines SET stock = stock - ? WHERE id = ? AND stock >= ?`, qty, id, qty)
		if err != nil {
			return domain.Sale{}, fmt.Errorf("update stock for %q: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			continue
		}
		var current domain.Medicine
		err = tx.GetContext(ctx, &current, `SELECT `+medicineColumns+` FROM medicines WHERE id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Sale{}, fmt.Errorf("medicine %q: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return domain.Sale{}, fmt.Errorf("load medicine %q: %w", id, err)
		}
		return domain.Sale{}, &domain.StockError{MedicineID: id, Name: current.Name, Requested: qty, Available: current.Stock}
	}

	saved, err := insertSale(ctx, tx, sale)
	if err != nil {
		return domain.Sale{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Sale{}, fmt.Errorf("finalize sale: %w", err)
	}
	return saved, nil
}

func (s *Store) ImportSale(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("start import: %w", err)
	}
	defer tx.Rollback()

	saved, err := insertSale(ctx, tx, sale)
	if err != nil {
		return domain.Sale{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Sale{}, fmt.Errorf("finalize import: %w", err)
	}
	return saved, nil
}

func insertSale(ctx context.Context, tx *sqlx.Tx, sale domain.Sale) (domain.Sale, error) {
	if sale.ID == "" {
		sale.ID = store.NewID()
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO sales (`+saleColumns+`)
        VALUES (:id, :customer_id, :customer_name, :total, :discount, :final_total, :payment_method, :sale_date, :sale_time)`, sale)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("create sale: %w", err)
	}

	items := make([]domain.SaleItem, len(sale.Items))
	for i, item := range sale.Items {
		item.SaleID = sale.ID
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO sale_items (sale_id, medicine_id, medicine_name, quantity, price, total)
            VALUES (:sale_id, :medicine_id, :medicine_name, :quantity, :price, :total)`, item); err != nil {
			return domain.Sale{}, fmt.Errorf("save sale items: %w", err)
		}
		items[i] = item
	}
	sale.Items = items
	return sale, nil
}
