package migrations

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required by the pharmacy store.
func Run(ctx context.Context, db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS medicines (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            category TEXT NOT NULL DEFAULT '',
            manufacturer TEXT NOT NULL DEFAULT '',
            price TEXT NOT NULL,
            stock INTEGER NOT NULL CHECK (stock >= 0),
            min_stock INTEGER NOT NULL DEFAULT 0,
            expiry_date TEXT NOT NULL,
            batch_number TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            dosage TEXT NOT NULL DEFAULT '',
            prescription INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS customers (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            phone TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            total_purchases TEXT NOT NULL DEFAULT '0',
            last_visit TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS sales (
            id TEXT PRIMARY KEY,
            customer_id TEXT,
            customer_name TEXT NOT NULL DEFAULT '',
            total TEXT NOT NULL,
            discount TEXT NOT NULL DEFAULT '0',
            final_total TEXT NOT NULL,
            payment_method TEXT NOT NULL,
            sale_date TEXT NOT NULL,
            sale_time TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY(customer_id) REFERENCES customers(id)
        );`,
		`CREATE TABLE IF NOT EXISTS sale_items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            sale_id TEXT NOT NULL,
            medicine_id TEXT NOT NULL,
            medicine_name TEXT NOT NULL,
            quantity INTEGER NOT NULL,
            price TEXT NOT NULL,
            total TEXT NOT NULL,
            FOREIGN KEY(sale_id) REFERENCES sales(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date);`,
		`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
