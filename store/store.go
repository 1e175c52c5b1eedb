package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ProductRow, CustomerRow, SaleRow etc are simple structs representing DB rows
type ProductRow struct {
	ID             string
	Category       string
	SubCategory    string
	SubsubCategory sql.NullString
	Brand          string
	InStock        int
	StockAlert     int
	ProductCost    decimal.Decimal
	ProductPrice   decimal.Decimal
}

type CustomerRow struct {
	ID      string
	Name    string
	Mobile  string
	Address sql.NullString
}

// SaleRow carries the customer as it was when the sale was made.
type SaleRow struct {
	ID              string
	InvoiceNumber   string
	CustomerID      string
	CustomerName    string
	CustomerMobile  string
	CustomerAddress string
	TotalAmount     decimal.Decimal
	TotalProfit     decimal.Decimal
	SaleDate        time.Time
}

// SaleItemRow is the point-in-time snapshot of one sold line.
type SaleItemRow struct {
	ProductID      string
	Category       string
	SubCategory    string
	SubsubCategory string
	Brand          string
	InStock        int
	StockAlert     int
	ProductCost    decimal.Decimal
	ProductPrice   decimal.Decimal
	SellingPrice   decimal.Decimal
	SellingAmount  int
}

// SaleFilter narrows ListSales. Zero values match everything.
type SaleFilter struct {
	CustomerName string
	Date         time.Time
}

// PostgresStore is a Store backed by Postgres
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

func (s *PostgresStore) Close() error { return s.DB.Close() }

func (s *PostgresStore) ListProducts(ctx context.Context) ([]ProductRow, error) {
	return s.queryProducts(ctx, `SELECT id, category, sub_category, subsub_category, brand, in_stock, stock_alert, product_cost, product_price FROM products ORDER BY category, brand, id`)
}

// StockAlerts lists products below their alert threshold, largest shortfall first.
func (s *PostgresStore) StockAlerts(ctx context.Context) ([]ProductRow, error) {
	return s.queryProducts(ctx, `SELECT id, category, sub_category, subsub_category, brand, in_stock, stock_alert, product_cost, product_price FROM products WHERE in_stock < stock_alert ORDER BY (stock_alert - in_stock) DESC, category ASC, id ASC`)
}

func (s *PostgresStore) queryProducts(ctx context.Context, query string, args ...any) ([]ProductRow, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ProductRow{}
	for rows.Next() {
		var p ProductRow
		if err := rows.Scan(&p.ID, &p.Category, &p.SubCategory, &p.SubsubCategory, &p.Brand, &p.InStock, &p.StockAlert, &p.ProductCost, &p.ProductPrice); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListCustomers(ctx context.Context) ([]CustomerRow, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, mobile, address FROM customers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []CustomerRow{}
	for rows.Next() {
		var c CustomerRow
		if err := rows.Scan(&c.ID, &c.Name, &c.Mobile, &c.Address); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ProductExists reports whether a product with the same category path and
// brand is already in the catalog. Comparison is case-insensitive.
func (s *PostgresStore) ProductExists(ctx context.Context, category, subCategory, subsubCategory, brand string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM products
			WHERE LOWER(category) = LOWER($1)
			  AND LOWER(sub_category) = LOWER($2)
			  AND LOWER(COALESCE(subsub_category, '')) = LOWER($3)
			  AND LOWER(brand) = LOWER($4)
		)`, category, subCategory, subsubCategory, brand).Scan(&exists)
	return exists, err
}

// CreateSale re-validates and takes stock for every item, allocates the next
// invoice number and stores the sale with its line item snapshot, all in one
// transaction. Product rows are locked in id order to avoid deadlocks.
func (s *PostgresStore) CreateSale(ctx context.Context, sale SaleRow, items []SaleItemRow) (SaleRow, error) {
	if len(items) == 0 {
		return SaleRow{}, fmt.Errorf("sale has no items")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return SaleRow{}, err
	}
	defer tx.Rollback() // no-op after Commit

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return items[order[a]].ProductID < items[order[b]].ProductID })
	for _, i := range order {
		cost, err := takeStock(ctx, tx, items[i].ProductID, items[i].SellingAmount)
		if err != nil {
			return SaleRow{}, err
		}
		items[i].ProductCost = cost
	}
	// Profit is booked against the stored cost, not the one the client sent.
	sale.TotalProfit = decimal.Zero
	for _, it := range items {
		sale.TotalProfit = sale.TotalProfit.Add(it.SellingPrice.Sub(it.ProductCost).Mul(decimal.NewFromInt(int64(it.SellingAmount))))
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT nextval('invoice_seq')`).Scan(&seq); err != nil {
		return SaleRow{}, err
	}
	sale.InvoiceNumber = InvoiceNumber(seq, sale.SaleDate)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sales (id, invoice_number, customer_id, customer_name, customer_mobile, customer_address, total_amount, total_profit, sale_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		sale.ID, sale.InvoiceNumber, sale.CustomerID, sale.CustomerName, sale.CustomerMobile, sale.CustomerAddress,
		sale.TotalAmount, sale.TotalProfit, sale.SaleDate,
	); err != nil {
		return SaleRow{}, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sale_items (sale_id, line_no, product_id, category, sub_category, subsub_category, brand, in_stock, stock_alert, product_cost, product_price, selling_price, selling_amount) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`)
	if err != nil {
		return SaleRow{}, err
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, sale.ID, i+1, it.ProductID, it.Category, it.SubCategory, it.SubsubCategory, it.Brand,
			it.InStock, it.StockAlert, it.ProductCost, it.ProductPrice, it.SellingPrice, it.SellingAmount); err != nil {
			return SaleRow{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return SaleRow{}, err
	}
	return sale, nil
}

// InvoiceNumber formats a sequence value as INV-<year>-<seq>.
func InvoiceNumber(seq int64, t time.Time) string {
	return fmt.Sprintf("INV-%d-%06d", t.Year(), seq)
}

const saleColumns = `id, invoice_number, customer_id, customer_name, customer_mobile, customer_address, total_amount, total_profit, sale_date`

func scanSale(sc interface{ Scan(...any) error }) (SaleRow, error) {
	var r SaleRow
	err := sc.Scan(&r.ID, &r.InvoiceNumber, &r.CustomerID, &r.CustomerName, &r.CustomerMobile, &r.CustomerAddress, &r.TotalAmount, &r.TotalProfit, &r.SaleDate)
	return r, err
}

// GetSale returns sql.ErrNoRows when the sale does not exist.
func (s *PostgresStore) GetSale(ctx context.Context, id string) (SaleRow, []SaleItemRow, error) {
	sale, err := scanSale(s.DB.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id))
	if err != nil {
		return SaleRow{}, nil, err
	}
	items, err := s.saleItems(ctx, s.DB, id)
	if err != nil {
		return SaleRow{}, nil, err
	}
	return sale, items, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) saleItems(ctx context.Context, q querier, saleID string) ([]SaleItemRow, error) {
	rows, err := q.QueryContext(ctx, `SELECT product_id, category, sub_category, subsub_category, brand, in_stock, stock_alert, product_cost, product_price, selling_price, selling_amount FROM sale_items WHERE sale_id = $1 ORDER BY line_no`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SaleItemRow{}
	for rows.Next() {
		var it SaleItemRow
		if err := rows.Scan(&it.ProductID, &it.Category, &it.SubCategory, &it.SubsubCategory, &it.Brand, &it.InStock, &it.StockAlert,
			&it.ProductCost, &it.ProductPrice, &it.SellingPrice, &it.SellingAmount); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListSales returns sales newest first.
func (s *PostgresStore) ListSales(ctx context.Context, f SaleFilter) ([]SaleRow, error) {
	var (
		where []string
		args  []any
	)
	if name := strings.TrimSpace(f.CustomerName); name != "" {
		args = append(args, "%"+name+"%")
		where = append(where, fmt.Sprintf("customer_name ILIKE $%d", len(args)))
	}
	if !f.Date.IsZero() {
		y, m, d := f.Date.Date()
		from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		args = append(args, from, from.AddDate(0, 0, 1))
		where = append(where, fmt.Sprintf("sale_date >= $%d AND sale_date < $%d", len(args)-1, len(args)))
	}
	query := `SELECT ` + saleColumns + ` FROM sales`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY sale_date DESC, invoice_number DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SaleRow{}
	for rows.Next() {
		r, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteSale removes a sale and restocks exactly what was stored with it.
// Returns sql.ErrNoRows if the sale does not exist.
func (s *PostgresStore) DeleteSale(ctx context.Context, id string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var found string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM sales WHERE id = $1 FOR UPDATE`, id).Scan(&found); err != nil {
		return err
	}

	items, err := s.saleItems(ctx, tx, id)
	if err != nil {
		return err
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].ProductID < items[b].ProductID })
	for _, it := range items {
		if err := restock(ctx, tx, it.ProductID, it.SellingAmount); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) TotalInStock(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(in_stock), 0) FROM products`).Scan(&n)
	return n, err
}

// TotalStockValue values the stock at cost.
func (s *PostgresStore) TotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	var v decimal.Decimal
	err := s.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(product_cost * in_stock), 0) FROM products`).Scan(&v)
	return v, err
}

func (s *PostgresStore) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n)
	return n, err
}

func (s *PostgresStore) CountSales(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&n)
	return n, err
}

// SalesBetween sums sales with from <= sale_date < to.
func (s *PostgresStore) SalesBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var total, profit decimal.Decimal
	err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_amount), 0), COALESCE(SUM(total_profit), 0) FROM sales WHERE sale_date >= $1 AND sale_date < $2`,
		from, to,
	).Scan(&total, &profit)
	return total, profit, err
}
