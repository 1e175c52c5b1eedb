package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
)

const productCols = `SELECT id, category, sub_category, subsub_category, brand, in_stock, stock_alert, product_cost, product_price FROM products`

func newMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &PostgresStore{DB: db}, mock
}

func TestListProducts_ScansRows(t *testing.T) {
	s, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"id", "category", "sub_category", "subsub_category", "brand", "in_stock", "stock_alert", "product_cost", "product_price"}).
		AddRow("p1", "Shirt", "Men", nil, "Zara", 10, 5, "100.00", "150.00").
		AddRow("p2", "Shirt", "Women", "Silk", "H&M", 0, 2, "80.50", "99.99")
	mock.ExpectQuery(regexp.QuoteMeta(productCols + ` ORDER BY category, brand, id`)).WillReturnRows(rows)

	got, err := s.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].SubsubCategory.Valid || !got[1].SubsubCategory.Valid || got[1].SubsubCategory.String != "Silk" {
		t.Fatalf("unexpected subsub categories: %+v", got)
	}
	if !got[1].ProductPrice.Equal(decimal.RequireFromString("99.99")) {
		t.Fatalf("unexpected price: %s", got[1].ProductPrice)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProductExists(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("Shirt", "Men", "", "Zara").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := s.ProductExists(context.Background(), "Shirt", "Men", "", "Zara")
	if err != nil || !ok {
		t.Fatalf("expected duplicate, got %v %v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT in_stock, product_cost FROM products WHERE id = $1 FOR UPDATE`)).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"in_stock", "product_cost"}).AddRow(1, "60"))
	mock.ExpectRollback()

	_, err := s.CreateSale(context.Background(), SaleRow{ID: "s1", SaleDate: time.Now()}, []SaleItemRow{{ProductID: "p1", SellingAmount: 3}})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateSale_UnknownProduct(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT in_stock, product_cost FROM products WHERE id = $1 FOR UPDATE`)).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := s.CreateSale(context.Background(), SaleRow{ID: "s1", SaleDate: time.Now()}, []SaleItemRow{{ProductID: "gone", SellingAmount: 1}})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateSale_Success(t *testing.T) {
	s, mock := newMock(t)

	date := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	sale := SaleRow{
		ID:           "s1",
		CustomerID:   "c1",
		CustomerName: "Rahim",
		TotalAmount:  decimal.RequireFromString("330"),
		TotalProfit:  decimal.RequireFromString("330"),
		SaleDate:     date,
	}
	// items arrive unsorted; locks are taken in id order. The client sent
	// zero costs; the stored ones win.
	items := []SaleItemRow{
		{ProductID: "p2", SellingAmount: 1, SellingPrice: decimal.RequireFromString("30")},
		{ProductID: "p1", SellingAmount: 2, SellingPrice: decimal.RequireFromString("150")},
	}

	mock.ExpectBegin()
	for _, it := range []struct {
		id   string
		qty  int
		cost string
	}{{"p1", 2, "100"}, {"p2", 1, "20"}} {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT in_stock, product_cost FROM products WHERE id = $1 FOR UPDATE`)).
			WithArgs(it.id).
			WillReturnRows(sqlmock.NewRows([]string{"in_stock", "product_cost"}).AddRow(5, it.cost))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET in_stock = in_stock - $1 WHERE id = $2`)).
			WithArgs(it.qty, it.id).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT nextval('invoice_seq')`)).
		WillReturnRows(sqlmock.NewRows([]string{"nextval"}).AddRow(int64(42)))
	mock.ExpectExec(`INSERT INTO sales`).
		WithArgs("s1", "INV-2025-000042", "c1", "Rahim", "", "", sqlmock.AnyArg(), "110", date).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectPrepare(`INSERT INTO sale_items`)
	mock.ExpectExec(`INSERT INTO sale_items`).
		WithArgs("s1", 1, "p2", "", "", "", "", 0, 0, "20", sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO sale_items`).
		WithArgs("s1", 2, "p1", "", "", "", "", 0, 0, "100", sqlmock.AnyArg(), sqlmock.AnyArg(), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := s.CreateSale(context.Background(), sale, items)
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	if got.InvoiceNumber != "INV-2025-000042" {
		t.Fatalf("unexpected invoice number %q", got.InvoiceNumber)
	}
	// (150-100)*2 + (30-20)*1
	if !got.TotalProfit.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("expected profit 110 from stored costs, got %s", got.TotalProfit)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateSale_NoItems(t *testing.T) {
	s, mock := newMock(t)
	if _, err := s.CreateSale(context.Background(), SaleRow{ID: "s1"}, nil); err == nil {
		t.Fatalf("expected error for empty sale")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected db calls: %v", err)
	}
}

func TestDeleteSale_NotFound(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM sales WHERE id = $1 FOR UPDATE`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	if err := s.DeleteSale(context.Background(), "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteSale_RestocksStoredItems(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM sales WHERE id = $1 FOR UPDATE`)).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s1"))
	items := sqlmock.NewRows([]string{"product_id", "category", "sub_category", "subsub_category", "brand", "in_stock", "stock_alert", "product_cost", "product_price", "selling_price", "selling_amount"}).
		AddRow("p1", "Shirt", "Men", "", "Zara", 10, 5, "100", "150", "150", 2).
		AddRow("p9", "Hat", "Kids", "", "Nike", 3, 1, "10", "20", "18", 1)
	mock.ExpectQuery(`SELECT product_id, category`).WithArgs("s1").WillReturnRows(items)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET in_stock = in_stock + $1 WHERE id = $2`)).
		WithArgs(2, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// p9 was deleted from the catalog since; restock is skipped
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET in_stock = in_stock + $1 WHERE id = $2`)).
		WithArgs(1, "p9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sale_items WHERE sale_id = $1`)).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sales WHERE id = $1`)).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.DeleteSale(context.Background(), "s1"); err != nil {
		t.Fatalf("DeleteSale failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListSales_Filters(t *testing.T) {
	s, mock := newMock(t)

	day := time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC)
	from := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sales WHERE customer_name ILIKE $1 AND sale_date >= $2 AND sale_date < $3 ORDER BY sale_date DESC`)).
		WithArgs("%rah%", from, from.AddDate(0, 0, 1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_number", "customer_id", "customer_name", "customer_mobile", "customer_address", "total_amount", "total_profit", "sale_date"}).
			AddRow("s1", "INV-2025-000001", "c1", "Rahim", "017", "", "330", "110", day))

	got, err := s.ListSales(context.Background(), SaleFilter{CustomerName: " rah ", Date: day})
	if err != nil {
		t.Fatalf("ListSales failed: %v", err)
	}
	if len(got) != 1 || got[0].InvoiceNumber != "INV-2025-000001" {
		t.Fatalf("unexpected sales: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListSales_NoFilter(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sales ORDER BY sale_date DESC, invoice_number DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := s.ListSales(context.Background(), SaleFilter{})
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %v %v", got, err)
	}
}

func TestTotals(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(in_stock), 0) FROM products`)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(37)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(product_cost * in_stock), 0) FROM products`)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("1234.50"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM customers`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM sales`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(9)))

	if n, err := s.TotalInStock(ctx); err != nil || n != 37 {
		t.Fatalf("TotalInStock = %d, %v", n, err)
	}
	if v, err := s.TotalStockValue(ctx); err != nil || !v.Equal(decimal.RequireFromString("1234.5")) {
		t.Fatalf("TotalStockValue = %s, %v", v, err)
	}
	if n, err := s.CountCustomers(ctx); err != nil || n != 4 {
		t.Fatalf("CountCustomers = %d, %v", n, err)
	}
	if n, err := s.CountSales(ctx); err != nil || n != 9 {
		t.Fatalf("CountSales = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSalesBetween(t *testing.T) {
	s, mock := newMock(t)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM sales WHERE sale_date >= $1 AND sale_date < $2`)).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"total", "profit"}).AddRow("500", "120"))

	total, profit, err := s.SalesBetween(context.Background(), from, to)
	if err != nil {
		t.Fatalf("SalesBetween failed: %v", err)
	}
	if !total.Equal(decimal.NewFromInt(500)) || !profit.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("unexpected sums %s %s", total, profit)
	}
}

func TestInvoiceNumber(t *testing.T) {
	got := InvoiceNumber(7, time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC))
	if got != "INV-2024-000007" {
		t.Fatalf("unexpected invoice number %q", got)
	}
}
