package store

// GET  /products                 - full product list
// GET  /customers                - full customer list
// POST /products/check-duplicate - product uniqueness check
// POST /sale                     - commit a sale against stock
// GET  /sales-list[/{id}]        - committed sales
// DELETE /sales/{id}             - reverse a sale and restock
// GET  /total-*, /sales-report, /stock-alert - dashboard figures

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Store interface {
	ListProducts(ctx context.Context) ([]ProductRow, error)
	ListCustomers(ctx context.Context) ([]CustomerRow, error)
	ProductExists(ctx context.Context, category, subCategory, subsubCategory, brand string) (bool, error)

	CreateSale(ctx context.Context, sale SaleRow, items []SaleItemRow) (SaleRow, error)
	GetSale(ctx context.Context, id string) (SaleRow, []SaleItemRow, error)
	ListSales(ctx context.Context, f SaleFilter) ([]SaleRow, error)
	DeleteSale(ctx context.Context, id string) error

	TotalInStock(ctx context.Context) (int64, error)
	TotalStockValue(ctx context.Context) (decimal.Decimal, error)
	CountCustomers(ctx context.Context) (int64, error)
	CountSales(ctx context.Context) (int64, error)
	SalesBetween(ctx context.Context, from, to time.Time) (total, profit decimal.Decimal, err error)
	StockAlerts(ctx context.Context) ([]ProductRow, error)

	Close() error
}
