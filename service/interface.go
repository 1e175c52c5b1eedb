package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	models "mamushop-admin/model"
)

type ServiceInterface interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	CheckDuplicateProduct(ctx context.Context, key models.ProductKey) (bool, error)

	SubmitSale(ctx context.Context, req models.SaleRequest) (models.SaleReceipt, error)
	ListSales(ctx context.Context, q SalesQuery) ([]models.SaleRecord, error)
	GetSale(ctx context.Context, id string) (models.SaleRecord, error)
	DeleteSale(ctx context.Context, id string) error

	TotalInStock(ctx context.Context) (int64, error)
	TotalStockValue(ctx context.Context) (decimal.Decimal, error)
	TotalCustomers(ctx context.Context) (int64, error)
	TotalInvoices(ctx context.Context) (int64, error)
	SalesReport(ctx context.Context, start, end time.Time) (models.SalesReport, error)
	StockAlerts(ctx context.Context) ([]models.Product, error)
}

// SalesQuery filters the sales list. Zero fields match everything.
type SalesQuery struct {
	Customer string
	Date     time.Time
}
