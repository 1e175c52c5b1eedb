package service

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mamushop-admin/cache"
	models "mamushop-admin/model"
	"mamushop-admin/pricing"
	"mamushop-admin/store"
)

var (
	// ErrInvalidSale is returned when a sale payload fails validation.
	ErrInvalidSale = errors.New("invalid sale")
	// ErrSaleNotFound is returned for an unknown sale id.
	ErrSaleNotFound = errors.New("sale not found")
	ErrInvalidRange = errors.New("invalid date range")
)

type Service struct {
	store store.Store
	cache cache.ProductCache
	now   func() time.Time
	newID func() string
}

// NewService wires a service. pc may be nil, in which case nothing is cached.
func NewService(s store.Store, pc cache.ProductCache) *Service {
	if pc == nil {
		pc = cache.Noop{}
	}
	return &Service{
		store: s,
		cache: pc,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	if ps, ok, err := s.cache.GetProducts(ctx); err != nil {
		log.Printf("[service] WARN: product cache read failed: %v", err)
	} else if ok {
		return ps, nil
	}

	// The generation is read before the store so a sale committed in
	// between makes the write below a no-op.
	gen, genErr := s.cache.Generation(ctx)
	rows, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := productsFromRows(rows)
	if genErr != nil {
		log.Printf("[service] WARN: product cache generation read failed: %v", genErr)
		return out, nil
	}
	if err := s.cache.SetProducts(ctx, gen, out); err != nil && !errors.Is(err, cache.ErrStale) {
		log.Printf("[service] WARN: product cache write failed: %v", err)
	}
	return out, nil
}

func productsFromRows(rows []store.ProductRow) []models.Product {
	out := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		p := models.Product{
			ID:           r.ID,
			Category:     r.Category,
			SubCategory:  r.SubCategory,
			Brand:        r.Brand,
			InStock:      r.InStock,
			StockAlert:   r.StockAlert,
			ProductCost:  r.ProductCost,
			ProductPrice: r.ProductPrice,
		}
		if r.SubsubCategory.Valid {
			p.SubsubCategory = r.SubsubCategory.String
		}
		out = append(out, p)
	}
	return out
}

func (s *Service) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Customer, 0, len(rows))
	for _, r := range rows {
		c := models.Customer{ID: r.ID, Name: r.Name, Mobile: r.Mobile}
		if r.Address.Valid {
			c.Address = r.Address.String
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Service) CheckDuplicateProduct(ctx context.Context, key models.ProductKey) (bool, error) {
	key.Category = strings.TrimSpace(key.Category)
	key.SubCategory = strings.TrimSpace(key.SubCategory)
	key.SubsubCategory = strings.TrimSpace(key.SubsubCategory)
	key.Brand = strings.TrimSpace(key.Brand)
	if key.Category == "" || key.SubCategory == "" || key.Brand == "" {
		return false, errors.New("category, subCategory and brand are required")
	}
	return s.store.ProductExists(ctx, key.Category, key.SubCategory, key.SubsubCategory, key.Brand)
}

// SubmitSale validates the request, recomputes totals and hands the sale to
// the store, which re-checks stock under lock and books profit against the
// stored product costs. Client-side totals are never trusted.
func (s *Service) SubmitSale(ctx context.Context, req models.SaleRequest) (models.SaleReceipt, error) {
	if err := validateSale(req); err != nil {
		return models.SaleReceipt{}, err
	}

	totals := pricing.Compute(req.Products)
	row := store.SaleRow{
		ID:              s.newID(),
		CustomerID:      req.Customer.ID,
		CustomerName:    req.Customer.Name,
		CustomerMobile:  req.Customer.Mobile,
		CustomerAddress: req.Customer.Address,
		TotalAmount:     totals.Price,
		TotalProfit:     totals.Profit,
		SaleDate:        s.now().UTC(),
	}
	items := make([]store.SaleItemRow, 0, len(req.Products))
	for _, it := range req.Products {
		items = append(items, store.SaleItemRow{
			ProductID:      it.ID,
			Category:       it.Category,
			SubCategory:    it.SubCategory,
			SubsubCategory: it.SubsubCategory,
			Brand:          it.Brand,
			InStock:        it.InStock,
			StockAlert:     it.StockAlert,
			ProductCost:    it.ProductCost,
			ProductPrice:   it.ProductPrice,
			SellingPrice:   it.SellingPrice,
			SellingAmount:  it.SellingAmount,
		})
	}

	saved, err := s.store.CreateSale(ctx, row, items)
	if err != nil {
		return models.SaleReceipt{}, err
	}
	s.invalidateProducts(ctx)

	log.Printf("[service] sale %s committed as %s, total %s", saved.ID, saved.InvoiceNumber, pricing.Format(saved.TotalAmount))
	return saleRecord(saved, nil).Receipt(), nil
}

func validateSale(req models.SaleRequest) error {
	if strings.TrimSpace(req.Customer.ID) == "" {
		return errors.Wrap(ErrInvalidSale, "customer is required")
	}
	if len(req.Products) == 0 {
		return errors.Wrap(ErrInvalidSale, "at least one product is required")
	}
	seen := make(map[string]bool, len(req.Products))
	for i, it := range req.Products {
		if it.ID == "" {
			return errors.Wrapf(ErrInvalidSale, "product %d has no id", i)
		}
		if seen[it.ID] {
			return errors.Wrapf(ErrInvalidSale, "product %s listed twice", it.ID)
		}
		seen[it.ID] = true
		if it.SellingAmount < 1 {
			return errors.Wrapf(ErrInvalidSale, "product %s: sellingAmount must be >= 1", it.ID)
		}
		if it.SellingPrice.IsNegative() || it.ProductCost.IsNegative() {
			return errors.Wrapf(ErrInvalidSale, "product %s: prices must be >= 0", it.ID)
		}
	}
	return nil
}

func (s *Service) invalidateProducts(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("[service] WARN: product cache invalidate failed: %v", err)
	}
}

func (s *Service) ListSales(ctx context.Context, q SalesQuery) ([]models.SaleRecord, error) {
	rows, err := s.store.ListSales(ctx, store.SaleFilter{CustomerName: q.Customer, Date: q.Date})
	if err != nil {
		return nil, err
	}
	out := make([]models.SaleRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, saleRecord(r, nil))
	}
	return out, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (models.SaleRecord, error) {
	row, items, err := s.store.GetSale(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SaleRecord{}, errors.Wrapf(ErrSaleNotFound, "sale %s", id)
	}
	if err != nil {
		return models.SaleRecord{}, err
	}
	return saleRecord(row, items), nil
}

// DeleteSale reverses a sale. Stock comes back from the items stored with it.
func (s *Service) DeleteSale(ctx context.Context, id string) error {
	err := s.store.DeleteSale(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrapf(ErrSaleNotFound, "sale %s", id)
	}
	if err != nil {
		return err
	}
	s.invalidateProducts(ctx)
	log.Printf("[service] sale %s deleted and restocked", id)
	return nil
}

func saleRecord(r store.SaleRow, items []store.SaleItemRow) models.SaleRecord {
	rec := models.SaleRecord{
		ID:            r.ID,
		InvoiceNumber: r.InvoiceNumber,
		Customer: models.Customer{
			ID:      r.CustomerID,
			Name:    r.CustomerName,
			Mobile:  r.CustomerMobile,
			Address: r.CustomerAddress,
		},
		Products:    make([]models.LineItem, 0, len(items)),
		TotalAmount: r.TotalAmount,
		TotalProfit: r.TotalProfit,
		Date:        r.SaleDate,
	}
	for _, it := range items {
		rec.Products = append(rec.Products, models.LineItem{
			Product: models.Product{
				ID:             it.ProductID,
				Category:       it.Category,
				SubCategory:    it.SubCategory,
				SubsubCategory: it.SubsubCategory,
				Brand:          it.Brand,
				InStock:        it.InStock,
				StockAlert:     it.StockAlert,
				ProductCost:    it.ProductCost,
				ProductPrice:   it.ProductPrice,
			},
			SellingAmount: it.SellingAmount,
			SellingPrice:  it.SellingPrice,
		})
	}
	return rec
}

func (s *Service) TotalInStock(ctx context.Context) (int64, error) { return s.store.TotalInStock(ctx) }

func (s *Service) TotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	return s.store.TotalStockValue(ctx)
}

func (s *Service) TotalCustomers(ctx context.Context) (int64, error) { return s.store.CountCustomers(ctx) }

func (s *Service) TotalInvoices(ctx context.Context) (int64, error) { return s.store.CountSales(ctx) }

// SalesReport sums sales over whole days, start and end included.
func (s *Service) SalesReport(ctx context.Context, start, end time.Time) (models.SalesReport, error) {
	if start.IsZero() || end.IsZero() {
		return models.SalesReport{}, errors.Wrap(ErrInvalidRange, "startDate and endDate are required")
	}
	if models.Day(end).Before(models.Day(start)) {
		return models.SalesReport{}, errors.Wrapf(ErrInvalidRange, "endDate %s is before startDate %s", models.FormatDay(end), models.FormatDay(start))
	}
	from, to := models.DayRange(start, end)
	total, profit, err := s.store.SalesBetween(ctx, from, to)
	if err != nil {
		return models.SalesReport{}, err
	}
	return models.SalesReport{
		StartDate:   models.FormatDay(start),
		EndDate:     models.FormatDay(end),
		TotalSales:  total,
		TotalProfit: profit,
	}, nil
}

func (s *Service) StockAlerts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.store.StockAlerts(ctx)
	if err != nil {
		return nil, err
	}
	return productsFromRows(rows), nil
}
