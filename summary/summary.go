// Package summary assembles the dashboard from independent reporting reads.
package summary

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	models "mamushop-admin/model"
)

// DefaultWindowDays is the sales report window used by Refresh.
const DefaultWindowDays = 7

// ErrUnavailable marks a figure that was not loaded.
var ErrUnavailable = errors.New("unavailable")

// Source is the set of reporting reads.
type Source interface {
	GetTotalInStock(ctx context.Context) (int64, error)
	GetTotalStockValue(ctx context.Context) (decimal.Decimal, error)
	GetTotalCustomers(ctx context.Context) (int64, error)
	GetTotalInvoices(ctx context.Context) (int64, error)
	GetSalesReport(ctx context.Context, start, end time.Time) (models.SalesReport, error)
	GetStockAlerts(ctx context.Context) ([]models.Product, error)
}

// Figure is one dashboard value or the reason it is missing.
type Figure[T any] struct {
	Value T
	Err   error
}

// Available reports whether the value loaded.
func (f Figure[T]) Available() bool { return f.Err == nil }

func figure[T any](v T, err error) Figure[T] {
	if err != nil {
		var zero T
		return Figure[T]{Value: zero, Err: &unavailableError{err: err}}
	}
	return Figure[T]{Value: v}
}

type unavailableError struct{ err error }

func (e *unavailableError) Error() string        { return "unavailable: " + e.err.Error() }
func (e *unavailableError) Unwrap() error        { return e.err }
func (e *unavailableError) Is(target error) bool { return target == ErrUnavailable }

// Shortage is a product below its stock alert threshold.
type Shortage struct {
	models.Product
	Shortfall int `json:"shortfall"`
}

// Dashboard is one consistent set of figures.
type Dashboard struct {
	TotalInStock    Figure[int64]
	TotalStockValue Figure[decimal.Decimal]
	TotalCustomers  Figure[int64]
	TotalInvoices   Figure[int64]
	Sales           Figure[models.SalesReport]
	Shortages       Figure[[]Shortage]
	LoadedAt        time.Time
}

// Aggregator loads dashboards from a Source.
type Aggregator struct {
	src        Source
	windowDays int
	now        func() time.Time

	mu     sync.Mutex
	seq    uint64
	stored uint64
	latest *Dashboard
}

// New returns an aggregator. windowDays <= 0 selects DefaultWindowDays.
func New(src Source, windowDays int) *Aggregator {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Aggregator{src: src, windowDays: windowDays, now: time.Now}
}

// Load issues every read concurrently and waits for all of them. A failed
// read only marks its own figure as unavailable.
func (a *Aggregator) Load(ctx context.Context, start, end time.Time) Dashboard {
	var d Dashboard
	var g errgroup.Group

	g.Go(func() error {
		n, err := a.src.GetTotalInStock(ctx)
		d.TotalInStock = figure(n, err)
		return nil
	})
	g.Go(func() error {
		v, err := a.src.GetTotalStockValue(ctx)
		d.TotalStockValue = figure(v, err)
		return nil
	})
	g.Go(func() error {
		n, err := a.src.GetTotalCustomers(ctx)
		d.TotalCustomers = figure(n, err)
		return nil
	})
	g.Go(func() error {
		n, err := a.src.GetTotalInvoices(ctx)
		d.TotalInvoices = figure(n, err)
		return nil
	})
	g.Go(func() error {
		r, err := a.src.GetSalesReport(ctx, start, end)
		d.Sales = figure(r, err)
		return nil
	})
	g.Go(func() error {
		products, err := a.src.GetStockAlerts(ctx)
		d.Shortages = figure(Shortages(products), err)
		return nil
	})
	_ = g.Wait()

	d.LoadedAt = a.now()
	return d
}

// Window returns the default report range ending today.
func (a *Aggregator) Window() (start, end time.Time) {
	end = models.Day(a.now())
	return end.AddDate(0, 0, -a.windowDays), end
}

// Refresh loads the default window and stores it as Latest unless a load
// started later has already been stored.
func (a *Aggregator) Refresh(ctx context.Context) Dashboard {
	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	start, end := a.Window()
	d := a.Load(ctx, start, end)

	a.mu.Lock()
	defer a.mu.Unlock()
	if seq > a.stored {
		a.stored = seq
		a.latest = &d
	}
	return d
}

// Latest returns the most recent stored dashboard.
func (a *Aggregator) Latest() (Dashboard, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.latest == nil {
		return Dashboard{}, false
	}
	return *a.latest, true
}

// Shortages keeps products whose stock is below their alert threshold and
// orders them by largest shortfall, then category, then identifier.
func Shortages(products []models.Product) []Shortage {
	out := make([]Shortage, 0, len(products))
	for _, p := range products {
		if s := p.Shortfall(); s > 0 {
			out = append(out, Shortage{Product: p, Shortfall: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Shortfall != out[j].Shortfall {
			return out[i].Shortfall > out[j].Shortfall
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}
