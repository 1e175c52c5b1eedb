package summary

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "mamushop-admin/model"
)

type fakeSource struct {
	// wait, when set, is called at the start of every read.
	wait func()

	inStockErr error
	valueErr   error
	alertsErr  error

	mu         sync.Mutex
	start, end time.Time
}

func (f *fakeSource) enter() {
	if f.wait != nil {
		f.wait()
	}
}

func (f *fakeSource) GetTotalInStock(context.Context) (int64, error) {
	f.enter()
	return 120, f.inStockErr
}

func (f *fakeSource) GetTotalStockValue(context.Context) (decimal.Decimal, error) {
	f.enter()
	return decimal.RequireFromString("15250.75"), f.valueErr
}

func (f *fakeSource) GetTotalCustomers(context.Context) (int64, error) {
	f.enter()
	return 31, nil
}

func (f *fakeSource) GetTotalInvoices(context.Context) (int64, error) {
	f.enter()
	return 210, nil
}

func (f *fakeSource) GetSalesReport(_ context.Context, start, end time.Time) (models.SalesReport, error) {
	f.enter()
	f.mu.Lock()
	f.start, f.end = start, end
	f.mu.Unlock()
	return models.SalesReport{
		StartDate:   models.FormatDay(start),
		EndDate:     models.FormatDay(end),
		TotalSales:  decimal.NewFromInt(900),
		TotalProfit: decimal.NewFromInt(250),
	}, nil
}

func (f *fakeSource) GetStockAlerts(context.Context) ([]models.Product, error) {
	f.enter()
	if f.alertsErr != nil {
		return nil, f.alertsErr
	}
	return []models.Product{
		{ID: "a", Category: "Shirt", InStock: 2, StockAlert: 5},
		{ID: "b", Category: "Belt", InStock: 0, StockAlert: 3},
		{ID: "c", Category: "Trouser", InStock: 0, StockAlert: 10},
		{ID: "d", Category: "Cap", InStock: 4, StockAlert: 4},
	}, nil
}

func TestLoadAllFigures(t *testing.T) {
	src := &fakeSource{}
	a := New(src, 0)
	start := time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	d := a.Load(context.Background(), start, end)

	require.True(t, d.TotalInStock.Available())
	assert.EqualValues(t, 120, d.TotalInStock.Value)
	assert.Equal(t, "15250.75", d.TotalStockValue.Value.String())
	assert.EqualValues(t, 31, d.TotalCustomers.Value)
	assert.EqualValues(t, 210, d.TotalInvoices.Value)
	assert.Equal(t, "2026-10-10", d.Sales.Value.StartDate)
	assert.True(t, d.Sales.Value.TotalProfit.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, start, src.start)
	assert.Equal(t, end, src.end)
	assert.False(t, d.LoadedAt.IsZero())
}

func TestLoadPartialFailure(t *testing.T) {
	src := &fakeSource{
		inStockErr: errors.New("502 bad gateway"),
		alertsErr:  errors.New("timeout"),
	}
	d := New(src, 0).Load(context.Background(), time.Now(), time.Now())

	assert.False(t, d.TotalInStock.Available())
	assert.ErrorIs(t, d.TotalInStock.Err, ErrUnavailable)
	assert.Contains(t, d.TotalInStock.Err.Error(), "502 bad gateway")
	assert.Zero(t, d.TotalInStock.Value)

	assert.False(t, d.Shortages.Available())
	assert.Nil(t, d.Shortages.Value)

	assert.True(t, d.TotalStockValue.Available())
	assert.True(t, d.TotalCustomers.Available())
	assert.True(t, d.TotalInvoices.Available())
	assert.True(t, d.Sales.Available())
}

// Every read blocks until all six have started; a sequential loader would
// deadlock here.
func TestLoadIssuesReadsInParallel(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(6)
	src := &fakeSource{wait: func() {
		wg.Done()
		wg.Wait()
	}}

	done := make(chan Dashboard)
	go func() { done <- New(src, 0).Load(context.Background(), time.Now(), time.Now()) }()

	select {
	case d := <-done:
		assert.True(t, d.TotalCustomers.Available())
	case <-time.After(5 * time.Second):
		t.Fatalf("reads were not issued concurrently")
	}
}

func TestShortagesOrdering(t *testing.T) {
	src := &fakeSource{}
	got, err := src.GetStockAlerts(context.Background())
	require.NoError(t, err)

	s := Shortages(got)
	require.Len(t, s, 3, "products at their threshold are not short")
	assert.Equal(t, "c", s[0].ID)
	assert.Equal(t, 10, s[0].Shortfall)
	// b (Belt) and a (Shirt) both short by 3: category breaks the tie
	assert.Equal(t, "b", s[1].ID)
	assert.Equal(t, "a", s[2].ID)
}

func TestShortagesEmpty(t *testing.T) {
	assert.Empty(t, Shortages(nil))
	assert.NotNil(t, Shortages(nil))
}

func TestWindowAndRefresh(t *testing.T) {
	src := &fakeSource{}
	a := New(src, 0)
	a.now = func() time.Time { return time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC) }

	start, end := a.Window()
	assert.Equal(t, "2026-10-10", models.FormatDay(start))
	assert.Equal(t, "2026-10-17", models.FormatDay(end))

	_, ok := a.Latest()
	assert.False(t, ok)

	a.Refresh(context.Background())
	d, ok := a.Latest()
	require.True(t, ok)
	assert.Equal(t, "2026-10-17", d.Sales.Value.EndDate)
}

func TestRefreshKeepsNewestResult(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	first := true

	src := &fakeSource{}
	a := New(src, 3)
	var clock int
	a.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock++
		return time.Date(2026, 10, 17, 0, 0, clock, 0, time.UTC)
	}
	src.wait = func() {
		mu.Lock()
		slow := first
		first = false
		mu.Unlock()
		if slow {
			once.Do(func() { close(started) })
			<-release
		}
	}

	done := make(chan Dashboard)
	go func() { done <- a.Refresh(context.Background()) }()
	<-started

	newer := a.Refresh(context.Background())
	close(release)
	older := <-done

	latest, ok := a.Latest()
	require.True(t, ok)
	assert.Equal(t, newer.LoadedAt, latest.LoadedAt)
	assert.NotEqual(t, older.LoadedAt, latest.LoadedAt)
}
