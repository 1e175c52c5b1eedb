// Package catalog holds the session's product and customer corpus and
// answers token searches against it.
package catalog

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	models "mamushop-admin/model"
)

// ErrFetchFailed is returned by Refresh when either list could not be
// loaded. The previous corpus stays in place.
var ErrFetchFailed = errors.New("catalog fetch failed")

// Source provides the full product and customer lists.
type Source interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetCustomers(ctx context.Context) ([]models.Customer, error)
}

// Index is the session-owned corpus. It is safe for concurrent use.
type Index struct {
	src Source

	mu        sync.RWMutex
	products  []models.Product
	customers []models.Customer
	// seq is handed out to refreshes as they start; applied is the seq of
	// the corpus currently held.
	seq     uint64
	applied uint64
}

// New returns an empty index backed by src. Call Refresh to load it.
func New(src Source) *Index {
	return &Index{src: src}
}

// Refresh re-fetches both lists and replaces the corpus wholesale.
// A refresh that finishes after a newer one has been applied is dropped.
func (ix *Index) Refresh(ctx context.Context) error {
	ix.mu.Lock()
	ix.seq++
	seq := ix.seq
	ix.mu.Unlock()

	var (
		products  []models.Product
		customers []models.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if products, err = ix.src.GetProducts(gctx); err != nil {
			return errors.Wrap(err, "products")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if customers, err = ix.src.GetCustomers(gctx); err != nil {
			return errors.Wrap(err, "customers")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return &FetchError{Err: err}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if seq < ix.applied {
		return nil
	}
	ix.products = products
	ix.customers = customers
	ix.applied = seq
	return nil
}

// FetchError carries the cause of a failed refresh.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "catalog fetch failed: " + e.Err.Error() }

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// Loaded reports whether at least one refresh has succeeded.
func (ix *Index) Loaded() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.applied > 0
}

// Products returns a copy of the product corpus.
func (ix *Index) Products() []models.Product {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]models.Product(nil), ix.products...)
}

// Customers returns a copy of the customer corpus.
func (ix *Index) Customers() []models.Customer {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]models.Customer(nil), ix.customers...)
}

// Product looks a product up by identifier.
func (ix *Index) Product(id string) (models.Product, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, p := range ix.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Customer looks a customer up by identifier.
func (ix *Index) Customer(id string) (models.Customer, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, c := range ix.customers {
		if c.ID == id {
			return c, true
		}
	}
	return models.Customer{}, false
}

// SearchProducts matches brand, category, subCategory and subsubCategory.
func (ix *Index) SearchProducts(query string) []models.Product {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []models.Product{}
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := []models.Product{}
	for _, p := range ix.products {
		if MatchAll(tokens, p.Brand, p.Category, p.SubCategory, p.SubsubCategory) {
			out = append(out, p)
		}
	}
	return out
}

// SearchCustomers matches name, mobile and address.
func (ix *Index) SearchCustomers(query string) []models.Customer {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return []models.Customer{}
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := []models.Customer{}
	for _, c := range ix.customers {
		if MatchAll(tokens, c.Name, c.Mobile, c.Address) {
			out = append(out, c)
		}
	}
	return out
}
