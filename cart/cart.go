// Package cart holds one operator's in-progress sale: the ordered line
// items, the chosen customer and the totals derived from them.
//
// A Cart is not safe for concurrent use. It belongs to a single operator
// session; callers serialize mutations against an in-flight commit.
package cart

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"mamushop-admin/catalog"
	models "mamushop-admin/model"
	"mamushop-admin/pricing"
)

// Cart is the state of one sale being composed.
type Cart struct {
	index *catalog.Index

	items    []models.LineItem
	customer *models.Customer
	totals   pricing.Totals
	// version increases on every mutation.
	version uint64
}

// Snapshot is a deep copy of the cart at one version.
type Snapshot struct {
	Customer *models.Customer
	Items    []models.LineItem
	Totals   pricing.Totals
	Version  uint64
}

// New returns an empty cart. ix may be nil when only direct product and
// customer values are used.
func New(ix *catalog.Index) *Cart {
	c := &Cart{index: ix}
	c.recompute()
	return c
}

// recompute derives the totals from scratch. Every mutation ends here.
func (c *Cart) recompute() {
	c.totals = pricing.Compute(c.items)
	c.version++
}

// SelectCustomer replaces the current customer.
func (c *Cart) SelectCustomer(cu models.Customer) {
	c.customer = &cu
	c.version++
}

// SelectCustomerByID selects a customer known to the catalog index.
func (c *Cart) SelectCustomerByID(id string) error {
	if c.index == nil {
		return errors.Wrapf(ErrUnknownCustomer, "customer %s", id)
	}
	cu, ok := c.index.Customer(id)
	if !ok {
		return errors.Wrapf(ErrUnknownCustomer, "customer %s", id)
	}
	c.SelectCustomer(cu)
	return nil
}

// Customer returns the selected customer, if any.
func (c *Cart) Customer() (models.Customer, bool) {
	if c.customer == nil {
		return models.Customer{}, false
	}
	return *c.customer, true
}

// AddProduct appends p with an amount of 1 at its list price.
func (c *Cart) AddProduct(p models.Product) error {
	if p.InStock <= 0 {
		return errors.Wrapf(ErrOutOfStock, "%s %s", p.Brand, p.Category)
	}
	if c.position(p.ID) >= 0 {
		return errors.Wrapf(ErrDuplicateLineItem, "%s %s", p.Brand, p.Category)
	}
	if p.ProductPrice.IsNegative() {
		return errors.Wrapf(ErrInvalidPrice, "product %s price %s", p.ID, p.ProductPrice)
	}
	c.items = append(c.items, models.LineItem{
		Product:       p,
		SellingAmount: 1,
		SellingPrice:  p.ProductPrice,
	})
	c.recompute()
	return nil
}

// AddProductByID adds a product known to the catalog index.
func (c *Cart) AddProductByID(id string) error {
	if c.index == nil {
		return errors.Wrapf(ErrUnknownProduct, "product %s", id)
	}
	p, ok := c.index.Product(id)
	if !ok {
		return errors.Wrapf(ErrUnknownProduct, "product %s", id)
	}
	return c.AddProduct(p)
}

// SetSellingAmount sets the amount of line i, clamped to [1, inStock].
// It returns the amount applied. When the request exceeded the stock the
// error is a *QuantityClampedError; the clamped amount is still applied.
func (c *Cart) SetSellingAmount(i, requested int) (int, error) {
	if err := c.check(i); err != nil {
		return 0, err
	}
	it := &c.items[i]
	amount := requested
	var advisory error
	switch {
	case amount < 1:
		amount = 1
	case amount > it.InStock:
		amount = it.InStock
		advisory = &QuantityClampedError{Requested: requested, Max: it.InStock}
	}
	it.SellingAmount = amount
	c.recompute()
	return amount, advisory
}

// SetSellingAmountInput is SetSellingAmount for raw operator input.
// Anything that is not an integer counts as 1.
func (c *Cart) SetSellingAmountInput(i int, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = 1
	}
	return c.SetSellingAmount(i, n)
}

// SetSellingPrice overwrites the selling price of line i.
func (c *Cart) SetSellingPrice(i int, price decimal.Decimal) error {
	if err := c.check(i); err != nil {
		return err
	}
	c.items[i].SellingPrice = price
	c.recompute()
	return nil
}

// SetSellingPriceInput parses raw and overwrites the selling price of line i.
func (c *Cart) SetSellingPriceInput(i int, raw string) error {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return errors.Wrapf(ErrInvalidPrice, "%q", raw)
	}
	return c.SetSellingPrice(i, price)
}

// RemoveLineItem deletes line i and returns it. Its product becomes
// available to SearchProducts again.
func (c *Cart) RemoveLineItem(i int) (models.LineItem, error) {
	if err := c.check(i); err != nil {
		return models.LineItem{}, err
	}
	removed := c.items[i]
	c.items = append(c.items[:i:i], c.items[i+1:]...)
	c.recompute()
	return removed, nil
}

// Reset clears the line items and the customer.
func (c *Cart) Reset() {
	c.items = nil
	c.customer = nil
	c.recompute()
}

// ClearSubmitted removes what snap sent to the backend: every line whose
// product was in snap, and the customer if it is still snap's customer.
// Lines added after the snapshot stay. It reports whether the cart ended
// up empty with no customer.
func (c *Cart) ClearSubmitted(snap Snapshot) bool {
	if c.version == snap.Version {
		c.Reset()
		return true
	}
	sent := make(map[string]struct{}, len(snap.Items))
	for _, it := range snap.Items {
		sent[it.ID] = struct{}{}
	}
	kept := c.items[:0:0]
	for _, it := range c.items {
		if _, ok := sent[it.ID]; !ok {
			kept = append(kept, it)
		}
	}
	c.items = kept
	if c.customer != nil && snap.Customer != nil && c.customer.ID == snap.Customer.ID {
		c.customer = nil
	}
	c.recompute()
	return len(c.items) == 0 && c.customer == nil
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []models.LineItem {
	return append([]models.LineItem(nil), c.items...)
}

// Len is the number of line items.
func (c *Cart) Len() int { return len(c.items) }

// Totals returns the derived totals.
func (c *Cart) Totals() pricing.Totals { return c.totals }

// Version identifies the current state; it changes on every mutation.
func (c *Cart) Version() uint64 { return c.version }

// Snapshot copies the current state.
func (c *Cart) Snapshot() Snapshot {
	s := Snapshot{
		Items:   c.Items(),
		Totals:  c.totals,
		Version: c.version,
	}
	if c.customer != nil {
		cu := *c.customer
		s.Customer = &cu
	}
	return s
}

// Contains reports whether a product is already in the cart.
func (c *Cart) Contains(productID string) bool {
	return c.position(productID) >= 0
}

// SearchProducts searches the index and leaves out products already in
// the cart.
func (c *Cart) SearchProducts(query string) []models.Product {
	if c.index == nil {
		return []models.Product{}
	}
	found := c.index.SearchProducts(query)
	out := found[:0]
	for _, p := range found {
		if !c.Contains(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// SearchCustomers searches the index's customers.
func (c *Cart) SearchCustomers(query string) []models.Customer {
	if c.index == nil {
		return []models.Customer{}
	}
	return c.index.SearchCustomers(query)
}

func (c *Cart) position(productID string) int {
	for i, it := range c.items {
		if it.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) check(i int) error {
	if i < 0 || i >= len(c.items) {
		return errors.Wrapf(ErrNoSuchLineItem, "index %d of %d", i, len(c.items))
	}
	return nil
}
