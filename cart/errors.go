package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrOutOfStock rejects adding a product with no units in stock.
	ErrOutOfStock = errors.New("product is out of stock")
	// ErrDuplicateLineItem rejects adding a product already in the cart.
	ErrDuplicateLineItem = errors.New("product is already in the cart")
	// ErrQuantityClamped is advisory: the amount was lowered to the stock
	// available and the change was applied.
	ErrQuantityClamped = errors.New("quantity clamped to stock")
	// ErrNoSuchLineItem is returned for an index outside the cart.
	ErrNoSuchLineItem = errors.New("no such line item")
	// ErrInvalidPrice rejects a negative or unparseable price.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrUnknownProduct is returned when an id is not in the catalog index.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrUnknownCustomer is returned when an id is not among the catalog's
	// customers.
	ErrUnknownCustomer = errors.New("unknown customer")
)

// QuantityClampedError names the maximum amount that was applied instead of
// the requested one.
type QuantityClampedError struct {
	Requested int
	Max       int
}

func (e *QuantityClampedError) Error() string {
	return fmt.Sprintf("cannot sell more than %d items in stock (requested %d)", e.Max, e.Requested)
}

func (e *QuantityClampedError) Is(target error) bool { return target == ErrQuantityClamped }

// IsAdvisory reports whether err leaves the requested change applied.
func IsAdvisory(err error) bool {
	return errors.Is(err, ErrQuantityClamped)
}
