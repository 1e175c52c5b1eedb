// Package sale turns a composed cart into a committed sale.
package sale

import (
	"context"
	"log"
	"sync"

	"github.com/go-faster/errors"

	"mamushop-admin/cart"
	models "mamushop-admin/model"
	"mamushop-admin/pricing"
)

var (
	ErrNoCustomerSelected = errors.New("no customer selected")
	ErrEmptyCart          = errors.New("no products selected")
	ErrCancelled          = errors.New("sale cancelled by operator")
	ErrCommitFailed       = errors.New("failed to complete sale")
	ErrCommitInProgress   = errors.New("a sale is already being submitted")
)

// CommitError wraps the reason a submission failed. The cart is unchanged.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string { return "failed to complete sale: " + e.Err.Error() }

func (e *CommitError) Unwrap() error { return e.Err }

func (e *CommitError) Is(target error) bool { return target == ErrCommitFailed }

// Submitter sends a sale to the authoritative store.
type Submitter interface {
	SubmitSale(ctx context.Context, req models.SaleRequest) (models.SaleReceipt, error)
}

// Refresher reloads the catalog after stock has changed.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Prompt is what the operator is asked to confirm.
type Prompt struct {
	Customer models.Customer
	Items    []models.LineItem
	Totals   pricing.Totals
}

// Confirmer asks the operator whether to go ahead.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// AlwaysConfirm approves every sale.
var AlwaysConfirm = ConfirmFunc(func(context.Context, Prompt) (bool, error) { return true, nil })

// Result describes a committed sale.
type Result struct {
	Receipt models.SaleReceipt
	// CartReset is false when lines or another customer were added while
	// the sale was in flight; those are kept. The submitted lines and
	// customer are always cleared.
	CartReset bool
	// RefreshErr is set when the catalog could not be reloaded afterwards.
	// The sale itself is committed.
	RefreshErr error
}

// Committer submits carts. It allows one submission at a time.
type Committer struct {
	api     Submitter
	confirm Confirmer
	catalog Refresher

	mu       sync.Mutex
	inFlight bool
}

// NewCommitter wires a committer. catalog may be nil.
func NewCommitter(api Submitter, confirm Confirmer, catalog Refresher) *Committer {
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	return &Committer{api: api, confirm: confirm, catalog: catalog}
}

// Commit validates, confirms and submits the cart. Preconditions are
// checked before any network call. On failure the cart is left exactly as
// it was; on success the submitted lines and customer are cleared and the
// catalog refreshed.
func (cm *Committer) Commit(ctx context.Context, c *cart.Cart) (*Result, error) {
	snap := c.Snapshot()
	if snap.Customer == nil {
		return nil, ErrNoCustomerSelected
	}
	if len(snap.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if !cm.begin() {
		return nil, ErrCommitInProgress
	}
	defer cm.end()

	ok, err := cm.confirm.Confirm(ctx, Prompt{Customer: *snap.Customer, Items: snap.Items, Totals: snap.Totals})
	if err != nil {
		return nil, errors.Wrap(err, "confirm")
	}
	if !ok {
		return nil, ErrCancelled
	}

	req := models.SaleRequest{Customer: *snap.Customer, Products: snap.Items}
	receipt, err := cm.api.SubmitSale(ctx, req)
	if err != nil {
		return nil, &CommitError{Err: err}
	}

	res := &Result{Receipt: receipt}
	res.CartReset = c.ClearSubmitted(snap)
	if !res.CartReset {
		log.Printf("[sale] cart changed during submission of invoice %s; keeping later additions", receipt.InvoiceNumber)
	}
	if cm.catalog != nil {
		if err := cm.catalog.Refresh(ctx); err != nil {
			log.Printf("[sale] WARN: catalog refresh after invoice %s failed: %v", receipt.InvoiceNumber, err)
			res.RefreshErr = err
		}
	}
	return res, nil
}

func (cm *Committer) begin() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.inFlight {
		return false
	}
	cm.inFlight = true
	return true
}

func (cm *Committer) end() {
	cm.mu.Lock()
	cm.inFlight = false
	cm.mu.Unlock()
}
