package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// ErrInsufficientStock returned when requested qty exceeds available stock.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrProductNotFound returned when a sale names a product that no longer exists.
var ErrProductNotFound = errors.New("product not found")

// takeStock locks the product row, checks the stock still covers qty and
// decrements it. It returns the product's stored cost as read under the
// lock. Must run inside tx.
func takeStock(ctx context.Context, tx *sql.Tx, productID string, qty int) (decimal.Decimal, error) {
	var (
		stock int
		cost  decimal.Decimal
	)
	err := tx.QueryRowContext(ctx, `SELECT in_stock, product_cost FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&stock, &cost)
	if err == sql.ErrNoRows {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if err != nil {
		return decimal.Zero, err
	}
	if stock < qty {
		return decimal.Zero, fmt.Errorf("%w: product %s has %d, requested %d", ErrInsufficientStock, productID, stock, qty)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE products SET in_stock = in_stock - $1 WHERE id = $2`, qty, productID); err != nil {
		return decimal.Zero, err
	}
	return cost, nil
}

// restock returns qty units of a product. A product deleted since the sale
// is skipped.
func restock(ctx context.Context, tx *sql.Tx, productID string, qty int) error {
	res, err := tx.ExecContext(ctx, `UPDATE products SET in_stock = in_stock + $1 WHERE id = $2`, qty, productID)
	if err != nil {
		return err
	}
	if ra, _ := res.RowsAffected(); ra == 0 {
		log.Printf("[store] restock skipped, product %s no longer exists", productID)
	}
	return nil
}
