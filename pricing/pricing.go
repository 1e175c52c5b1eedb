// Package pricing derives line and sale totals from line items.
//
// All arithmetic is exact decimal arithmetic. Values are rounded to two
// fractional digits only by Format, never between aggregation steps.
package pricing

import (
	"github.com/shopspring/decimal"

	models "mamushop-admin/model"
)

// Totals are the derived aggregates of a set of line items.
type Totals struct {
	Price  decimal.Decimal `json:"totalPrice"`
	Profit decimal.Decimal `json:"totalProfit"`
}

// IsZero reports whether both totals are zero.
func (t Totals) IsZero() bool {
	return t.Price.IsZero() && t.Profit.IsZero()
}

// LineTotal is sellingPrice × sellingAmount.
func LineTotal(it models.LineItem) decimal.Decimal {
	return it.SellingPrice.Mul(decimal.NewFromInt(int64(it.SellingAmount)))
}

// LineProfit is (sellingPrice − productCost) × sellingAmount.
func LineProfit(it models.LineItem) decimal.Decimal {
	return it.SellingPrice.Sub(it.ProductCost).Mul(decimal.NewFromInt(int64(it.SellingAmount)))
}

// AggregateTotal sums LineTotal over items.
func AggregateTotal(items []models.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineTotal(it))
	}
	return sum
}

// AggregateProfit sums LineProfit over items.
func AggregateProfit(items []models.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineProfit(it))
	}
	return sum
}

// Compute returns both aggregates in one pass.
func Compute(items []models.LineItem) Totals {
	t := Totals{Price: decimal.Zero, Profit: decimal.Zero}
	for _, it := range items {
		t.Price = t.Price.Add(LineTotal(it))
		t.Profit = t.Profit.Add(LineProfit(it))
	}
	return t
}

// Format renders d with exactly two fractional digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
