package models

import "github.com/shopspring/decimal"

// Product is a catalog entry as served by GET /products.
type Product struct {
	ID             string          `json:"_id"`
	Category       string          `json:"category"`
	SubCategory    string          `json:"subCategory"`
	SubsubCategory string          `json:"subsubCategory"`
	Brand          string          `json:"brand"`
	InStock        int             `json:"inStock"`
	StockAlert     int             `json:"stockAlert"`
	ProductCost    decimal.Decimal `json:"productCost"`
	ProductPrice   decimal.Decimal `json:"productPrice"`
}

// Shortfall is how many units the product is below its alert threshold.
// Zero or negative means the product is not short.
func (p Product) Shortfall() int {
	return p.StockAlert - p.InStock
}

// Customer is a registry entry as served by GET /customers.
type Customer struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Address string `json:"address"`
}

// ProductKey identifies a catalog entry for uniqueness checks.
type ProductKey struct {
	Category       string `json:"category"`
	SubCategory    string `json:"subCategory"`
	SubsubCategory string `json:"subsubCategory"`
	Brand          string `json:"brand"`
}
