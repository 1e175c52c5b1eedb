package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one product in a sale. The embedded Product is a snapshot
// taken when the item was added; SellingPrice may differ from ProductPrice.
type LineItem struct {
	Product
	SellingAmount int             `json:"sellingAmount"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
}

// SaleRequest is the body of POST /sale. Totals are left to the server.
type SaleRequest struct {
	Customer Customer   `json:"customer"`
	Products []LineItem `json:"products"`
}

// SaleReceipt is what the server returns for a committed sale.
type SaleReceipt struct {
	ID            string          `json:"_id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TotalProfit   decimal.Decimal `json:"totalProfit"`
	Date          time.Time       `json:"date"`
}

// SaleRecord is a committed sale together with its line item snapshot.
type SaleRecord struct {
	ID            string          `json:"_id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Customer      Customer        `json:"customer"`
	Products      []LineItem      `json:"products"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	TotalProfit   decimal.Decimal `json:"totalProfit"`
	Date          time.Time       `json:"date"`
}

// Receipt strips the line items off a record.
func (r SaleRecord) Receipt() SaleReceipt {
	return SaleReceipt{
		ID:            r.ID,
		InvoiceNumber: r.InvoiceNumber,
		TotalAmount:   r.TotalAmount,
		TotalProfit:   r.TotalProfit,
		Date:          r.Date,
	}
}

// SalesReport is the aggregate of sales within a whole-day range.
type SalesReport struct {
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	TotalSales  decimal.Decimal `json:"totalSales"`
	TotalProfit decimal.Decimal `json:"totalProfit"`
}
