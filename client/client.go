// Package client talks to the admin HTTP API. It is what the desk console
// uses as its catalog, sale and dashboard source.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	models "mamushop-admin/model"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Msg    string
}

func (e *StatusError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Msg)
}

type apiError struct {
	Error string `json:"error"`
}

type Client struct {
	base string
	rc   *resty.Client
}

// New returns a client for the API at baseURL. A nil hc uses a client with
// a 10s timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	rc := resty.NewWithClient(hc).
		SetHeader("Accept", "application/json")
	return &Client{base: strings.TrimRight(baseURL, "/"), rc: rc}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req := c.rc.R().
		SetContext(ctx).
		SetError(&apiError{})
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, c.base+path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if !resp.IsSuccess() {
		se := &StatusError{Method: method, Path: path, Code: resp.StatusCode()}
		if e, ok := resp.Error().(*apiError); ok {
			se.Msg = e.Error
		}
		return se
	}
	return nil
}

func (c *Client) GetProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCustomers(ctx context.Context) ([]models.Customer, error) {
	var out []models.Customer
	if err := c.do(ctx, http.MethodGet, "/customers", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CheckDuplicateProduct(ctx context.Context, key models.ProductKey) (bool, error) {
	var out struct {
		Duplicate bool `json:"duplicate"`
	}
	if err := c.do(ctx, http.MethodPost, "/products/check-duplicate", nil, key, &out); err != nil {
		return false, err
	}
	return out.Duplicate, nil
}

func (c *Client) SubmitSale(ctx context.Context, req models.SaleRequest) (models.SaleReceipt, error) {
	var out models.SaleReceipt
	err := c.do(ctx, http.MethodPost, "/sale", nil, req, &out)
	return out, err
}

// ListSales filters by customer name substring and calendar day; zero values
// are left out of the query.
func (c *Client) ListSales(ctx context.Context, customer string, day time.Time) ([]models.SaleRecord, error) {
	q := url.Values{}
	if customer != "" {
		q.Set("customer", customer)
	}
	if !day.IsZero() {
		q.Set("date", models.FormatDay(day))
	}
	var out []models.SaleRecord
	if err := c.do(ctx, http.MethodGet, "/sales-list", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSale(ctx context.Context, id string) (models.SaleRecord, error) {
	var out models.SaleRecord
	err := c.do(ctx, http.MethodGet, "/sales-list/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// DeleteSale reverses a sale. The server restocks from its own record.
func (c *Client) DeleteSale(ctx context.Context, id string) (int, error) {
	var out struct {
		DeletedCount int `json:"deletedCount"`
	}
	if err := c.do(ctx, http.MethodDelete, "/sales/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return 0, err
	}
	return out.DeletedCount, nil
}

func (c *Client) GetTotalInStock(ctx context.Context) (int64, error) {
	var out struct {
		N int64 `json:"totalInStock"`
	}
	err := c.do(ctx, http.MethodGet, "/total-instock", nil, nil, &out)
	return out.N, err
}

func (c *Client) GetTotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	var out struct {
		V decimal.Decimal `json:"totalStockValue"`
	}
	err := c.do(ctx, http.MethodGet, "/total-stock-value", nil, nil, &out)
	return out.V, err
}

func (c *Client) GetTotalCustomers(ctx context.Context) (int64, error) {
	var out struct {
		N int64 `json:"totalCustomers"`
	}
	err := c.do(ctx, http.MethodGet, "/total-customers", nil, nil, &out)
	return out.N, err
}

func (c *Client) GetTotalInvoices(ctx context.Context) (int64, error) {
	var out struct {
		N int64 `json:"totalInvoices"`
	}
	err := c.do(ctx, http.MethodGet, "/total-invoices", nil, nil, &out)
	return out.N, err
}

func (c *Client) GetSalesReport(ctx context.Context, start, end time.Time) (models.SalesReport, error) {
	q := url.Values{}
	q.Set("startDate", models.FormatDay(start))
	q.Set("endDate", models.FormatDay(end))
	var out models.SalesReport
	err := c.do(ctx, http.MethodGet, "/sales-report", q, nil, &out)
	return out, err
}

func (c *Client) GetStockAlerts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := c.do(ctx, http.MethodGet, "/stock-alert", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
