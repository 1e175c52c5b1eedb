package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	models "mamushop-admin/model"
	"mamushop-admin/service"
	"mamushop-admin/store"
)

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc service.ServiceInterface
}

// NewHandler returns a Handler instance
func NewHandler(s service.ServiceInterface) *Handler {
	return &Handler{svc: s}
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// Catalog
	r.HandleFunc("/products", h.ListProducts).Methods("GET")
	r.HandleFunc("/products/check-duplicate", h.CheckDuplicate).Methods("POST")
	r.HandleFunc("/customers", h.ListCustomers).Methods("GET")

	// Sales
	r.HandleFunc("/sale", h.SubmitSale).Methods("POST")
	r.HandleFunc("/sales-list", h.ListSales).Methods("GET")
	r.HandleFunc("/sales-list/{id}", h.GetSale).Methods("GET")
	r.HandleFunc("/sales/{id}", h.DeleteSale).Methods("DELETE")

	// Dashboard
	r.HandleFunc("/total-instock", h.TotalInStock).Methods("GET")
	r.HandleFunc("/total-stock-value", h.TotalStockValue).Methods("GET")
	r.HandleFunc("/total-customers", h.TotalCustomers).Methods("GET")
	r.HandleFunc("/total-invoices", h.TotalInvoices).Methods("GET")
	r.HandleFunc("/sales-report", h.SalesReport).Methods("GET")
	r.HandleFunc("/stock-alert", h.StockAlerts).Methods("GET")
	r.HandleFunc("/stock-alert/export", h.ExportStockAlerts).Methods("GET")
}

// --- helpers ---
func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeServiceErr maps known service and store errors to status codes.
func writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSale), errors.Is(err, service.ErrInvalidRange):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSaleNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInsufficientStock), errors.Is(err, store.ErrProductNotFound):
		writeErr(w, http.StatusConflict, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

// parseDayParam reads an optional YYYY-MM-DD query parameter.
func parseDayParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	return models.ParseDay(v)
}

// --- Catalog ---

// ListProducts handles GET /products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.ListProducts(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

// ListCustomers handles GET /customers
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.ListCustomers(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// CheckDuplicate handles POST /products/check-duplicate
// body: { "category": "...", "subCategory": "...", "subsubCategory": "...", "brand": "..." }
func (h *Handler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	var req models.ProductKey
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	dup, err := h.svc.CheckDuplicateProduct(r.Context(), req)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"duplicate": dup})
}

// --- Sales ---

// SubmitSale handles POST /sale
// body: { "customer": {...}, "products": [ {..., "sellingAmount": 2, "sellingPrice": "95"} ] }
func (h *Handler) SubmitSale(w http.ResponseWriter, r *http.Request) {
	var req models.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	rc, err := h.svc.SubmitSale(r.Context(), req)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rc)
}

// ListSales handles GET /sales-list?customer=...&date=YYYY-MM-DD
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	day, err := parseDayParam(r, "date")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	sales, err := h.svc.ListSales(r.Context(), service.SalesQuery{
		Customer: r.URL.Query().Get("customer"),
		Date:     day,
	})
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

// GetSale handles GET /sales-list/{id}
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetSale(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// DeleteSale handles DELETE /sales/{id}. Any request body is ignored; stock
// is restored from the items stored with the sale.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSale(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deletedCount": 1})
}

// --- Dashboard ---

func (h *Handler) TotalInStock(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.TotalInStock(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"totalInStock": n})
}

func (h *Handler) TotalStockValue(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.TotalStockValue(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"totalStockValue": v})
}

func (h *Handler) TotalCustomers(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.TotalCustomers(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"totalCustomers": n})
}

func (h *Handler) TotalInvoices(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.TotalInvoices(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"totalInvoices": n})
}

// SalesReport handles GET /sales-report?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	start, err := parseDayParam(r, "startDate")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDayParam(r, "endDate")
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := h.svc.SalesReport(r.Context(), start, end)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// StockAlerts handles GET /stock-alert
func (h *Handler) StockAlerts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.StockAlerts(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
