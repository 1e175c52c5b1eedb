package handler

import (
	"bytes"
	"net/http"

	"github.com/tealeg/xlsx"

	models "mamushop-admin/model"
	"mamushop-admin/pricing"
)

var stockAlertHeaders = []string{
	"ID", "Category", "SubCategory", "SubsubCategory", "Brand",
	"InStock", "StockAlert", "Shortfall", "ProductCost", "ProductPrice",
}

// ExportStockAlerts handles GET /stock-alert/export. It serves the same rows
// as /stock-alert as an .xlsx download.
func (h *Handler) ExportStockAlerts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.svc.StockAlerts(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := writeStockAlertSheet(&buf, ps); err != nil {
		writeErr(w, http.StatusInternalServerError, "failed to build Excel file")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=stock-alerts.xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Transfer-Encoding", "binary")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeStockAlertSheet(buf *bytes.Buffer, ps []models.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Stock Alerts")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range stockAlertHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range ps {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.Category)
		row.AddCell().SetString(p.SubCategory)
		row.AddCell().SetString(p.SubsubCategory)
		row.AddCell().SetString(p.Brand)
		row.AddCell().SetInt(p.InStock)
		row.AddCell().SetInt(p.StockAlert)
		row.AddCell().SetInt(p.Shortfall())
		row.AddCell().SetString(pricing.Format(p.ProductCost))
		row.AddCell().SetString(pricing.Format(p.ProductPrice))
	}

	return file.Write(buf)
}
