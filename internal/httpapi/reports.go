package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"clothshop/backend/internal/domain"
	"clothshop/backend/internal/store"
)

func (a *API) handleSupplierDailySummary(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	summary, err := a.service.DailySupplierSummary(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleSupplierWiseSummary(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	summary, err := a.service.SupplierWiseSummary(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleSalesDailySummary(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	summary, err := a.service.DailySalesSummary(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleSalespersonSummary(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	summary, err := a.service.SalespersonSummary(r.Context(), r.PathValue("name"), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	summary, err := a.service.ExpenseSummary(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleFinancialReport(w http.ResponseWriter, r *http.Request) {
	year, err := parseInt("year", r.PathValue("year"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	month, err := parseInt("month", r.PathValue("month"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	report, err := a.service.FinancialReport(r.Context(), year, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))

	report, err := a.service.DailyReport(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "", "json":
		writeJSON(w, http.StatusOK, report)
		return
	case "csv":
		body, err = dailyReportToCSV(report)
		contentType = "text/csv; charset=utf-8"
		w.Header().Set("Content-Disposition", attachmentName("daily-report", report.Date, "csv"))
	case "xlsx":
		body, err = dailyReportToXLSX(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		w.Header().Set("Content-Disposition", attachmentName("daily-report", report.Date, "xlsx"))
	case "html":
		body, err = dailyReportToPrintableHTML(report)
		contentType = "text/html; charset=utf-8"
	default:
		writeServiceError(w, fmt.Errorf("%w: unsupported format %q", store.ErrValidation, format))
		return
	}
	if err != nil {
		w.Header().Del("Content-Disposition")
		writeError(w, http.StatusInternalServerError, fmt.Errorf("export daily report: %w", err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (a *API) handleProfitReport(w http.ResponseWriter, r *http.Request) {
	date, err := pathDate(r, "date")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	report, err := a.service.ProfitReport(r.Context(), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func attachmentName(prefix string, date domain.Date, ext string) string {
	return fmt.Sprintf("attachment; filename=\"%s-%s.%s\"", prefix, date, ext)
}
