package httpapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"strconv"

	"github.com/xuri/excelize/v2"

	"clothshop/backend/internal/domain"
)

// dailyReportRows flattens the combined daily report into section/key/value
// rows shared by the CSV and XLSX exports.
func dailyReportRows(report domain.DailyReport) [][]string {
	supplier := report.SupplierSummary
	sales := report.SalesSummary
	return [][]string{
		{"section", "key", "value"},
		{"summary", "date", report.Date.String()},
		{"supplier", "total_supply", supplier.TotalSupply.String()},
		{"supplier", "total_returns", supplier.TotalReturns.String()},
		{"supplier", "net_amount", supplier.NetAmount.String()},
		{"supplier", "supply_count", strconv.FormatInt(supplier.SupplyCount, 10)},
		{"supplier", "return_count", strconv.FormatInt(supplier.ReturnCount, 10)},
		{"sales", "total_sales_amount", sales.TotalSalesAmount.String()},
		{"sales", "total_profit", sales.TotalProfit.String()},
		{"sales", "total_quantity_sold", sales.TotalQuantitySold.String()},
		{"sales", "sales_count", strconv.FormatInt(sales.SalesCount, 10)},
		{"summary", "net_inventory_value", report.NetInventoryValue.String()},
	}
}

func dailyReportToCSV(report domain.DailyReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(dailyReportRows(report)); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func dailyReportToXLSX(report domain.DailyReport) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Daily Report"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	for i, row := range dailyReportRows(report) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(sheet, "A", "C", 22); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

var dailyReportHTMLTmpl = template.Must(template.New("daily-report").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Daily Report {{.Date}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    td.num { text-align: right; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>Daily Report {{.Date}}</h2>

  <h3>Supplier</h3>
  <table>
    <thead><tr><th>Supply</th><th>Returns</th><th>Net</th><th>Supply Records</th><th>Return Records</th></tr></thead>
    <tbody><tr>
      <td class="num">{{.SupplierSummary.TotalSupply}}</td>
      <td class="num">{{.SupplierSummary.TotalReturns}}</td>
      <td class="num">{{.SupplierSummary.NetAmount}}</td>
      <td class="num">{{.SupplierSummary.SupplyCount}}</td>
      <td class="num">{{.SupplierSummary.ReturnCount}}</td>
    </tr></tbody>
  </table>

  <h3>Sales</h3>
  <table>
    <thead><tr><th>Sales Amount</th><th>Profit</th><th>Quantity</th><th>Sales</th></tr></thead>
    <tbody><tr>
      <td class="num">{{.SalesSummary.TotalSalesAmount}}</td>
      <td class="num">{{.SalesSummary.TotalProfit}}</td>
      <td class="num">{{.SalesSummary.TotalQuantitySold}}</td>
      <td class="num">{{.SalesSummary.SalesCount}}</td>
    </tr></tbody>
  </table>

  <p>Net inventory value: {{.NetInventoryValue}}</p>
</body>
</html>
`))

func dailyReportToPrintableHTML(report domain.DailyReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := dailyReportHTMLTmpl.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
