package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"clothshop/backend/internal/cache"
	"clothshop/backend/internal/domain"
	"clothshop/backend/internal/store"
	"clothshop/backend/internal/store/memory"
)

var testDay = domain.NewDate(2031, time.March, 4)

func newTestService() *Service {
	return New(memory.NewSeeded(), cache.NoopReportCache{}, time.Minute, nil)
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: domain.RoleAdmin})
}

func staffCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "staff", Role: domain.RoleStaff})
}

func dec(raw string) decimal.Decimal {
	return decimal.RequireFromString(raw)
}

func decPtr(raw string) *decimal.Decimal {
	d := dec(raw)
	return &d
}

func mustVariety(t *testing.T, svc *Service, req domain.VarietyCreateRequest) domain.Variety {
	t.Helper()
	v, err := svc.CreateVariety(adminCtx(), req)
	if err != nil {
		t.Fatalf("create variety %q: %v", req.Name, err)
	}
	return v
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("expected %s=%s, got %s", field, want, got)
	}
}

func TestSaleProfitAndDailySalesSummary(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()
	cotton := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton", MeasurementUnit: "pieces"})

	sale, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		SalespersonName: "Asha",
		VarietyID:       cotton.ID,
		Quantity:        dec("10"),
		SellingPrice:    dec("100"),
		CostPrice:       decPtr("60"),
		SaleDate:        testDay,
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	assertDecimal(t, "profit", sale.Profit, "400")

	summary, err := svc.DailySalesSummary(ctx, testDay)
	if err != nil {
		t.Fatalf("daily sales summary: %v", err)
	}
	assertDecimal(t, "total_sales_amount", summary.TotalSalesAmount, "1000")
	assertDecimal(t, "total_profit", summary.TotalProfit, "400")
	assertDecimal(t, "total_quantity_sold", summary.TotalQuantitySold, "10")
	if summary.SalesCount != 1 {
		t.Fatalf("expected sales_count=1, got %d", summary.SalesCount)
	}

	person, err := svc.SalespersonSummary(ctx, "Asha", testDay)
	if err != nil {
		t.Fatalf("salesperson summary: %v", err)
	}
	assertDecimal(t, "total_sales", person.TotalSales, "1000")
	assertDecimal(t, "total_items_sold", person.TotalItemsSold, "10")

	other, err := svc.SalespersonSummary(ctx, "Nobody", testDay)
	if err != nil {
		t.Fatalf("salesperson summary for absent name: %v", err)
	}
	if other.SalesCount != 0 || !other.TotalSales.IsZero() {
		t.Fatalf("expected zero-filled summary, got %+v", other)
	}
}

func TestSaleRejectsSellingBelowCost(t *testing.T) {
	svc := newTestService()
	cotton := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton"})

	_, err := svc.CreateSale(staffCtx(), domain.SaleCreateRequest{
		SalespersonName: "Asha",
		VarietyID:       cotton.ID,
		Quantity:        dec("1"),
		SellingPrice:    dec("50"),
		CostPrice:       decPtr("60"),
		SaleDate:        testDay,
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	sales, err := svc.ListSales(staffCtx(), domain.Date{}, "")
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected no persisted sale, got %d", len(sales))
	}
}

func TestSaleFallsBackToDefaultCostPrice(t *testing.T) {
	svc := newTestService()
	silk := mustVariety(t, svc, domain.VarietyCreateRequest{
		Name:             "Silk",
		MeasurementUnit:  "meters",
		StandardLength:   decPtr("5.5"),
		DefaultCostPrice: decPtr("80"),
	})
	linen := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Linen"})

	sale, err := svc.CreateSale(staffCtx(), domain.SaleCreateRequest{
		SalespersonName: "Ravi",
		VarietyID:       silk.ID,
		Quantity:        dec("2.5"),
		SellingPrice:    dec("120"),
		SaleDate:        testDay,
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	assertDecimal(t, "cost_price", sale.CostPrice, "80")
	assertDecimal(t, "profit", sale.Profit, "100")

	_, err = svc.CreateSale(staffCtx(), domain.SaleCreateRequest{
		SalespersonName: "Ravi",
		VarietyID:       linen.ID,
		Quantity:        dec("1"),
		SellingPrice:    dec("120"),
		SaleDate:        testDay,
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error without any cost price, got %v", err)
	}
}

func TestCreateRejectsUnknownVariety(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateSupplierInventory(staffCtx(), domain.SupplierInventoryCreateRequest{
		SupplierName: "Acme", VarietyID: 42, Quantity: dec("1"), PricePerItem: dec("1"), SupplyDate: testDay,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSupplierTotalsAndDailySummary(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()
	cotton := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton"})

	supply, err := svc.CreateSupplierInventory(ctx, domain.SupplierInventoryCreateRequest{
		SupplierName: "Acme", VarietyID: cotton.ID, Quantity: dec("50"), PricePerItem: dec("20"), SupplyDate: testDay,
	})
	if err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	assertDecimal(t, "total_amount", supply.TotalAmount, "1000")

	ret, err := svc.CreateSupplierReturn(ctx, domain.SupplierReturnCreateRequest{
		SupplierName: "Acme", VarietyID: cotton.ID, Quantity: dec("5"), PricePerItem: dec("20"), ReturnDate: testDay, Reason: " torn ",
	})
	if err != nil {
		t.Fatalf("create return: %v", err)
	}
	assertDecimal(t, "return total_amount", ret.TotalAmount, "100")
	if ret.Reason != "torn" {
		t.Fatalf("expected trimmed reason, got %q", ret.Reason)
	}

	summary, err := svc.DailySupplierSummary(ctx, testDay)
	if err != nil {
		t.Fatalf("daily supplier summary: %v", err)
	}
	assertDecimal(t, "total_supply", summary.TotalSupply, "1000")
	assertDecimal(t, "total_returns", summary.TotalReturns, "100")
	assertDecimal(t, "net_amount", summary.NetAmount, "900")
	if summary.SupplyCount != 1 || summary.ReturnCount != 1 {
		t.Fatalf("unexpected counts %+v", summary)
	}
}

func TestSupplierWiseSummaryAppendsReturnsOnlySuppliers(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()
	cotton := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton"})

	for _, supplier := range []string{"Zen Mills", "Acme"} {
		if _, err := svc.CreateSupplierInventory(ctx, domain.SupplierInventoryCreateRequest{
			SupplierName: supplier, VarietyID: cotton.ID, Quantity: dec("10"), PricePerItem: dec("10"), SupplyDate: testDay,
		}); err != nil {
			t.Fatalf("create inventory: %v", err)
		}
	}
	for _, supplier := range []string{"Acme", "Bolt Fabrics"} {
		if _, err := svc.CreateSupplierReturn(ctx, domain.SupplierReturnCreateRequest{
			SupplierName: supplier, VarietyID: cotton.ID, Quantity: dec("3"), PricePerItem: dec("10"), ReturnDate: testDay,
		}); err != nil {
			t.Fatalf("create return: %v", err)
		}
	}

	summary, err := svc.SupplierWiseSummary(ctx, testDay)
	if err != nil {
		t.Fatalf("supplier-wise summary: %v", err)
	}
	if len(summary.Suppliers) != 3 {
		t.Fatalf("expected 3 suppliers, got %d", len(summary.Suppliers))
	}

	order := []string{"Acme", "Zen Mills", "Bolt Fabrics"}
	for i, name := range order {
		if summary.Suppliers[i].SupplierName != name {
			t.Fatalf("expected supplier %d to be %s, got %s", i, name, summary.Suppliers[i].SupplierName)
		}
	}
	assertDecimal(t, "Acme net_amount", summary.Suppliers[0].NetAmount, "70")
	bolt := summary.Suppliers[2]
	assertDecimal(t, "Bolt total_supply", bolt.TotalSupply, "0")
	assertDecimal(t, "Bolt net_amount", bolt.NetAmount, "-30")
	if bolt.SupplyRecords != 0 || bolt.ReturnRecords != 1 {
		t.Fatalf("unexpected returns-only record counts %+v", bolt)
	}
}

func TestExpenseSummaryGroupsByCategory(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()

	for _, e := range []domain.ExpenseCreateRequest{
		{Category: "Rent", Amount: dec("500"), ExpenseDate: testDay},
		{Category: "Utilities", Amount: dec("120"), ExpenseDate: testDay},
		{Category: "Rent", Amount: dec("75"), ExpenseDate: testDay.AddDays(1)},
	} {
		if _, err := svc.CreateExpense(ctx, e); err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}

	summary, err := svc.ExpenseSummary(ctx, testDay)
	if err != nil {
		t.Fatalf("expense summary: %v", err)
	}
	assertDecimal(t, "total_expenses", summary.TotalExpenses, "620")
	if summary.ExpenseCount != 2 || len(summary.CategoryBreakdown) != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	assertDecimal(t, "Rent", summary.CategoryBreakdown["Rent"], "500")
	assertDecimal(t, "Utilities", summary.CategoryBreakdown["Utilities"], "120")

	expenses, err := svc.ListExpensesByMonth(ctx, 2031, 3)
	if err != nil {
		t.Fatalf("list by month: %v", err)
	}
	if len(expenses) != 3 || !expenses[0].ExpenseDate.Equal(testDay.AddDays(1)) {
		t.Fatalf("expected newest expense first, got %+v", expenses)
	}
}

func TestEmptyDayReportsAreZero(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()
	empty := domain.NewDate(2030, time.January, 1)

	sales, err := svc.DailySalesSummary(ctx, empty)
	if err != nil || sales.SalesCount != 0 || !sales.TotalSalesAmount.IsZero() {
		t.Fatalf("expected zero sales summary, got %+v err=%v", sales, err)
	}
	supplier, err := svc.DailySupplierSummary(ctx, empty)
	if err != nil || supplier.SupplyCount != 0 || !supplier.NetAmount.IsZero() {
		t.Fatalf("expected zero supplier summary, got %+v err=%v", supplier, err)
	}
	wise, err := svc.SupplierWiseSummary(ctx, empty)
	if err != nil || len(wise.Suppliers) != 0 {
		t.Fatalf("expected no suppliers, got %+v err=%v", wise, err)
	}
	expenses, err := svc.ExpenseSummary(ctx, empty)
	if err != nil || expenses.ExpenseCount != 0 || len(expenses.CategoryBreakdown) != 0 {
		t.Fatalf("expected empty expense summary, got %+v err=%v", expenses, err)
	}
	profit, err := svc.ProfitReport(ctx, empty)
	if err != nil || len(profit.ProfitByVariety) != 0 || profit.ProfitBySalesperson == nil {
		t.Fatalf("expected empty profit report, got %+v err=%v", profit, err)
	}
}

func TestFinancialReportRatiosAndZeroRevenue(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()
	cotton := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton"})

	zero, err := svc.FinancialReport(ctx, 2031, 3)
	if err != nil {
		t.Fatalf("financial report: %v", err)
	}
	if zero.ProfitMargin != 0 || zero.ExpenseRatio != 0 {
		t.Fatalf("expected zero ratios without revenue, got %+v", zero)
	}

	if _, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		SalespersonName: "Asha", VarietyID: cotton.ID, Quantity: dec("3"),
		SellingPrice: dec("100"), CostPrice: decPtr("70"), SaleDate: testDay,
	}); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if _, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
		SalespersonName: "Asha", VarietyID: cotton.ID, Quantity: dec("1"),
		SellingPrice: dec("100"), CostPrice: decPtr("70"), SaleDate: domain.NewDate(2031, time.April, 1),
	}); err != nil {
		t.Fatalf("create sale outside month: %v", err)
	}
	if _, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "Rent", Amount: dec("40"), ExpenseDate: domain.NewDate(2031, time.March, 31)}); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	report, err := svc.FinancialReport(ctx, 2031, 3)
	if err != nil {
		t.Fatalf("financial report: %v", err)
	}
	assertDecimal(t, "total_revenue", report.TotalRevenue, "300")
	assertDecimal(t, "total_profit", report.TotalProfit, "90")
	assertDecimal(t, "total_expenses", report.TotalExpenses, "40")
	assertDecimal(t, "net_income", report.NetIncome, "50")
	if report.ProfitMargin != 30 {
		t.Fatalf("expected profit_margin 30, got %v", report.ProfitMargin)
	}
	if report.ExpenseRatio != 13.33 {
		t.Fatalf("expected expense_ratio 13.33, got %v", report.ExpenseRatio)
	}
	if report.PeriodEnd.String() != "2031-03-31" {
		t.Fatalf("expected period end 2031-03-31, got %s", report.PeriodEnd)
	}

	for _, bad := range [][2]int{{2031, 0}, {2031, 13}, {0, 5}, {10000, 1}} {
		if _, err := svc.FinancialReport(ctx, bad[0], bad[1]); !errors.Is(err, store.ErrValidation) {
			t.Fatalf("expected validation error for %v, got %v", bad, err)
		}
	}
}

func TestDailyAndProfitReports(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()
	cotton := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton"})
	denim := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Denim"})

	if _, err := svc.CreateSupplierInventory(ctx, domain.SupplierInventoryCreateRequest{
		SupplierName: "Acme", VarietyID: cotton.ID, Quantity: dec("10"), PricePerItem: dec("50"), SupplyDate: testDay,
	}); err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	for _, sale := range []domain.SaleCreateRequest{
		{SalespersonName: "Asha", VarietyID: cotton.ID, Quantity: dec("2"), SellingPrice: dec("80"), CostPrice: decPtr("50"), SaleDate: testDay},
		{SalespersonName: "Ravi", VarietyID: denim.ID, Quantity: dec("1"), SellingPrice: dec("200"), CostPrice: decPtr("150"), SaleDate: testDay},
	} {
		if _, err := svc.CreateSale(ctx, sale); err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}

	daily, err := svc.DailyReport(ctx, testDay)
	if err != nil {
		t.Fatalf("daily report: %v", err)
	}
	// 500 supplied minus (360 revenue - 110 profit) cost of goods.
	assertDecimal(t, "net_inventory_value", daily.NetInventoryValue, "250")

	profit, err := svc.ProfitReport(ctx, testDay)
	if err != nil {
		t.Fatalf("profit report: %v", err)
	}
	assertDecimal(t, "total_profit", profit.TotalProfit, "110")
	if len(profit.ProfitByVariety) != 2 || profit.ProfitByVariety[1].VarietyName != "Denim" {
		t.Fatalf("unexpected variety breakdown %+v", profit.ProfitByVariety)
	}
	if len(profit.ProfitBySalesperson) != 2 || profit.ProfitBySalesperson[0].SalespersonName != "Asha" {
		t.Fatalf("unexpected salesperson breakdown %+v", profit.ProfitBySalesperson)
	}
}

func TestDeleteVarietyCascades(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	cotton := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton"})
	denim := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Denim"})

	for _, id := range []int64{cotton.ID, denim.ID} {
		if _, err := svc.CreateSupplierInventory(ctx, domain.SupplierInventoryCreateRequest{
			SupplierName: "Acme", VarietyID: id, Quantity: dec("1"), PricePerItem: dec("10"), SupplyDate: testDay,
		}); err != nil {
			t.Fatalf("create inventory: %v", err)
		}
		if _, err := svc.CreateSupplierReturn(ctx, domain.SupplierReturnCreateRequest{
			SupplierName: "Acme", VarietyID: id, Quantity: dec("1"), PricePerItem: dec("10"), ReturnDate: testDay,
		}); err != nil {
			t.Fatalf("create return: %v", err)
		}
		if _, err := svc.CreateSale(ctx, domain.SaleCreateRequest{
			SalespersonName: "Asha", VarietyID: id, Quantity: dec("1"), SellingPrice: dec("20"), CostPrice: decPtr("10"), SaleDate: testDay,
		}); err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}

	if err := svc.DeleteVariety(staffCtx(), cotton.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected staff delete to be forbidden, got %v", err)
	}
	if err := svc.DeleteVariety(ctx, cotton.ID); err != nil {
		t.Fatalf("delete variety: %v", err)
	}
	if err := svc.DeleteVariety(ctx, cotton.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	inventory, _ := svc.ListSupplierInventory(ctx, domain.Date{})
	returns, _ := svc.ListSupplierReturns(ctx, domain.Date{})
	sales, _ := svc.ListSales(ctx, domain.Date{}, "")
	if len(inventory) != 1 || len(returns) != 1 || len(sales) != 1 {
		t.Fatalf("expected only denim rows to survive, got inventory=%d returns=%d sales=%d", len(inventory), len(returns), len(sales))
	}
	if inventory[0].VarietyID != denim.ID || sales[0].VarietyID != denim.ID {
		t.Fatalf("expected surviving rows to reference denim")
	}
}

func TestDeleteSaleAffectsOnlyThatRow(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	cotton := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton"})

	first, err := svc.CreateSale(ctx, domain.SaleCreateRequest{SalespersonName: "Asha", VarietyID: cotton.ID, Quantity: dec("1"), SellingPrice: dec("20"), CostPrice: decPtr("10"), SaleDate: testDay})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if _, err := svc.CreateSale(ctx, domain.SaleCreateRequest{SalespersonName: "Asha", VarietyID: cotton.ID, Quantity: dec("1"), SellingPrice: dec("20"), CostPrice: decPtr("10"), SaleDate: testDay}); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	if err := svc.DeleteSale(ctx, first.ID); err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if _, err := svc.GetSale(ctx, first.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected deleted sale to be gone, got %v", err)
	}
	if _, err := svc.GetVariety(ctx, cotton.ID); err != nil {
		t.Fatalf("expected variety to survive, got %v", err)
	}
	remaining, _ := svc.ListSales(ctx, testDay, "Asha")
	if len(remaining) != 1 {
		t.Fatalf("expected one remaining sale, got %d", len(remaining))
	}
}

func TestVarietyMeasurementRules(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()

	if _, err := svc.CreateVariety(ctx, domain.VarietyCreateRequest{Name: "Wool", MeasurementUnit: "pieces", StandardLength: decPtr("2")}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for length on pieces, got %v", err)
	}
	if _, err := svc.CreateVariety(ctx, domain.VarietyCreateRequest{Name: "Wool", MeasurementUnit: "furlongs"}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for unknown unit, got %v", err)
	}
	if _, err := svc.CreateVariety(ctx, domain.VarietyCreateRequest{Name: "   "}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}

	silk := mustVariety(t, svc, domain.VarietyCreateRequest{Name: " Silk ", MeasurementUnit: "Meters", StandardLength: decPtr("5.5")})
	if silk.Name != "Silk" || silk.Measurement.Unit() != domain.UnitMeters {
		t.Fatalf("unexpected variety %+v", silk)
	}

	yards := "yards"
	updated, err := svc.UpdateVariety(ctx, silk.ID, domain.VarietyUpdateRequest{MeasurementUnit: &yards})
	if err != nil {
		t.Fatalf("switch to yards: %v", err)
	}
	if length, ok := updated.Measurement.StandardLength(); !ok || !length.Equal(dec("5.5")) {
		t.Fatalf("expected length to survive unit change, got %v %v", length, ok)
	}

	pieces := "pieces"
	updated, err = svc.UpdateVariety(ctx, silk.ID, domain.VarietyUpdateRequest{MeasurementUnit: &pieces})
	if err != nil {
		t.Fatalf("switch to pieces: %v", err)
	}
	if _, ok := updated.Measurement.StandardLength(); ok {
		t.Fatalf("expected pieces to clear standard length")
	}

	if _, err := svc.UpdateVariety(ctx, silk.ID, domain.VarietyUpdateRequest{StandardLength: decPtr("3")}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for length onto pieces, got %v", err)
	}

	mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton"})
	clash := "Cotton"
	if _, err := svc.UpdateVariety(ctx, silk.ID, domain.VarietyUpdateRequest{Name: &clash}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on rename, got %v", err)
	}
	current, _ := svc.GetVariety(ctx, silk.ID)
	if current.Name != "Silk" {
		t.Fatalf("expected failed rename to leave record unchanged, got %q", current.Name)
	}

	if _, err := svc.CreateVariety(staffCtx(), domain.VarietyCreateRequest{Name: "Velvet"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected staff create to be forbidden, got %v", err)
	}
}

func TestCreateRejectsNonPositiveAndOverPreciseValues(t *testing.T) {
	svc := newTestService()
	ctx := staffCtx()
	cotton := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton"})

	cases := []domain.SupplierInventoryCreateRequest{
		{SupplierName: "Acme", VarietyID: cotton.ID, Quantity: dec("0"), PricePerItem: dec("1"), SupplyDate: testDay},
		{SupplierName: "Acme", VarietyID: cotton.ID, Quantity: dec("1"), PricePerItem: dec("-1"), SupplyDate: testDay},
		{SupplierName: "Acme", VarietyID: cotton.ID, Quantity: dec("1"), PricePerItem: dec("1.005"), SupplyDate: testDay},
		{SupplierName: " ", VarietyID: cotton.ID, Quantity: dec("1"), PricePerItem: dec("1"), SupplyDate: testDay},
		{SupplierName: "Acme", VarietyID: cotton.ID, Quantity: dec("1"), PricePerItem: dec("1")},
		{SupplierName: strings.Repeat("a", 101), VarietyID: cotton.ID, Quantity: dec("1"), PricePerItem: dec("1"), SupplyDate: testDay},
	}
	for i, req := range cases {
		if _, err := svc.CreateSupplierInventory(ctx, req); !errors.Is(err, store.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if _, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "Rent", Amount: dec("0"), ExpenseDate: testDay}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected validation error for zero expense, got %v", err)
	}
}

func TestAuditLogRecordsMutations(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton"})

	logs, err := svc.ListAuditLogs(ctx, domain.DateOf(time.Now().UTC()), 10)
	if err != nil {
		t.Fatalf("list audit logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != "variety_create" || logs[0].ActorUsername != "admin" {
		t.Fatalf("unexpected audit logs %+v", logs)
	}
	if _, err := svc.ListAuditLogs(staffCtx(), domain.Date{}, 10); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected staff audit access to be forbidden, got %v", err)
	}
}

// generationCache mirrors the redis key scheme in memory.
type generationCache struct {
	generation int
	entries    map[string][]byte
	hits       int
}

func newGenerationCache() *generationCache {
	return &generationCache{entries: map[string][]byte{}}
}

func (c *generationCache) Key(_ context.Context, name string) (string, error) {
	return fmt.Sprintf("%d:%s", c.generation, name), nil
}

func (c *generationCache) Get(_ context.Context, key string, dest any) (bool, error) {
	payload, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(payload, dest)
}

func (c *generationCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = payload
	return nil
}

func (c *generationCache) Invalidate(_ context.Context) error {
	c.generation++
	return nil
}

func TestCachedReportIsNeverServedAfterMutation(t *testing.T) {
	reports := newGenerationCache()
	svc := New(memory.NewSeeded(), reports, time.Minute, nil)
	ctx := adminCtx()
	cotton := mustVariety(t, svc, domain.VarietyCreateRequest{Name: "Cotton"})

	sale := domain.SaleCreateRequest{SalespersonName: "Asha", VarietyID: cotton.ID, Quantity: dec("1"), SellingPrice: dec("20"), CostPrice: decPtr("10"), SaleDate: testDay}
	if _, err := svc.CreateSale(ctx, sale); err != nil {
		t.Fatalf("create sale: %v", err)
	}

	first, err := svc.DailySalesSummary(ctx, testDay)
	if err != nil {
		t.Fatalf("first summary: %v", err)
	}
	again, err := svc.DailySalesSummary(ctx, testDay)
	if err != nil {
		t.Fatalf("cached summary: %v", err)
	}
	if reports.hits != 1 || !again.TotalSalesAmount.Equal(first.TotalSalesAmount) {
		t.Fatalf("expected one cache hit with identical totals, hits=%d", reports.hits)
	}

	if _, err := svc.CreateSale(ctx, sale); err != nil {
		t.Fatalf("create second sale: %v", err)
	}
	after, err := svc.DailySalesSummary(ctx, testDay)
	if err != nil {
		t.Fatalf("summary after write: %v", err)
	}
	if after.SalesCount != 2 {
		t.Fatalf("expected fresh summary with 2 sales, got %d", after.SalesCount)
	}
	assertDecimal(t, "total_sales_amount", after.TotalSalesAmount, "40")
}
