package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"clothshop/backend/internal/domain"
	"clothshop/backend/internal/store"
)

var hundred = decimal.NewFromInt(100)

// cachedReport serves name from the report cache or computes and stores it.
// The key is taken before computing so a concurrent write retires it.
func cachedReport[T any](ctx context.Context, s *Service, name string, compute func(context.Context) (T, error)) (T, error) {
	key, err := s.reports.Key(ctx, name)
	if err != nil {
		s.log.Warn("report cache key failed", zap.String("report", name), zap.Error(err))
		return compute(ctx)
	}

	var cached T
	hit, err := s.reports.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("report cache read failed", zap.String("report", name), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	result, err := compute(ctx)
	if err != nil {
		return result, err
	}
	if err := s.reports.Set(ctx, key, result, s.cacheTTL); err != nil {
		s.log.Warn("report cache write failed", zap.String("report", name), zap.Error(err))
	}
	return result, nil
}

func (s *Service) DailySalesSummary(ctx context.Context, date domain.Date) (domain.DailySalesSummary, error) {
	if err := requireDate("date", date); err != nil {
		return domain.DailySalesSummary{}, err
	}
	return cachedReport(ctx, s, "sales-daily:"+date.String(), func(ctx context.Context) (domain.DailySalesSummary, error) {
		return dailySales(ctx, s.repo, date)
	})
}

func dailySales(ctx context.Context, agg store.Aggregates, date domain.Date) (domain.DailySalesSummary, error) {
	totals, err := agg.SalesTotals(ctx, store.SaleFilter{Period: store.Day(date)})
	if err != nil {
		return domain.DailySalesSummary{}, err
	}
	return domain.DailySalesSummary{
		Date:              date,
		TotalSalesAmount:  totals.Amount,
		TotalProfit:       totals.Profit,
		TotalQuantitySold: totals.Quantity,
		SalesCount:        totals.Count,
	}, nil
}

func (s *Service) SalespersonSummary(ctx context.Context, salesperson string, date domain.Date) (domain.SalespersonSummary, error) {
	name, err := requireText("salesperson_name", salesperson)
	if err != nil {
		return domain.SalespersonSummary{}, err
	}
	if err := requireDate("date", date); err != nil {
		return domain.SalespersonSummary{}, err
	}

	return cachedReport(ctx, s, "salesperson:"+date.String()+":"+name, func(ctx context.Context) (domain.SalespersonSummary, error) {
		totals, err := s.repo.SalesTotals(ctx, store.SaleFilter{Period: store.Day(date), Salesperson: name})
		if err != nil {
			return domain.SalespersonSummary{}, err
		}
		return domain.SalespersonSummary{
			SalespersonName: name,
			Date:            date,
			TotalSales:      totals.Amount,
			TotalProfit:     totals.Profit,
			TotalItemsSold:  totals.Quantity,
			SalesCount:      totals.Count,
		}, nil
	})
}

func (s *Service) DailySupplierSummary(ctx context.Context, date domain.Date) (domain.DailySupplierSummary, error) {
	if err := requireDate("date", date); err != nil {
		return domain.DailySupplierSummary{}, err
	}

	return cachedReport(ctx, s, "supplier-daily:"+date.String(), func(ctx context.Context) (domain.DailySupplierSummary, error) {
		var summary domain.DailySupplierSummary
		err := s.repo.ReadSnapshot(ctx, func(agg store.Aggregates) error {
			var err error
			summary, err = dailySupplier(ctx, agg, date)
			return err
		})
		return summary, err
	})
}

// dailySupplier sums supply and returns separately, then nets them.
func dailySupplier(ctx context.Context, agg store.Aggregates, date domain.Date) (domain.DailySupplierSummary, error) {
	day := store.Day(date)
	supply, err := agg.SupplyTotals(ctx, day)
	if err != nil {
		return domain.DailySupplierSummary{}, err
	}
	returns, err := agg.ReturnTotals(ctx, day)
	if err != nil {
		return domain.DailySupplierSummary{}, err
	}
	return domain.DailySupplierSummary{
		Date:         date,
		TotalSupply:  supply.Amount,
		TotalReturns: returns.Amount,
		NetAmount:    supply.Amount.Sub(returns.Amount),
		SupplyCount:  supply.Count,
		ReturnCount:  returns.Count,
	}, nil
}

func (s *Service) SupplierWiseSummary(ctx context.Context, date domain.Date) (domain.SupplierWiseSummary, error) {
	if err := requireDate("date", date); err != nil {
		return domain.SupplierWiseSummary{}, err
	}

	return cachedReport(ctx, s, "supplier-wise:"+date.String(), func(ctx context.Context) (domain.SupplierWiseSummary, error) {
		var supply, returns []domain.SupplierMovementTotals
		err := s.repo.ReadSnapshot(ctx, func(agg store.Aggregates) error {
			var err error
			day := store.Day(date)
			if supply, err = agg.SupplyBySupplier(ctx, day); err != nil {
				return err
			}
			returns, err = agg.ReturnsBySupplier(ctx, day)
			return err
		})
		if err != nil {
			return domain.SupplierWiseSummary{}, err
		}
		return domain.SupplierWiseSummary{Date: date, Suppliers: mergeSupplierRows(supply, returns)}, nil
	})
}

// mergeSupplierRows keys the result on supply-side suppliers and folds the
// returns into them. Suppliers that only have returns are appended after
// every supply-side supplier with zero supply and a negative net amount.
func mergeSupplierRows(supply []domain.SupplierMovementTotals, returns []domain.SupplierMovementTotals) []domain.SupplierWiseEntry {
	entries := make([]domain.SupplierWiseEntry, 0, len(supply)+len(returns))
	index := make(map[string]int, len(supply))
	for _, row := range supply {
		index[row.SupplierName] = len(entries)
		entries = append(entries, domain.SupplierWiseEntry{
			SupplierName:   row.SupplierName,
			TotalSupply:    row.Amount,
			SupplyQuantity: row.Quantity,
			SupplyRecords:  row.Count,
			NetAmount:      row.Amount,
		})
	}

	for _, row := range returns {
		i, ok := index[row.SupplierName]
		if !ok {
			entries = append(entries, domain.SupplierWiseEntry{
				SupplierName:   row.SupplierName,
				TotalReturns:   row.Amount,
				ReturnQuantity: row.Quantity,
				ReturnRecords:  row.Count,
				NetAmount:      row.Amount.Neg(),
			})
			continue
		}
		entry := &entries[i]
		entry.TotalReturns = row.Amount
		entry.ReturnQuantity = row.Quantity
		entry.ReturnRecords = row.Count
		entry.NetAmount = entry.NetAmount.Sub(row.Amount)
	}
	return entries
}

func (s *Service) ExpenseSummary(ctx context.Context, date domain.Date) (domain.ExpenseSummary, error) {
	if err := requireDate("date", date); err != nil {
		return domain.ExpenseSummary{}, err
	}

	return cachedReport(ctx, s, "expenses-daily:"+date.String(), func(ctx context.Context) (domain.ExpenseSummary, error) {
		rows, err := s.repo.ExpensesByCategory(ctx, store.Day(date))
		if err != nil {
			return domain.ExpenseSummary{}, err
		}

		summary := domain.ExpenseSummary{
			Date:              date,
			CategoryBreakdown: make(map[string]decimal.Decimal, len(rows)),
		}
		for _, row := range rows {
			summary.CategoryBreakdown[row.Category] = row.Amount
			summary.TotalExpenses = summary.TotalExpenses.Add(row.Amount)
			summary.ExpenseCount += row.Count
		}
		return summary, nil
	})
}

func (s *Service) FinancialReport(ctx context.Context, year int, month int) (domain.FinancialReport, error) {
	period, err := MonthPeriod(year, month)
	if err != nil {
		return domain.FinancialReport{}, err
	}

	return cachedReport(ctx, s, fmt.Sprintf("financial:%04d-%02d", year, month), func(ctx context.Context) (domain.FinancialReport, error) {
		var sales domain.SalesTotals
		var categories []domain.CategoryTotal
		err := s.repo.ReadSnapshot(ctx, func(agg store.Aggregates) error {
			var err error
			if sales, err = agg.SalesTotals(ctx, store.SaleFilter{Period: period}); err != nil {
				return err
			}
			categories, err = agg.ExpensesByCategory(ctx, period)
			return err
		})
		if err != nil {
			return domain.FinancialReport{}, err
		}

		expenses := decimal.Zero
		for _, row := range categories {
			expenses = expenses.Add(row.Amount)
		}

		return domain.FinancialReport{
			Year:          year,
			Month:         month,
			PeriodStart:   period.From,
			PeriodEnd:     period.LastDay(),
			TotalRevenue:  sales.Amount,
			TotalProfit:   sales.Profit,
			TotalExpenses: expenses,
			NetIncome:     sales.Profit.Sub(expenses),
			ProfitMargin:  percentOf(sales.Profit, sales.Amount),
			ExpenseRatio:  percentOf(expenses, sales.Amount),
		}, nil
	})
}

// percentOf is part/whole × 100 rounded to 2 places, and 0 for a zero whole.
func percentOf(part decimal.Decimal, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(hundred).Round(2).InexactFloat64()
}

func (s *Service) DailyReport(ctx context.Context, date domain.Date) (domain.DailyReport, error) {
	if err := requireDate("date", date); err != nil {
		return domain.DailyReport{}, err
	}

	return cachedReport(ctx, s, "daily:"+date.String(), func(ctx context.Context) (domain.DailyReport, error) {
		report := domain.DailyReport{Date: date}
		err := s.repo.ReadSnapshot(ctx, func(agg store.Aggregates) error {
			var err error
			if report.SupplierSummary, err = dailySupplier(ctx, agg, date); err != nil {
				return err
			}
			report.SalesSummary, err = dailySales(ctx, agg, date)
			return err
		})
		if err != nil {
			return domain.DailyReport{}, err
		}

		sales := report.SalesSummary
		costOfGoods := sales.TotalSalesAmount.Sub(sales.TotalProfit)
		report.NetInventoryValue = report.SupplierSummary.NetAmount.Sub(costOfGoods)
		return report, nil
	})
}

func (s *Service) ProfitReport(ctx context.Context, date domain.Date) (domain.ProfitReport, error) {
	if err := requireDate("date", date); err != nil {
		return domain.ProfitReport{}, err
	}

	return cachedReport(ctx, s, "profit:"+date.String(), func(ctx context.Context) (domain.ProfitReport, error) {
		report := domain.ProfitReport{Date: date}
		err := s.repo.ReadSnapshot(ctx, func(agg store.Aggregates) error {
			var err error
			day := store.Day(date)
			if report.ProfitByVariety, err = agg.SalesByVariety(ctx, day); err != nil {
				return err
			}
			report.ProfitBySalesperson, err = agg.SalesBySalesperson(ctx, day)
			return err
		})
		if err != nil {
			return domain.ProfitReport{}, err
		}

		if report.ProfitByVariety == nil {
			report.ProfitByVariety = []domain.VarietyProfit{}
		}
		if report.ProfitBySalesperson == nil {
			report.ProfitBySalesperson = []domain.SalespersonProfit{}
		}
		for _, row := range report.ProfitByVariety {
			report.TotalProfit = report.TotalProfit.Add(row.TotalProfit)
		}
		return report, nil
	})
}
