package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clothshop/backend/internal/domain"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// Period is a half-open range of days [From, To). The zero Period matches
// every row.
type Period struct {
	From domain.Date
	To   domain.Date
}

func Day(d domain.Date) Period {
	return Period{From: d, To: d.AddDays(1)}
}

func Month(year int, month time.Month) Period {
	from := domain.NewDate(year, month, 1)
	return Period{From: from, To: from.AddMonths(1)}
}

func (p Period) IsZero() bool {
	return p.From.IsZero() && p.To.IsZero()
}

func (p Period) Contains(d domain.Date) bool {
	if !p.From.IsZero() && d.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && !d.Before(p.To) {
		return false
	}
	return true
}

// LastDay is the final day covered by a bounded period.
func (p Period) LastDay() domain.Date {
	return p.To.AddDays(-1)
}

type SaleFilter struct {
	Period      Period
	Salesperson string
}

// Aggregates are the read-only grouped queries behind every report.
type Aggregates interface {
	SalesTotals(ctx context.Context, filter SaleFilter) (domain.SalesTotals, error)
	SalesByVariety(ctx context.Context, period Period) ([]domain.VarietyProfit, error)
	SalesBySalesperson(ctx context.Context, period Period) ([]domain.SalespersonProfit, error)
	SupplyTotals(ctx context.Context, period Period) (domain.MovementTotals, error)
	ReturnTotals(ctx context.Context, period Period) (domain.MovementTotals, error)
	SupplyBySupplier(ctx context.Context, period Period) ([]domain.SupplierMovementTotals, error)
	ReturnsBySupplier(ctx context.Context, period Period) ([]domain.SupplierMovementTotals, error)
	ExpensesByCategory(ctx context.Context, period Period) ([]domain.CategoryTotal, error)
}

type Repository interface {
	Aggregates

	// ReadSnapshot runs fn against a consistent read-only view so the
	// sub-queries of one report observe the same rows.
	ReadSnapshot(ctx context.Context, fn func(Aggregates) error) error

	CreateVariety(ctx context.Context, variety domain.Variety) (*domain.Variety, error)
	GetVariety(ctx context.Context, id int64) (*domain.Variety, error)
	ListVarieties(ctx context.Context) ([]domain.Variety, error)
	UpdateVariety(ctx context.Context, variety domain.Variety) (*domain.Variety, error)
	DeleteVariety(ctx context.Context, id int64) error

	CreateSupplierInventory(ctx context.Context, record domain.SupplierInventory) (*domain.SupplierInventory, error)
	GetSupplierInventory(ctx context.Context, id int64) (*domain.SupplierInventory, error)
	ListSupplierInventory(ctx context.Context, period Period) ([]domain.SupplierInventory, error)
	DeleteSupplierInventory(ctx context.Context, id int64) error

	CreateSupplierReturn(ctx context.Context, record domain.SupplierReturn) (*domain.SupplierReturn, error)
	GetSupplierReturn(ctx context.Context, id int64) (*domain.SupplierReturn, error)
	ListSupplierReturns(ctx context.Context, period Period) ([]domain.SupplierReturn, error)
	DeleteSupplierReturn(ctx context.Context, id int64) error

	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	ListSales(ctx context.Context, filter SaleFilter) ([]domain.Sale, error)
	DeleteSale(ctx context.Context, id int64) error

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	GetExpense(ctx context.Context, id int64) (*domain.Expense, error)
	ListExpenses(ctx context.Context, period Period) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

func NotFound(kind string, id int64) error {
	return fmt.Errorf("%w: %s with id %d", ErrNotFound, kind, id)
}
