package service

import (
	"context"
	"fmt"
	"strings"

	"clothshop/backend/internal/domain"
)

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	category, err := requireText("category", req.Category)
	if err != nil {
		return domain.Expense{}, err
	}
	if err := requirePositive("amount", req.Amount); err != nil {
		return domain.Expense{}, err
	}
	if err := requireDate("expense_date", req.ExpenseDate); err != nil {
		return domain.Expense{}, err
	}

	created, err := s.repo.CreateExpense(ctx, domain.Expense{
		Category:    category,
		Amount:      req.Amount,
		ExpenseDate: req.ExpenseDate,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		return domain.Expense{}, err
	}

	s.afterWrite(ctx, "expense_create", "expense", created.ID, fmt.Sprintf("category=%s,amount=%s", created.Category, created.Amount))
	return *created, nil
}

func (s *Service) GetExpense(ctx context.Context, id int64) (domain.Expense, error) {
	expense, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return domain.Expense{}, err
	}
	return *expense, nil
}

// ListExpensesByDate returns expenses newest date first; the zero date lists
// everything.
func (s *Service) ListExpensesByDate(ctx context.Context, date domain.Date) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx, dayOrAll(date))
}

func (s *Service) ListExpensesByMonth(ctx context.Context, year int, month int) ([]domain.Expense, error) {
	period, err := MonthPeriod(year, month)
	if err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, period)
}

func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, "expense_delete", "expense", id, "")
	return nil
}
