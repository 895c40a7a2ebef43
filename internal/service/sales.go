package service

import (
	"context"
	"fmt"
	"strings"

	"clothshop/backend/internal/domain"
	"clothshop/backend/internal/store"
)

func (s *Service) CreateSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	salesperson, err := requireName("salesperson_name", req.SalespersonName)
	if err != nil {
		return domain.Sale{}, err
	}
	if err := requirePositive("quantity", req.Quantity); err != nil {
		return domain.Sale{}, err
	}
	if err := requirePositive("selling_price", req.SellingPrice); err != nil {
		return domain.Sale{}, err
	}
	if err := requireDate("sale_date", req.SaleDate); err != nil {
		return domain.Sale{}, err
	}

	variety, err := s.repo.GetVariety(ctx, req.VarietyID)
	if err != nil {
		return domain.Sale{}, err
	}

	costPrice := variety.DefaultCostPrice.Decimal
	switch {
	case req.CostPrice != nil:
		costPrice = *req.CostPrice
	case !variety.DefaultCostPrice.Valid:
		return domain.Sale{}, validationError("cost_price is required because variety %d has no default cost price", variety.ID)
	}
	if err := requirePositive("cost_price", costPrice); err != nil {
		return domain.Sale{}, err
	}
	if req.SellingPrice.LessThan(costPrice) {
		return domain.Sale{}, validationError("selling_price must not be below cost_price")
	}

	created, err := s.repo.CreateSale(ctx, domain.Sale{
		SalespersonName: salesperson,
		VarietyID:       variety.ID,
		Quantity:        req.Quantity,
		SellingPrice:    req.SellingPrice,
		CostPrice:       costPrice,
		Profit:          req.SellingPrice.Sub(costPrice).Mul(req.Quantity),
		SaleDate:        req.SaleDate,
	})
	if err != nil {
		return domain.Sale{}, err
	}

	s.afterWrite(ctx, "sale_create", "sale", created.ID,
		fmt.Sprintf("salesperson=%s,variety=%d,profit=%s", created.SalespersonName, created.VarietyID, created.Profit))
	return *created, nil
}

func (s *Service) GetSale(ctx context.Context, id int64) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

// ListSales filters by day and salesperson; zero values match everything.
func (s *Service) ListSales(ctx context.Context, date domain.Date, salesperson string) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx, store.SaleFilter{
		Period:      dayOrAll(date),
		Salesperson: strings.TrimSpace(salesperson),
	})
}

func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteSale(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, "sale_delete", "sale", id, "")
	return nil
}
