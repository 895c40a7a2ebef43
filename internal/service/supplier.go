package service

import (
	"context"
	"fmt"
	"strings"

	"clothshop/backend/internal/domain"
	"clothshop/backend/internal/store"
)

func (s *Service) CreateSupplierInventory(ctx context.Context, req domain.SupplierInventoryCreateRequest) (domain.SupplierInventory, error) {
	supplier, err := s.validateMovement(ctx, req.SupplierName, req.VarietyID)
	if err != nil {
		return domain.SupplierInventory{}, err
	}
	if err := requirePositive("quantity", req.Quantity); err != nil {
		return domain.SupplierInventory{}, err
	}
	if err := requirePositive("price_per_item", req.PricePerItem); err != nil {
		return domain.SupplierInventory{}, err
	}
	if err := requireDate("supply_date", req.SupplyDate); err != nil {
		return domain.SupplierInventory{}, err
	}

	created, err := s.repo.CreateSupplierInventory(ctx, domain.SupplierInventory{
		SupplierName: supplier,
		VarietyID:    req.VarietyID,
		Quantity:     req.Quantity,
		PricePerItem: req.PricePerItem,
		TotalAmount:  req.Quantity.Mul(req.PricePerItem),
		SupplyDate:   req.SupplyDate,
	})
	if err != nil {
		return domain.SupplierInventory{}, err
	}

	s.afterWrite(ctx, "inventory_create", "supplier_inventory", created.ID,
		fmt.Sprintf("supplier=%s,variety=%d,total=%s", created.SupplierName, created.VarietyID, created.TotalAmount))
	return *created, nil
}

func (s *Service) GetSupplierInventory(ctx context.Context, id int64) (domain.SupplierInventory, error) {
	record, err := s.repo.GetSupplierInventory(ctx, id)
	if err != nil {
		return domain.SupplierInventory{}, err
	}
	return *record, nil
}

// ListSupplierInventory lists every record, or one day's when date is set.
func (s *Service) ListSupplierInventory(ctx context.Context, date domain.Date) ([]domain.SupplierInventory, error) {
	return s.repo.ListSupplierInventory(ctx, dayOrAll(date))
}

func (s *Service) DeleteSupplierInventory(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteSupplierInventory(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, "inventory_delete", "supplier_inventory", id, "")
	return nil
}

func (s *Service) CreateSupplierReturn(ctx context.Context, req domain.SupplierReturnCreateRequest) (domain.SupplierReturn, error) {
	supplier, err := s.validateMovement(ctx, req.SupplierName, req.VarietyID)
	if err != nil {
		return domain.SupplierReturn{}, err
	}
	if err := requirePositive("quantity", req.Quantity); err != nil {
		return domain.SupplierReturn{}, err
	}
	if err := requirePositive("price_per_item", req.PricePerItem); err != nil {
		return domain.SupplierReturn{}, err
	}
	if err := requireDate("return_date", req.ReturnDate); err != nil {
		return domain.SupplierReturn{}, err
	}

	created, err := s.repo.CreateSupplierReturn(ctx, domain.SupplierReturn{
		SupplierName: supplier,
		VarietyID:    req.VarietyID,
		Quantity:     req.Quantity,
		PricePerItem: req.PricePerItem,
		TotalAmount:  req.Quantity.Mul(req.PricePerItem),
		ReturnDate:   req.ReturnDate,
		Reason:       strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return domain.SupplierReturn{}, err
	}

	s.afterWrite(ctx, "return_create", "supplier_return", created.ID,
		fmt.Sprintf("supplier=%s,variety=%d,total=%s", created.SupplierName, created.VarietyID, created.TotalAmount))
	return *created, nil
}

func (s *Service) GetSupplierReturn(ctx context.Context, id int64) (domain.SupplierReturn, error) {
	record, err := s.repo.GetSupplierReturn(ctx, id)
	if err != nil {
		return domain.SupplierReturn{}, err
	}
	return *record, nil
}

func (s *Service) ListSupplierReturns(ctx context.Context, date domain.Date) ([]domain.SupplierReturn, error) {
	return s.repo.ListSupplierReturns(ctx, dayOrAll(date))
}

func (s *Service) DeleteSupplierReturn(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteSupplierReturn(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, "return_delete", "supplier_return", id, "")
	return nil
}

// validateMovement checks the supplier name and that the variety exists.
func (s *Service) validateMovement(ctx context.Context, supplierName string, varietyID int64) (string, error) {
	supplier, err := requireName("supplier_name", supplierName)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.GetVariety(ctx, varietyID); err != nil {
		return "", err
	}
	return supplier, nil
}

func dayOrAll(date domain.Date) store.Period {
	if date.IsZero() {
		return store.Period{}
	}
	return store.Day(date)
}
