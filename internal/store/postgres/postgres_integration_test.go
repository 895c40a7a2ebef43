package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"clothshop/backend/internal/domain"
	"clothshop/backend/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("CLOTHSHOP_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set CLOTHSHOP_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestDeleteVarietyCascadesToMovementsAndSales(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	name := fmt.Sprintf("Cotton IT %d", time.Now().UnixNano())
	length := decimal.RequireFromString("2.5")
	measurement, err := domain.NewMeasurement(domain.UnitMeters, &length)
	if err != nil {
		t.Fatalf("measurement: %v", err)
	}
	variety, err := s.CreateVariety(ctx, domain.Variety{Name: name, Measurement: measurement})
	if err != nil {
		t.Fatalf("create variety: %v", err)
	}
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cloth_varieties WHERE id = $1`, variety.ID)
	})

	if _, err := s.CreateVariety(ctx, domain.Variety{Name: name, Measurement: domain.PiecesMeasurement()}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on duplicate name, got %v", err)
	}

	day := domain.NewDate(2031, time.March, 4)
	qty := decimal.NewFromInt(10)
	price := decimal.NewFromInt(100)
	inv, err := s.CreateSupplierInventory(ctx, domain.SupplierInventory{
		SupplierName: "IT Supplier", VarietyID: variety.ID, Quantity: qty, PricePerItem: price,
		TotalAmount: qty.Mul(price), SupplyDate: day,
	})
	if err != nil {
		t.Fatalf("create inventory: %v", err)
	}
	sale, err := s.CreateSale(ctx, domain.Sale{
		SalespersonName: "IT Seller", VarietyID: variety.ID, Quantity: decimal.NewFromInt(2),
		SellingPrice: decimal.NewFromInt(150), CostPrice: price, Profit: decimal.NewFromInt(100), SaleDate: day,
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	err = s.ReadSnapshot(ctx, func(agg store.Aggregates) error {
		totals, err := agg.SalesTotals(ctx, store.SaleFilter{Period: store.Day(day), Salesperson: "IT Seller"})
		if err != nil {
			return err
		}
		if totals.Count != 1 || !totals.Amount.Equal(decimal.NewFromInt(300)) {
			return fmt.Errorf("unexpected sales totals %+v", totals)
		}
		supply, err := agg.SupplyTotals(ctx, store.Day(day))
		if err != nil {
			return err
		}
		if supply.Count < 1 {
			return fmt.Errorf("expected supply rows, got %+v", supply)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if err := s.DeleteVariety(ctx, variety.ID); err != nil {
		t.Fatalf("delete variety: %v", err)
	}
	if _, err := s.GetSupplierInventory(ctx, inv.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected inventory cascade, got %v", err)
	}
	if _, err := s.GetSale(ctx, sale.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected sale cascade, got %v", err)
	}
}

func TestCreateSaleForUnknownVarietyIsNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateSale(ctx, domain.Sale{
		SalespersonName: "Nobody", VarietyID: 999999999, Quantity: decimal.NewFromInt(1),
		SellingPrice: decimal.NewFromInt(1), CostPrice: decimal.NewFromInt(1), Profit: decimal.Zero,
		SaleDate: domain.NewDate(2031, time.March, 4),
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
