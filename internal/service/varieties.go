package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"clothshop/backend/internal/domain"
)

func (s *Service) ListVarieties(ctx context.Context) ([]domain.Variety, error) {
	return s.repo.ListVarieties(ctx)
}

func (s *Service) GetVariety(ctx context.Context, id int64) (domain.Variety, error) {
	variety, err := s.repo.GetVariety(ctx, id)
	if err != nil {
		return domain.Variety{}, err
	}
	return *variety, nil
}

func (s *Service) CreateVariety(ctx context.Context, req domain.VarietyCreateRequest) (domain.Variety, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Variety{}, err
	}

	name, err := requireName("name", req.Name)
	if err != nil {
		return domain.Variety{}, err
	}
	unit, err := domain.ParseMeasurementUnit(req.MeasurementUnit)
	if err != nil {
		return domain.Variety{}, asValidation(err)
	}
	measurement, err := domain.NewMeasurement(unit, req.StandardLength)
	if err != nil {
		return domain.Variety{}, asValidation(err)
	}
	defaultCost, err := optionalCostPrice(req.DefaultCostPrice)
	if err != nil {
		return domain.Variety{}, err
	}

	created, err := s.repo.CreateVariety(ctx, domain.Variety{
		Name:             name,
		Measurement:      measurement,
		DefaultCostPrice: defaultCost,
		Description:      strings.TrimSpace(req.Description),
	})
	if err != nil {
		return domain.Variety{}, err
	}

	s.afterWrite(ctx, "variety_create", "cloth_variety", created.ID, fmt.Sprintf("name=%s,unit=%s", created.Name, created.Measurement.Unit()))
	return *created, nil
}

func (s *Service) UpdateVariety(ctx context.Context, id int64, req domain.VarietyUpdateRequest) (domain.Variety, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Variety{}, err
	}

	existing, err := s.repo.GetVariety(ctx, id)
	if err != nil {
		return domain.Variety{}, err
	}

	updated := *existing
	if req.Name != nil {
		name, err := requireName("name", *req.Name)
		if err != nil {
			return domain.Variety{}, err
		}
		updated.Name = name
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}

	measurement, err := applyMeasurementUpdate(existing.Measurement, req.MeasurementUnit, req.StandardLength)
	if err != nil {
		return domain.Variety{}, err
	}
	updated.Measurement = measurement

	if req.DefaultCostPrice != nil {
		defaultCost, err := optionalCostPrice(req.DefaultCostPrice)
		if err != nil {
			return domain.Variety{}, err
		}
		updated.DefaultCostPrice = defaultCost
	}

	saved, err := s.repo.UpdateVariety(ctx, updated)
	if err != nil {
		return domain.Variety{}, err
	}

	s.afterWrite(ctx, "variety_update", "cloth_variety", saved.ID, fmt.Sprintf("name=%s,unit=%s", saved.Name, saved.Measurement.Unit()))
	return *saved, nil
}

// applyMeasurementUpdate keeps the stored length unless a new one is given;
// switching to pieces drops it.
func applyMeasurementUpdate(current domain.Measurement, rawUnit *string, length *decimal.Decimal) (domain.Measurement, error) {
	unit := current.Unit()
	if rawUnit != nil {
		parsed, err := domain.ParseMeasurementUnit(*rawUnit)
		if err != nil {
			return domain.Measurement{}, asValidation(err)
		}
		unit = parsed
	}
	if rawUnit == nil && length == nil {
		return current, nil
	}

	nextLength := length
	if nextLength == nil && unit != domain.UnitPieces {
		if stored, ok := current.StandardLength(); ok {
			nextLength = &stored
		}
	}

	measurement, err := domain.NewMeasurement(unit, nextLength)
	if err != nil {
		return domain.Measurement{}, asValidation(err)
	}
	return measurement, nil
}

func (s *Service) DeleteVariety(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteVariety(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, "variety_delete", "cloth_variety", id, "cascade=inventory,returns,sales")
	return nil
}

func optionalCostPrice(value *decimal.Decimal) (decimal.NullDecimal, error) {
	if value == nil {
		return decimal.NullDecimal{}, nil
	}
	if err := requirePositive("default_cost_price", *value); err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(*value), nil
}
