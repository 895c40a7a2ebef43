package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type MeasurementUnit string

const (
	UnitPieces MeasurementUnit = "pieces"
	UnitMeters MeasurementUnit = "meters"
	UnitYards  MeasurementUnit = "yards"
)

var (
	ErrUnknownUnit          = errors.New("measurement_unit must be one of pieces, meters, yards")
	ErrLengthOnPieces       = errors.New("standard_length is not allowed for pieces")
	ErrNonPositiveLength    = errors.New("standard_length must be greater than zero")
	ErrStandardLengthFormat = errors.New("standard_length allows at most 2 decimal places")
)

func ParseMeasurementUnit(raw string) (MeasurementUnit, error) {
	unit := MeasurementUnit(strings.ToLower(strings.TrimSpace(raw)))
	switch unit {
	case UnitPieces, UnitMeters, UnitYards:
		return unit, nil
	case "":
		return UnitPieces, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrUnknownUnit, raw)
	}
}

// Measurement pairs a unit with its optional per-piece standard length.
// Values can only be built through NewMeasurement, so a pieces measurement
// never carries a length.
type Measurement struct {
	unit           MeasurementUnit
	standardLength decimal.NullDecimal
}

func NewMeasurement(unit MeasurementUnit, standardLength *decimal.Decimal) (Measurement, error) {
	switch unit {
	case UnitPieces:
		if standardLength != nil {
			return Measurement{}, ErrLengthOnPieces
		}
		return Measurement{unit: UnitPieces}, nil
	case UnitMeters, UnitYards:
	default:
		return Measurement{}, fmt.Errorf("%w: got %q", ErrUnknownUnit, unit)
	}

	m := Measurement{unit: unit}
	if standardLength != nil {
		if !standardLength.IsPositive() {
			return Measurement{}, ErrNonPositiveLength
		}
		if !standardLength.Equal(standardLength.Round(2)) {
			return Measurement{}, ErrStandardLengthFormat
		}
		m.standardLength = decimal.NewNullDecimal(*standardLength)
	}
	return m, nil
}

func PiecesMeasurement() Measurement {
	return Measurement{unit: UnitPieces}
}

func (m Measurement) Unit() MeasurementUnit {
	if m.unit == "" {
		return UnitPieces
	}
	return m.unit
}

func (m Measurement) StandardLength() (decimal.Decimal, bool) {
	return m.standardLength.Decimal, m.standardLength.Valid
}

// NullStandardLength is the nullable column form used by stores.
func (m Measurement) NullStandardLength() decimal.NullDecimal {
	return m.standardLength
}
