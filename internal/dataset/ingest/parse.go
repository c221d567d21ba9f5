package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

// RowError describes why a single row was rejected.
type RowError struct {
	Field Field
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

var (
	errBlank      = fmt.Errorf("blank value")
	errNotFinite  = fmt.Errorf("not a finite number")
	errNotDecimal = fmt.Errorf("not a decimal number")
)

// ParseRow converts one record into an EquipmentRow. Name and type are
// trimmed and may be empty; the three numeric fields must parse as finite
// numbers.
func ParseRow(record []string, cols Columns) (entity.EquipmentRow, error) {
	cell := func(f Field) string {
		i := cols.Index(f)
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	flowrate, err := parseNumber(FieldFlowrate, cell(FieldFlowrate))
	if err != nil {
		return entity.EquipmentRow{}, err
	}

	pressure, err := parseNumber(FieldPressure, cell(FieldPressure))
	if err != nil {
		return entity.EquipmentRow{}, err
	}

	temperature, err := parseNumber(FieldTemperature, cell(FieldTemperature))
	if err != nil {
		return entity.EquipmentRow{}, err
	}

	return entity.EquipmentRow{
		EquipmentName: cell(FieldEquipmentName),
		Type:          cell(FieldType),
		Flowrate:      flowrate,
		Pressure:      pressure,
		Temperature:   temperature,
	}, nil
}

func parseNumber(f Field, value string) (float64, error) {
	if value == "" {
		return 0, &RowError{Field: f, Value: value, Err: errBlank}
	}

	// ParseFloat also reads Go hex floats such as 0x1p3
	if strings.ContainsAny(value, "xX") {
		return 0, &RowError{Field: f, Value: value, Err: errNotDecimal}
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &RowError{Field: f, Value: value, Err: err}
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &RowError{Field: f, Value: value, Err: errNotFinite}
	}

	return v, nil
}
