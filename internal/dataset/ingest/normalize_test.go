package ingest

import (
	"errors"
	"testing"
)

func TestNormalizeHeaderAliases(t *testing.T) {
	cases := map[string]Field{
		"Equipment Name":     FieldEquipmentName,
		"equipment_name":     FieldEquipmentName,
		"EquipmentName":      FieldEquipmentName,
		"  equipment   name": FieldEquipmentName,
		"Name":               FieldEquipmentName,
		"TYPE":               FieldType,
		"Equipment-Type":     FieldType,
		"Flow Rate":          FieldFlowrate,
		"flowrate":           FieldFlowrate,
		"flow_rate":          FieldFlowrate,
		"Flow":               FieldFlowrate,
		"Flowrate (L/min)":   FieldFlowrate,
		"Pressure":           FieldPressure,
		"Temp":               FieldTemperature,
		"Temperature (°C)":   FieldTemperature,
		"Serial":             FieldUnknown,
		"":                   FieldUnknown,
	}

	for raw, want := range cases {
		if got := NormalizeHeader(raw); got != want {
			t.Fatalf("NormalizeHeader(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestResolveColumnsReportsMissing(t *testing.T) {
	_, err := ResolveColumns([]string{"Equipment Name", "Flowrate", "Pressure", "Notes"})

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if len(schemaErr.Missing) != 2 || schemaErr.Missing[0] != FieldType || schemaErr.Missing[1] != FieldTemperature {
		t.Fatalf("unexpected missing fields: %v", schemaErr.Missing)
	}
	if err.Error() != "missing required columns: Type, Temperature" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestResolveColumnsFirstMatchWins(t *testing.T) {
	cols, err := ResolveColumns([]string{"id", "name", "type", "flow", "flow rate", "pressure", "temperature"})
	if err != nil {
		t.Fatalf("ResolveColumns: %v", err)
	}
	if cols.Index(FieldEquipmentName) != 1 {
		t.Fatalf("unexpected name index: %d", cols.Index(FieldEquipmentName))
	}
	if cols.Index(FieldFlowrate) != 3 {
		t.Fatalf("expected first flowrate column to win, got %d", cols.Index(FieldFlowrate))
	}
	if cols.Index(FieldTemperature) != 6 {
		t.Fatalf("unexpected temperature index: %d", cols.Index(FieldTemperature))
	}
}
