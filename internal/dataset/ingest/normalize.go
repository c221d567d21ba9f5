package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Field is a canonical column name.
type Field string

const (
	FieldUnknown       Field = ""
	FieldEquipmentName Field = "equipment_name"
	FieldType          Field = "type"
	FieldFlowrate      Field = "flowrate"
	FieldPressure      Field = "pressure"
	FieldTemperature   Field = "temperature"
)

// CanonicalFields lists every required column in display order.
var CanonicalFields = []Field{
	FieldEquipmentName,
	FieldType,
	FieldFlowrate,
	FieldPressure,
	FieldTemperature,
}

// Label is the human readable column name used in error messages.
func (f Field) Label() string {
	switch f {
	case FieldEquipmentName:
		return "Equipment Name"
	case FieldType:
		return "Type"
	case FieldFlowrate:
		return "Flowrate"
	case FieldPressure:
		return "Pressure"
	case FieldTemperature:
		return "Temperature"
	default:
		return "unknown"
	}
}

var aliases = map[string]Field{
	"equipment_name": FieldEquipmentName,
	"equipmentname":  FieldEquipmentName,
	"equipment":      FieldEquipmentName,
	"name":           FieldEquipmentName,
	"type":           FieldType,
	"equipment_type": FieldType,
	"equipmenttype":  FieldType,
	"flowrate":       FieldFlowrate,
	"flow_rate":      FieldFlowrate,
	"flow":           FieldFlowrate,
	"pressure":       FieldPressure,
	"temperature":    FieldTemperature,
	"temp":           FieldTemperature,
}

// NormalizeHeader maps a raw header cell to its canonical field, or
// FieldUnknown when no alias matches.
func NormalizeHeader(raw string) Field {
	return aliases[normalizeKey(raw)]
}

// normalizeKey trims, case folds, drops a trailing unit such as "(L/min)" and
// collapses runs of whitespace, underscores and hyphens into one underscore.
func normalizeKey(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.LastIndexByte(s, '('); i > 0 && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[:i])
	}

	// Caser is stateful, so one per call.
	s = cases.Fold().String(s)

	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == '_' || r == '-' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('_')
		}
		sep = false
		b.WriteRune(r)
	}

	return b.String()
}

// Columns holds the record index of each canonical field.
type Columns struct {
	index map[Field]int
}

// Index returns the record position of f.
func (c Columns) Index(f Field) int {
	return c.index[f]
}

// SchemaError reports required columns absent from the header.
type SchemaError struct {
	Missing []Field
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + e.MissingLabels()
}

// MissingLabels joins the missing columns' labels.
func (e *SchemaError) MissingLabels() string {
	labels := make([]string, 0, len(e.Missing))
	for _, f := range e.Missing {
		labels = append(labels, f.Label())
	}
	return strings.Join(labels, ", ")
}

// ResolveColumns maps a header record to canonical column positions. The
// first header matching a field wins; unknown headers are ignored.
func ResolveColumns(header []string) (Columns, error) {
	index := make(map[Field]int, len(CanonicalFields))
	for i, h := range header {
		f := NormalizeHeader(h)
		if f == FieldUnknown {
			continue
		}
		if _, ok := index[f]; !ok {
			index[f] = i
		}
	}

	var missing []Field
	for _, f := range CanonicalFields {
		if _, ok := index[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return Columns{}, &SchemaError{Missing: missing}
	}

	return Columns{index: index}, nil
}

func (c Columns) String() string {
	parts := make([]string, 0, len(CanonicalFields))
	for _, f := range CanonicalFields {
		parts = append(parts, fmt.Sprintf("%s=%d", f, c.index[f]))
	}
	return strings.Join(parts, " ")
}
