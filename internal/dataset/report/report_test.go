package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

func TestRenderProducesPDF(t *testing.T) {
	avg := 112.9
	ds := entity.Dataset{
		ID:               42,
		Name:             "Plant A",
		OriginalFilename: "plant.csv",
		UploaderName:     "operator",
		UploadedAt:       time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Summary: entity.Summary{
			TotalCount:       2,
			AvgFlowrate:      &avg,
			TypeDistribution: map[string]int{"Pump": 1, "Valve": 1},
		},
		FullRows: []entity.EquipmentRow{
			{EquipmentName: "Pump-001", Type: "Pump", Flowrate: 150.5, Pressure: 2.5, Temperature: 85.2},
			{EquipmentName: "Valve-A12", Type: "Valve", Flowrate: 75.3, Pressure: 1.8, Temperature: 45.7},
		},
	}

	out, err := NewRenderer(fixedClock{now: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}).Render(ds)
	if err != nil {
		t.Fatalf("Render() err = %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:8])
	}
	if !bytes.Contains(out, []byte("%%EOF")) {
		t.Fatal("output is missing the PDF trailer")
	}
}

func TestRenderHandlesEmptyAggregate(t *testing.T) {
	out, err := NewRenderer(nil).Render(entity.Dataset{ID: 1, Name: "empty"})
	if err != nil {
		t.Fatalf("Render() err = %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected output")
	}
}

func TestHelpers(t *testing.T) {
	if got := formatAvg(nil); got != "N/A" {
		t.Fatalf("formatAvg(nil) = %q", got)
	}
	v := 2.145
	if got := formatAvg(&v); got != "2.15" && got != "2.14" {
		t.Fatalf("formatAvg = %q", got)
	}

	rows := distributionRows(map[string]int{"Valve": 1, "Pump": 3, "": 1})
	if rows[0][0] != "Pump" || rows[1][0] != "N/A" || rows[2][0] != "Valve" {
		t.Fatalf("unexpected order: %v", rows)
	}

	many := make([]entity.EquipmentRow, 25)
	if got := sampleRows(entity.Dataset{PreviewRows: many}); len(got) != SampleRows {
		t.Fatalf("expected %d sample rows, got %d", SampleRows, len(got))
	}
}

func TestFitShortensLongCells(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	p := NewRenderer(nil).newPage(pdf)
	pdf.AddPage()
	p.font("", 10)

	if got := p.fit("Pump", 40); got != "Pump" {
		t.Fatalf("short text changed: %q", got)
	}

	long := strings.Repeat("Centrifugal Feed Pump ", 6)
	got := p.fit(long, 40)
	if !strings.HasSuffix(got, "...") || len(got) >= len(long) {
		t.Fatalf("expected shortened text, got %q", got)
	}
	if w := pdf.GetStringWidth(got); w > 40-2*pdf.GetCellMargin() {
		t.Fatalf("shortened text still too wide: %.2f", w)
	}
}

func TestRenderLongLabels(t *testing.T) {
	long := strings.Repeat("Heat Exchanger Shell Side ", 8)
	ds := entity.Dataset{
		ID:      7,
		Name:    long,
		Summary: entity.Summary{TotalCount: 1, TypeDistribution: map[string]int{long: 1}},
		FullRows: []entity.EquipmentRow{
			{EquipmentName: long, Type: long, Flowrate: 1, Pressure: 1, Temperature: 1},
		},
	}

	out, err := NewRenderer(nil).Render(ds)
	if err != nil || !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("Render() err = %v", err)
	}
}

func TestRenderMissingFontFails(t *testing.T) {
	_, err := NewRenderer(nil).WithUTF8Font("/nonexistent/font.ttf").Render(entity.Dataset{ID: 1, Name: "x"})
	if err == nil {
		t.Fatal("expected an error for a missing font file")
	}
}
