// Package report renders a dataset summary as a PDF document.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

// SampleRows is the number of equipment rows printed in the report.
const SampleRows = 10

const (
	pageWidth = 180.0
	rowHeight = 7.0
)

type Clock interface {
	Now() time.Time
}

// Renderer builds PDF reports. It is safe for concurrent use.
type Renderer struct {
	clock    Clock
	fontPath string
}

func NewRenderer(clock Clock) *Renderer {
	if clock == nil {
		clock = realClock{}
	}
	return &Renderer{clock: clock}
}

// WithUTF8Font returns a renderer that draws text with the TrueType font at
// path. Without it the core Helvetica font is used, which only covers
// Latin-1 and prints other characters as dots.
func (r *Renderer) WithUTF8Font(path string) *Renderer {
	out := *r
	out.fontPath = path
	return &out
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Render produces the PDF bytes for ds.
func (r *Renderer) Render(ds entity.Dataset) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Dataset %d report", ds.ID), true)
	pdf.SetCreator("chemicalanalyzer", true)
	pdf.SetCreationDate(ds.UploadedAt)
	pdf.SetMargins(15, 15, 15)

	p := r.newPage(pdf)
	pdf.AddPage()

	p.font("B", 18)
	p.cell(pageWidth, 12, "Chemical Equipment Dataset Report", "", 1, "C", false)
	pdf.Ln(6)

	p.heading("Dataset Information")
	p.table([]float64{50, 130}, nil, [][]string{
		{"Dataset Name:", ds.Name},
		{"Upload Date:", formatTime(ds.UploadedAt)},
		{"Original Filename:", orNA(ds.OriginalFilename)},
		{"Uploaded By:", orNA(ds.UploaderName)},
	})

	p.heading("Summary Statistics")
	p.table([]float64{90, 90}, []string{"Metric", "Value"}, [][]string{
		{"Total Equipment Count", strconv.Itoa(ds.TotalCount)},
		{"Average Flowrate", formatAvg(ds.AvgFlowrate)},
		{"Average Pressure", formatAvg(ds.AvgPressure)},
		{"Average Temperature", formatAvg(ds.AvgTemperature)},
	})

	if len(ds.TypeDistribution) > 0 {
		p.heading("Equipment Type Distribution")
		p.table([]float64{110, 70}, []string{"Equipment Type", "Count"}, distributionRows(ds.TypeDistribution))
	}

	sample := sampleRows(ds)
	if len(sample) > 0 {
		p.heading(fmt.Sprintf("Sample Equipment Records (First %d)", SampleRows))
		rows := make([][]string, 0, len(sample))
		for _, row := range sample {
			rows = append(rows, []string{
				orNA(row.EquipmentName),
				orNA(row.Type),
				strconv.FormatFloat(row.Flowrate, 'f', 2, 64),
				strconv.FormatFloat(row.Pressure, 'f', 2, 64),
				strconv.FormatFloat(row.Temperature, 'f', 2, 64),
			})
		}
		p.table([]float64{50, 40, 30, 30, 30},
			[]string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"}, rows)
	}

	pdf.Ln(8)
	p.font("I", 9)
	p.cell(pageWidth, 6, "Report generated on "+formatTime(r.clock.Now()), "", 1, "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	return buf.Bytes(), nil
}

const utf8Family = "body"

// page draws text in one font family, translating it to the font encoding
// and cutting it to the cell width.
type page struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
}

func (r *Renderer) newPage(pdf *fpdf.Fpdf) page {
	if r.fontPath == "" {
		return page{pdf: pdf, family: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor("")}
	}

	for _, style := range []string{"", "B", "I"} {
		pdf.AddUTF8Font(utf8Family, style, r.fontPath)
	}
	return page{pdf: pdf, family: utf8Family, tr: func(s string) string { return s }}
}

func (p page) font(style string, size float64) {
	p.pdf.SetFont(p.family, style, size)
}

func (p page) cell(w, h float64, text, border string, ln int, align string, fill bool) {
	p.pdf.CellFormat(w, h, p.fit(text, w), border, ln, align, fill, 0, "")
}

// fit returns text in the font encoding, shortened with "..." when it does
// not fit within width.
func (p page) fit(text string, width float64) string {
	limit := width - 2*p.pdf.GetCellMargin()
	if out := p.tr(text); p.pdf.GetStringWidth(out) <= limit {
		return out
	}

	runes := []rune(text)
	for len(runes) > 0 && p.pdf.GetStringWidth(p.tr(string(runes)+"...")) > limit {
		runes = runes[:len(runes)-1]
	}
	return p.tr(string(runes) + "...")
}

func (p page) heading(text string) {
	p.font("B", 13)
	p.pdf.SetTextColor(31, 56, 100)
	p.cell(pageWidth, 9, text, "", 1, "L", false)
	p.pdf.SetTextColor(0, 0, 0)
}

func (p page) table(widths []float64, header []string, rows [][]string) {
	if len(header) > 0 {
		p.font("B", 10)
		p.pdf.SetFillColor(220, 226, 240)
		for i, h := range header {
			p.cell(widths[i], rowHeight, h, "1", 0, "C", true)
		}
		p.pdf.Ln(-1)
	}

	p.font("", 10)
	for _, row := range rows {
		for i, text := range row {
			p.cell(widths[i], rowHeight, text, "1", 0, "L", false)
		}
		p.pdf.Ln(-1)
	}
	p.pdf.Ln(5)
}

// sampleRows prefers the full row set and falls back to the preview.
func sampleRows(ds entity.Dataset) []entity.EquipmentRow {
	rows := ds.FullRows
	if len(rows) == 0 {
		rows = ds.PreviewRows
	}
	if len(rows) > SampleRows {
		rows = rows[:SampleRows]
	}
	return rows
}

// distributionRows orders by count descending, then label.
func distributionRows(dist map[string]int) [][]string {
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if dist[keys[i]] != dist[keys[j]] {
			return dist[keys[i]] > dist[keys[j]]
		}
		return keys[i] < keys[j]
	})

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{orNA(k), strconv.Itoa(dist[k])})
	}
	return rows
}

func formatAvg(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("2006-01-02 15:04:05")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
