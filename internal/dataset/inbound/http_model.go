package inbound

import (
	"math"
	"net/http"
	"strconv"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

type Row struct {
	EquipmentName string  `json:"equipment_name"`
	Type          string  `json:"type"`
	Flowrate      float64 `json:"flowrate"`
	Pressure      float64 `json:"pressure"`
	Temperature   float64 `json:"temperature"`
}

// TimeLayout is the wire format of uploaded_at, always UTC.
const TimeLayout = "2006-01-02 15:04:05"

// DatasetSummary is the list item shape. Ids are strings so JavaScript
// clients keep full precision.
type DatasetSummary struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	OriginalFilename string         `json:"original_filename"`
	UploadedBy       string         `json:"uploaded_by"`
	UploadedAt       string         `json:"uploaded_at"`
	TotalCount       int            `json:"total_count"`
	AvgFlowrate      *float64       `json:"avg_flowrate"`
	AvgPressure      *float64       `json:"avg_pressure"`
	AvgTemperature   *float64       `json:"avg_temperature"`
	TypeDistribution map[string]int `json:"type_distribution"`
}

type DatasetDetail struct {
	DatasetSummary
	PreviewRows []Row `json:"preview_rows"`
}

type DatasetListResponse []DatasetSummary

type UploadResponse struct {
	DatasetDetail
	RejectedCount int `json:"rejected_count"`
}

func (UploadResponse) StatusCode() int {
	return http.StatusCreated
}

func (UploadResponse) Message() string {
	return "dataset uploaded"
}

type DeletedResponse struct{}

func (DeletedResponse) StatusCode() int {
	return http.StatusNoContent
}

type ReportResponse struct {
	filename string
	content  []byte
}

func (r ReportResponse) ContentType() string { return "application/pdf" }
func (r ReportResponse) Filename() string    { return r.filename }
func (r ReportResponse) Content() []byte     { return r.content }

type CSVResponse struct {
	filename string
	content  []byte
}

func (r CSVResponse) ContentType() string { return "text/csv; charset=utf-8" }
func (r CSVResponse) Filename() string    { return r.filename }
func (r CSVResponse) Content() []byte     { return r.content }

type InsightResponse struct {
	DatasetID string `json:"dataset_id"`
	Insights  string `json:"insights"`
	Cached    bool   `json:"cached"`
}

func toSummary(ds entity.Dataset) DatasetSummary {
	dist := ds.TypeDistribution
	if dist == nil {
		dist = map[string]int{}
	}

	return DatasetSummary{
		ID:               strconv.FormatInt(ds.ID, 10),
		Name:             ds.Name,
		OriginalFilename: ds.OriginalFilename,
		UploadedBy:       ds.UploaderName,
		UploadedAt:       ds.UploadedAt.UTC().Format(TimeLayout),
		TotalCount:       ds.TotalCount,
		AvgFlowrate:      round2(ds.AvgFlowrate),
		AvgPressure:      round2(ds.AvgPressure),
		AvgTemperature:   round2(ds.AvgTemperature),
		TypeDistribution: dist,
	}
}

func toDetail(ds entity.Dataset) DatasetDetail {
	rows := make([]Row, 0, len(ds.PreviewRows))
	for _, row := range ds.PreviewRows {
		rows = append(rows, Row(row))
	}

	return DatasetDetail{DatasetSummary: toSummary(ds), PreviewRows: rows}
}

// round2 rounds for presentation only; nil stays nil.
func round2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*100) / 100
	return &r
}
