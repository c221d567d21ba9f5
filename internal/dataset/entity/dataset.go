package entity

import "time"

// Summary is the one-pass reduction of accepted rows.
//
// Averages are nil when TotalCount is zero. Values are kept at full
// precision; rounding happens when they are presented.
type Summary struct {
	TotalCount       int
	AvgFlowrate      *float64
	AvgPressure      *float64
	AvgTemperature   *float64
	TypeDistribution map[string]int
}

// Dataset is the persisted aggregate of one upload. It is immutable once
// created; the only allowed mutation is deletion.
type Dataset struct {
	ID               int64
	Name             string
	OriginalFilename string
	UploadedBy       int64
	UploaderName     string
	UploadedAt       time.Time
	RejectedCount    int
	Summary
	PreviewRows []EquipmentRow
	FullRows    []EquipmentRow

	// RawPath is the location of the uploaded bytes in blob storage.
	RawPath string
}
