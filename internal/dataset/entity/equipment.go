package entity

// EquipmentRow is one accepted line of an equipment upload.
type EquipmentRow struct {
	EquipmentName string  `json:"equipment_name"`
	Type          string  `json:"type"`
	Flowrate      float64 `json:"flowrate"`
	Pressure      float64 `json:"pressure"`
	Temperature   float64 `json:"temperature"`
}
