package entity

import "time"

// Insight is generated commentary for a dataset, cached after the first
// successful generation.
type Insight struct {
	DatasetID int64
	Text      string
	Model     string
	CreatedAt time.Time
}

// InsightRequested is published after an upload when insights are prewarmed.
type InsightRequested struct {
	EventID   string
	DatasetID int64
}
