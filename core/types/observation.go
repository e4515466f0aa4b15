package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Observation is a single external rate data point used as aggregation input.
// Observations are immutable once created; they are disabled via IsActive,
// never deleted.
type Observation struct {
	ID            int64           `json:"id"`
	ProfileID     int64           `json:"profile_id"`
	RegionID      *int64          `json:"region_id,omitempty"` // nil = global
	RatePerHour   decimal.Decimal `json:"rate_per_hour"`
	ObservedAt    time.Time       `json:"observed_at"`
	SourceLabel   string          `json:"source_label"`
	ReferenceLink string          `json:"reference_link,omitempty"`
	Note          string          `json:"note,omitempty"`
	SortOrder     int             `json:"sort_order"`
	IsActive      bool            `json:"is_active"`
}

// Profile is a labor position profile whose rate is being estimated
type Profile struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Params ModelParams `json:"params"`
}

// Project scopes rate overrides and work items
type Project struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	RegionID *int64 `json:"region_id,omitempty"`
}

// Region is a geographic pricing region
type Region struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// WorkItem is a unit of labor whose cost derives from hours and the
// effective profile rate
type WorkItem struct {
	ID          int64           `json:"id"`
	ProjectID   int64           `json:"project_id"`
	ProfileID   int64           `json:"profile_id"`
	Title       string          `json:"title"`
	Hours       decimal.Decimal `json:"hours"`
	RatePerHour decimal.Decimal `json:"rate_per_hour"`
	CostTotal   decimal.Decimal `json:"cost_total"`
	OverrideID  string          `json:"override_id,omitempty"`
}
