package types

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// RateOverride is a persisted rate snapshot for a (project, profile, region)
// key. Fixed rows are updated in place; Locked rows are never mutated, only
// superseded by newer Locked rows (latest LockedAt wins).
type RateOverride struct {
	ID                string                `json:"id"`
	ProjectID         int64                 `json:"project_id"`
	ProfileID         int64                 `json:"profile_id"`
	RegionID          *int64                `json:"region_id,omitempty"`
	RateValue         decimal.Decimal       `json:"rate_value"`
	State             State                 `json:"state"`
	LockedReason      string                `json:"locked_reason,omitempty"`
	FixedAt           time.Time             `json:"fixed_at"`
	LockedAt          *time.Time            `json:"locked_at,omitempty"`
	CalculationMethod Method                `json:"calculation_method"`
	Sources           SourcesSnapshot       `json:"sources_snapshot"`
	Justification     JustificationSnapshot `json:"justification_snapshot"`
	RateModel         Model                 `json:"rate_model"`
	ModelParams       ModelParams           `json:"model_params"`
	ModelBreakdown    ModelBreakdown        `json:"model_breakdown"`
}

// IsLocked reports whether the override is audit-protected
func (o *RateOverride) IsLocked() bool {
	return o.State == StateLocked
}

// Key returns the logical (project, profile, region) key as a string
func (o *RateOverride) Key() string {
	return OverrideKey(o.ProjectID, o.ProfileID, o.RegionID)
}

// OverrideKey builds the logical key string for a (project, profile, region)
// triple. A nil region maps to "-" so global and regional keys never collide.
func OverrideKey(projectID, profileID int64, regionID *int64) string {
	region := "-"
	if regionID != nil {
		region = strconv.FormatInt(*regionID, 10)
	}
	return strconv.FormatInt(projectID, 10) + "/" +
		strconv.FormatInt(profileID, 10) + "/" + region
}
