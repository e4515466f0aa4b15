package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateResult is the transient outcome of resolving an effective rate.
// It is never persisted unless promoted to a RateOverride.
type RateResult struct {
	RatePerHour   decimal.Decimal        `json:"rate_per_hour"`
	Source        Source                 `json:"source"`
	OverrideID    string                 `json:"override_id,omitempty"`
	Sources       SourcesSnapshot        `json:"sources_snapshot,omitempty"`
	Justification *JustificationSnapshot `json:"justification_snapshot,omitempty"`
	Breakdown     ResultBreakdown        `json:"breakdown"`
}

// HasRate reports whether the result carries a usable rate. A None or Error
// result must be surfaced as "rate missing" by callers, never treated as a
// zero-cost line item.
func (r *RateResult) HasRate() bool {
	return r.Source == SourceLocked || r.Source == SourceFixed || r.Source == SourcePreview
}

// ResultBreakdown records how and when the result was produced
type ResultBreakdown struct {
	Kind         Source          `json:"kind"`
	RateValue    decimal.Decimal `json:"rate_value"`
	BaseRate     decimal.Decimal `json:"base_rate,omitempty"`
	Method       Method          `json:"method,omitempty"`
	RateModel    Model           `json:"rate_model,omitempty"`
	FixedAt      *time.Time      `json:"fixed_at,omitempty"`
	LockedAt     *time.Time      `json:"locked_at,omitempty"`
	LockedReason string          `json:"locked_reason,omitempty"`
	Model        *ModelBreakdown `json:"model_breakdown,omitempty"`
	ResolvedAt   time.Time       `json:"resolved_at"`

	// Message explains None and Error results
	Message string `json:"message,omitempty"`
}

// ProfileError maps a bulk-operation failure back to its profile
type ProfileError struct {
	ProfileID  int64  `json:"profile_id"`
	WorkItemID int64  `json:"work_item_id,omitempty"`
	Message    string `json:"message"`
}

// BulkResult reports the outcome of a bulk fix/lock pass
type BulkResult struct {
	CreatedOverrideIDs []string       `json:"created_override_ids"`
	SkippedProfiles    []int64        `json:"skipped_profiles,omitempty"`
	UpdatedWorkCount   int            `json:"updated_work_count"`
	Errors             []ProfileError `json:"errors,omitempty"`
}

// Success reports whether the pass completed with no per-profile errors
func (b *BulkResult) Success() bool {
	return len(b.Errors) == 0
}
