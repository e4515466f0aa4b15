// Package resolver orchestrates effective-rate resolution: Locked and Fixed
// override lookup, then live preview calculation from observations via the
// outlier filter, the aggregator and the rate formation model.
package resolver

import (
	"context"

	"rate-engine/core/types"
)

// ObservationSource supplies raw observations per (profile, region).
// It returns only active rows; region fallback is the resolver's
// responsibility, not the source's.
type ObservationSource interface {
	// FetchActive returns active observations for the profile, filtered to
	// the exact region (nil = global observations only)
	FetchActive(ctx context.Context, profileID int64, regionID *int64) ([]types.Observation, error)
}

// OverrideStore persists rate overrides
type OverrideStore interface {
	// FindLatest returns the latest override for the exact
	// (project, profile, region, state) key, or nil when absent
	FindLatest(ctx context.Context, projectID, profileID int64, regionID *int64, state types.State) (*types.RateOverride, error)

	// Upsert writes an override atomically per (project, profile, region)
	// key. Fixed rows are updated in place; Locked rows are always inserted
	// so earlier locked rows remain as history.
	Upsert(ctx context.Context, override *types.RateOverride) (*types.RateOverride, error)
}

// ProjectStore resolves projects
type ProjectStore interface {
	// GetProject returns the project or a NotFound error
	GetProject(ctx context.Context, projectID int64) (*types.Project, error)
}

// ProfileStore resolves position profiles
type ProfileStore interface {
	// GetProfile returns the profile or a NotFound error
	GetProfile(ctx context.Context, profileID int64) (*types.Profile, error)
}

// RegionStore resolves region display names for justifications
type RegionStore interface {
	// GetRegion returns the region or a NotFound error
	GetRegion(ctx context.Context, regionID int64) (*types.Region, error)
}
