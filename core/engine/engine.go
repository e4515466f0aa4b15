// Package engine wires the rate engine's components behind its three
// exposed operations: effective-rate resolution, bulk fix/lock, and generic
// aggregation.
package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"rate-engine/core/lock"
	"rate-engine/core/resolver"
	"rate-engine/core/stats"
	"rate-engine/core/types"
)

// Stores bundles the persistence interfaces the engine consumes
type Stores struct {
	Observations resolver.ObservationSource
	Overrides    resolver.OverrideStore
	Projects     resolver.ProjectStore
	Profiles     resolver.ProfileStore
	Regions      resolver.RegionStore
	Works        lock.WorkItemStore
}

// Engine is the in-process rate engine facade
type Engine struct {
	resolver   *resolver.Resolver
	controller *lock.Controller
}

// New creates an Engine over the given stores
func New(stores Stores, opts ...lock.Option) *Engine {
	res := resolver.New(stores.Observations, stores.Overrides, stores.Projects, stores.Profiles, stores.Regions)
	return &Engine{
		resolver:   res,
		controller: lock.New(res, stores.Overrides, stores.Projects, stores.Works, opts...),
	}
}

// ResolveEffectiveRate resolves the effective rate for a
// (project, profile, region) key with Locked > Fixed > Preview priority.
// forcePreview skips persisted overrides and recomputes from observations.
func (e *Engine) ResolveEffectiveRate(ctx context.Context, projectID, profileID int64, regionID *int64, forcePreview bool) (*types.RateResult, error) {
	return e.resolver.Resolve(ctx, projectID, profileID, regionID, forcePreview)
}

// RecalculateAndLock bulk-fixes all profile rates referenced by a project's
// work items and refreshes derived work costs.
func (e *Engine) RecalculateAndLock(ctx context.Context, projectID int64, method types.Method, onlyIfMissing bool) (*types.BulkResult, error) {
	return e.controller.RecalculateAndLock(ctx, projectID, method, onlyIfMissing)
}

// Aggregate computes an aggregated value with diagnostics from raw decimals.
// Generic: reusable for non-rate pricing such as unit-price quote
// aggregation.
func (e *Engine) Aggregate(values []decimal.Decimal, method types.Method, opts ...stats.Option) (*stats.Result, error) {
	return stats.Aggregate(values, method, opts...)
}
