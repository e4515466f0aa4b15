package resolver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rate-engine/core/ratemodel"
	"rate-engine/core/stats"
	"rate-engine/core/types"
	"rate-engine/internal/errors"
	"rate-engine/internal/logging"
)

// Resolver resolves the effective rate for a (project, profile, region) key.
//
// Priority order:
//  1. latest Locked override, exact region match
//  2. latest Fixed override, exact region match
//  3. Preview computed live from observations (with region fallback to
//     global observations)
//
// Missing project/profile is returned as a NotFound error. Any other
// failure is caught at this boundary and reported as a Source=Error result,
// never propagated as a fatal fault.
type Resolver struct {
	observations ObservationSource
	overrides    OverrideStore
	projects     ProjectStore
	profiles     ProfileStore
	regions      RegionStore
	log          *zap.Logger
}

// New creates a Resolver over the given stores
func New(observations ObservationSource, overrides OverrideStore, projects ProjectStore, profiles ProfileStore, regions RegionStore) *Resolver {
	return &Resolver{
		observations: observations,
		overrides:    overrides,
		projects:     projects,
		profiles:     profiles,
		regions:      regions,
		log:          logging.Logger,
	}
}

// Resolve returns the effective rate using the median aggregation method
// for the preview path. forcePreview skips the Locked/Fixed lookup and
// recomputes from observations.
func (r *Resolver) Resolve(ctx context.Context, projectID, profileID int64, regionID *int64, forcePreview bool) (*types.RateResult, error) {
	return r.ResolveWithMethod(ctx, projectID, profileID, regionID, forcePreview, types.MethodMedian)
}

// ResolveWithMethod is Resolve with an explicit aggregation method for the
// preview path. Persisted overrides are returned verbatim regardless of the
// method argument.
func (r *Resolver) ResolveWithMethod(ctx context.Context, projectID, profileID int64, regionID *int64, forcePreview bool, method types.Method) (*types.RateResult, error) {
	project, err := r.projects.GetProject(ctx, projectID)
	if err != nil {
		if errors.IsType(err, errors.TypeNotFound) {
			return nil, err
		}
		return r.errorResult(projectID, profileID, regionID, err), nil
	}

	// Fall back to the project region when the caller passed none
	if regionID == nil {
		regionID = project.RegionID
	}

	if !forcePreview {
		locked, err := r.overrides.FindLatest(ctx, projectID, profileID, regionID, types.StateLocked)
		if err != nil {
			return r.errorResult(projectID, profileID, regionID, err), nil
		}
		if locked != nil {
			r.log.Debug("resolved locked rate",
				zap.Int64("project_id", projectID),
				zap.Int64("profile_id", profileID),
				zap.String("override_id", locked.ID))
			return overrideResult(locked, types.SourceLocked), nil
		}

		fixed, err := r.overrides.FindLatest(ctx, projectID, profileID, regionID, types.StateFixed)
		if err != nil {
			return r.errorResult(projectID, profileID, regionID, err), nil
		}
		if fixed != nil {
			return overrideResult(fixed, types.SourceFixed), nil
		}
	}

	profile, err := r.profiles.GetProfile(ctx, profileID)
	if err != nil {
		if errors.IsType(err, errors.TypeNotFound) {
			return nil, err
		}
		return r.errorResult(projectID, profileID, regionID, err), nil
	}

	result, err := r.preview(ctx, profile, regionID, method)
	if err != nil {
		if errors.IsType(err, errors.TypeNoSources) {
			r.log.Warn("no effective rate found",
				zap.Int64("profile_id", profileID))
			return noneResult(profileID), nil
		}
		r.log.Error("preview calculation failed",
			zap.Int64("project_id", projectID),
			zap.Int64("profile_id", profileID),
			zap.Error(err))
		return r.errorResult(projectID, profileID, regionID, err), nil
	}
	return result, nil
}

// preview computes a live rate from active observations: outlier filter,
// aggregation, then the profile's rate formation model.
func (r *Resolver) preview(ctx context.Context, profile *types.Profile, regionID *int64, method types.Method) (*types.RateResult, error) {
	observations, err := r.observations.FetchActive(ctx, profile.ID, regionID)
	if err != nil {
		return nil, errors.Storage("fetch observations", err)
	}

	// Region fallback applies only to observation lookup
	if len(observations) == 0 && regionID != nil {
		observations, err = r.observations.FetchActive(ctx, profile.ID, nil)
		if err != nil {
			return nil, errors.Storage("fetch global observations", err)
		}
	}

	allRates := make([]decimal.Decimal, 0, len(observations))
	for _, obs := range observations {
		if obs.RatePerHour.GreaterThan(decimal.Zero) {
			allRates = append(allRates, obs.RatePerHour)
		}
	}

	if len(allRates) == 0 {
		return nil, errors.NoSources(profile.ID)
	}

	kept, outliers := stats.RemoveOutliers(allRates)
	agg, err := stats.Aggregate(kept, method)
	if err != nil {
		return nil, err
	}
	baseRate := agg.Aggregated

	modelResult, err := ratemodel.Calculate(baseRate, profile.Params)
	if err != nil {
		return nil, err
	}

	volatility := stats.Volatility(allRates)
	warnings := calculationWarnings(volatility, len(kept), agg.FallbackNote)

	excluded := make([]types.ExcludedRate, 0, len(outliers)+len(agg.Excluded))
	excluded = append(excluded, outliers...)
	for _, v := range agg.Excluded {
		excluded = append(excluded, types.ExcludedRate{Value: v, Reason: "trimmed"})
	}

	now := time.Now().UTC()
	justification := types.JustificationSnapshot{
		ProfileName:        profile.Name,
		RegionName:         r.regionName(ctx, regionID),
		Method:             method,
		AllRates:           sortedRates(allRates),
		UsedRates:          agg.Used,
		Excluded:           excluded,
		MedianBeforeFilter: stats.Median(allRates).Round(2),
		OutlierThreshold:   stats.OutlierThreshold,
		VolatilityPct:      volatility,
		Warnings:           warnings,
		BaseRate:           baseRate,
		RateModel:          modelResult.Breakdown.RateModel,
		ModelParams:        profile.Params,
		ModelBreakdown:     modelResult.Breakdown,
		FinalRate:          modelResult.FinalRate,
		CalculatedAt:       now,
	}

	return &types.RateResult{
		RatePerHour:   modelResult.FinalRate,
		Source:        types.SourcePreview,
		Sources:       r.sourcesSnapshot(ctx, observations),
		Justification: &justification,
		Breakdown: types.ResultBreakdown{
			Kind:       types.SourcePreview,
			RateValue:  modelResult.FinalRate,
			BaseRate:   baseRate,
			Method:     method,
			RateModel:  modelResult.Breakdown.RateModel,
			Model:      &modelResult.Breakdown,
			ResolvedAt: now,
		},
	}, nil
}

// sourcesSnapshot freezes every fetched observation, including ones later
// excluded by the outlier filter, so the audit trail is complete.
func (r *Resolver) sourcesSnapshot(ctx context.Context, observations []types.Observation) types.SourcesSnapshot {
	names := map[int64]string{}
	snapshot := make(types.SourcesSnapshot, 0, len(observations))
	for _, obs := range observations {
		record := types.SourceRecord{
			ObservationID: obs.ID,
			SourceLabel:   obs.SourceLabel,
			RatePerHour:   obs.RatePerHour,
			RegionID:      obs.RegionID,
			ReferenceLink: obs.ReferenceLink,
			Note:          obs.Note,
		}
		if !obs.ObservedAt.IsZero() {
			observedAt := obs.ObservedAt
			record.ObservedAt = &observedAt
		}
		if obs.RegionID != nil {
			name, ok := names[*obs.RegionID]
			if !ok {
				name = r.regionName(ctx, obs.RegionID)
				names[*obs.RegionID] = name
			}
			record.RegionName = name
		}
		snapshot = append(snapshot, record)
	}
	return snapshot
}

func (r *Resolver) regionName(ctx context.Context, regionID *int64) string {
	if regionID == nil {
		return ""
	}
	region, err := r.regions.GetRegion(ctx, *regionID)
	if err != nil || region == nil {
		return fmt.Sprintf("region #%d", *regionID)
	}
	return region.Name
}

func calculationWarnings(volatility decimal.Decimal, usedCount int, fallbackNote string) []types.Warning {
	var warnings []types.Warning
	if volatility.GreaterThanOrEqual(stats.VolatilityWarningThreshold) {
		warnings = append(warnings, types.Warning{
			Kind:    types.WarnHighVolatility,
			Message: fmt.Sprintf("high input volatility (%s%%), verify source reliability", volatility),
		})
	}
	if usedCount < 3 {
		warnings = append(warnings, types.Warning{
			Kind:    types.WarnLowSourceCount,
			Message: fmt.Sprintf("only %d sources used, result may be less reliable", usedCount),
		})
	}
	if fallbackNote != "" {
		warnings = append(warnings, types.Warning{
			Kind:    types.WarnTrimFallback,
			Message: fallbackNote,
		})
	}
	return warnings
}

func overrideResult(override *types.RateOverride, source types.Source) *types.RateResult {
	justification := override.Justification
	fixedAt := override.FixedAt
	return &types.RateResult{
		RatePerHour:   override.RateValue,
		Source:        source,
		OverrideID:    override.ID,
		Sources:       override.Sources,
		Justification: &justification,
		Breakdown: types.ResultBreakdown{
			Kind:         source,
			RateValue:    override.RateValue,
			Method:       override.CalculationMethod,
			RateModel:    override.RateModel,
			FixedAt:      &fixedAt,
			LockedAt:     override.LockedAt,
			LockedReason: override.LockedReason,
			Model:        &override.ModelBreakdown,
			ResolvedAt:   time.Now().UTC(),
		},
	}
}

func noneResult(profileID int64) *types.RateResult {
	return &types.RateResult{
		RatePerHour: decimal.Zero,
		Source:      types.SourceNone,
		Breakdown: types.ResultBreakdown{
			Kind:       types.SourceNone,
			RateValue:  decimal.Zero,
			ResolvedAt: time.Now().UTC(),
			Message:    fmt.Sprintf("no active observations for profile %d", profileID),
		},
	}
}

func (r *Resolver) errorResult(projectID, profileID int64, regionID *int64, cause error) *types.RateResult {
	r.log.Error("rate resolution failed",
		zap.Int64("project_id", projectID),
		zap.Int64("profile_id", profileID),
		zap.Int64p("region_id", regionID),
		zap.Error(cause))
	return &types.RateResult{
		RatePerHour: decimal.Zero,
		Source:      types.SourceError,
		Breakdown: types.ResultBreakdown{
			Kind:       types.SourceError,
			RateValue:  decimal.Zero,
			ResolvedAt: time.Now().UTC(),
			Message:    cause.Error(),
		},
	}
}

func sortedRates(rates []decimal.Decimal) []decimal.Decimal {
	sorted := make([]decimal.Decimal, len(rates))
	copy(sorted, rates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})
	return sorted
}
