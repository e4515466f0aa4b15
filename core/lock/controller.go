// Package lock implements bulk fixing and locking of profile rates across a
// project, plus the idempotent work-item cost recomputation that follows.
package lock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rate-engine/core/resolver"
	"rate-engine/core/types"
	"rate-engine/internal/errors"
	"rate-engine/internal/logging"
)

// DefaultWorkers bounds the parallel per-profile loop
const DefaultWorkers = 4

// DefaultLockReason is stamped on overrides created by a bulk lock
const DefaultLockReason = "locked by bulk rate fix"

// WorkItemStore persists project work items and their derived costs
type WorkItemStore interface {
	// ListByProject returns all work items of a project
	ListByProject(ctx context.Context, projectID int64) ([]types.WorkItem, error)

	// ListByProfile returns the project's work items referencing a profile
	ListByProfile(ctx context.Context, projectID, profileID int64) ([]types.WorkItem, error)

	// ApplyRate stamps a work item with the effective rate, the override it
	// came from, and the derived total cost
	ApplyRate(ctx context.Context, workItemID int64, rate decimal.Decimal, overrideID string, costTotal decimal.Decimal) error
}

// Controller runs bulk fix/lock passes. Per-profile failures are captured
// and reported; they never abort processing of the remaining profiles.
type Controller struct {
	resolver  *resolver.Resolver
	overrides resolver.OverrideStore
	projects  resolver.ProjectStore
	works     WorkItemStore
	workers   int
	log       *zap.Logger
}

// Option configures a Controller
type Option func(*Controller)

// WithWorkers sets the parallel worker limit for the per-profile loop
func WithWorkers(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.workers = n
		}
	}
}

// New creates a Controller
func New(res *resolver.Resolver, overrides resolver.OverrideStore, projects resolver.ProjectStore, works WorkItemStore, opts ...Option) *Controller {
	c := &Controller{
		resolver:  res,
		overrides: overrides,
		projects:  projects,
		works:     works,
		workers:   DefaultWorkers,
		log:       logging.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecalculateAndLock resolves a fresh preview rate for every profile
// referenced by the project's work items, persists each as a Locked
// override, then recomputes work-item costs. With onlyIfMissing, profiles
// that already have a Locked override are skipped without touching them.
func (c *Controller) RecalculateAndLock(ctx context.Context, projectID int64, method types.Method, onlyIfMissing bool) (*types.BulkResult, error) {
	project, err := c.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	works, err := c.works.ListByProject(ctx, projectID)
	if err != nil {
		return nil, errors.Storage("list work items", err)
	}

	result := &types.BulkResult{CreatedOverrideIDs: []string{}}
	if len(works) == 0 {
		return result, nil
	}

	profileIDs := distinctProfileIDs(works)

	var (
		mu      sync.Mutex
		created = make(map[int64]string, len(profileIDs))
	)

	// Embarrassingly parallel: profiles are independent. Tasks capture
	// their own errors and never return one, so a failing profile cannot
	// cancel its siblings.
	var group errgroup.Group
	group.SetLimit(c.workers)

	for _, profileID := range profileIDs {
		profileID := profileID
		group.Go(func() error {
			overrideID, skipped, err := c.lockProfile(ctx, project, profileID, method, onlyIfMissing)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Errors = append(result.Errors, types.ProfileError{
					ProfileID: profileID,
					Message:   err.Error(),
				})
			case skipped:
				result.SkippedProfiles = append(result.SkippedProfiles, profileID)
			default:
				created[profileID] = overrideID
			}
			return nil
		})
	}
	_ = group.Wait()

	// Report created overrides in profile order so bulk output is stable
	for _, profileID := range profileIDs {
		if id, ok := created[profileID]; ok {
			result.CreatedOverrideIDs = append(result.CreatedOverrideIDs, id)
		}
	}
	sort.Slice(result.SkippedProfiles, func(i, j int) bool {
		return result.SkippedProfiles[i] < result.SkippedProfiles[j]
	})
	sort.SliceStable(result.Errors, func(i, j int) bool {
		return result.Errors[i].ProfileID < result.Errors[j].ProfileID
	})

	updated, recalcErrors := c.recalculateWorkItems(ctx, project, profileIDs)
	result.UpdatedWorkCount = updated
	result.Errors = append(result.Errors, recalcErrors...)

	c.log.Info("bulk rate lock completed",
		zap.Int64("project_id", projectID),
		zap.Int("created", len(result.CreatedOverrideIDs)),
		zap.Int("skipped", len(result.SkippedProfiles)),
		zap.Int("updated_works", result.UpdatedWorkCount),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// lockProfile resolves and persists one profile's locked rate.
// A None/Error resolution is reported as a failure, never locked.
func (c *Controller) lockProfile(ctx context.Context, project *types.Project, profileID int64, method types.Method, onlyIfMissing bool) (overrideID string, skipped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal(fmt.Sprintf("panic locking profile %d", profileID), fmt.Errorf("%v", r))
		}
	}()

	if onlyIfMissing {
		existing, err := c.overrides.FindLatest(ctx, project.ID, profileID, project.RegionID, types.StateLocked)
		if err != nil {
			return "", false, errors.Wrapf(errors.TypeStorage, err, "find locked override for profile %d", profileID)
		}
		if existing != nil {
			c.log.Debug("skipping profile, locked rate exists",
				zap.Int64("project_id", project.ID),
				zap.Int64("profile_id", profileID))
			return "", true, nil
		}
	}

	// Always recompute from observations: a stale locked rate must not
	// feed a new lock.
	rate, err := c.resolver.ResolveWithMethod(ctx, project.ID, profileID, project.RegionID, true, method)
	if err != nil {
		return "", false, err
	}
	if !rate.HasRate() {
		return "", false, errors.Resolution(fmt.Sprintf("no usable rate for profile %d: %s", profileID, rate.Breakdown.Message), nil)
	}

	now := time.Now().UTC()
	override := &types.RateOverride{
		ProjectID:         project.ID,
		ProfileID:         profileID,
		RegionID:          project.RegionID,
		RateValue:         rate.RatePerHour,
		State:             types.StateLocked,
		LockedReason:      DefaultLockReason,
		FixedAt:           now,
		LockedAt:          &now,
		CalculationMethod: method,
		RateModel:         rate.Breakdown.RateModel,
	}
	if rate.Sources != nil {
		override.Sources = rate.Sources
	}
	if rate.Justification != nil {
		override.Justification = *rate.Justification
		override.ModelParams = rate.Justification.ModelParams
		override.ModelBreakdown = rate.Justification.ModelBreakdown
	}

	saved, err := c.overrides.Upsert(ctx, override)
	if err != nil {
		return "", false, errors.Storage("upsert locked override", err)
	}

	c.log.Info("locked rate created",
		zap.Int64("project_id", project.ID),
		zap.Int64("profile_id", profileID),
		zap.String("override_id", saved.ID),
		zap.String("rate", saved.RateValue.String()))

	return saved.ID, false, nil
}

// recalculateWorkItems refreshes derived costs (hours x rate) for every work
// item of the listed profiles, tagging each with the override used. Running
// it twice yields identical costs. Work items whose rate resolves to
// None/Error are reported as errors and left untouched, never zeroed.
func (c *Controller) recalculateWorkItems(ctx context.Context, project *types.Project, profileIDs []int64) (int, []types.ProfileError) {
	var (
		updated    int
		workErrors []types.ProfileError
	)

	for _, profileID := range profileIDs {
		rate, err := c.resolver.Resolve(ctx, project.ID, profileID, project.RegionID, false)
		if err != nil {
			workErrors = append(workErrors, types.ProfileError{
				ProfileID: profileID,
				Message:   fmt.Sprintf("recalculate: %v", err),
			})
			continue
		}
		if !rate.HasRate() {
			workErrors = append(workErrors, types.ProfileError{
				ProfileID: profileID,
				Message:   fmt.Sprintf("rate missing (%s): %s", rate.Source, rate.Breakdown.Message),
			})
			continue
		}

		works, err := c.works.ListByProfile(ctx, project.ID, profileID)
		if err != nil {
			workErrors = append(workErrors, types.ProfileError{
				ProfileID: profileID,
				Message:   fmt.Sprintf("list work items: %v", err),
			})
			continue
		}

		for _, work := range works {
			cost := work.Hours.Mul(rate.RatePerHour).Round(2)
			if err := c.works.ApplyRate(ctx, work.ID, rate.RatePerHour, rate.OverrideID, cost); err != nil {
				workErrors = append(workErrors, types.ProfileError{
					ProfileID:  profileID,
					WorkItemID: work.ID,
					Message:    fmt.Sprintf("apply rate: %v", err),
				})
				continue
			}
			updated++
		}
	}

	return updated, workErrors
}

func distinctProfileIDs(works []types.WorkItem) []int64 {
	seen := make(map[int64]struct{}, len(works))
	ids := make([]int64, 0, len(works))
	for _, work := range works {
		if work.ProfileID == 0 {
			continue
		}
		if _, ok := seen[work.ProfileID]; ok {
			continue
		}
		seen[work.ProfileID] = struct{}{}
		ids = append(ids, work.ProfileID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
