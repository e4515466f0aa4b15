// Package memory provides an in-memory implementation of the engine's
// persistence interfaces, mirroring the SQLite store's semantics for tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rate-engine/core/types"
	"rate-engine/internal/errors"
)

// Store is a mutex-guarded in-memory store implementing ObservationSource,
// OverrideStore, ProjectStore, ProfileStore, RegionStore and WorkItemStore.
type Store struct {
	mu           sync.RWMutex
	observations map[int64]types.Observation
	overrides    []types.RateOverride
	projects     map[int64]types.Project
	profiles     map[int64]types.Profile
	regions      map[int64]types.Region
	works        map[int64]types.WorkItem
	nextObsID    int64
}

// New creates an empty Store
func New() *Store {
	return &Store{
		observations: make(map[int64]types.Observation),
		projects:     make(map[int64]types.Project),
		profiles:     make(map[int64]types.Profile),
		regions:      make(map[int64]types.Region),
		works:        make(map[int64]types.WorkItem),
		nextObsID:    1,
	}
}

// AddObservation stores an observation. A zero ID is assigned
// automatically. Observations are immutable afterwards.
func (s *Store) AddObservation(obs types.Observation) types.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obs.ID == 0 {
		obs.ID = s.nextObsID
		s.nextObsID++
	} else if obs.ID >= s.nextObsID {
		s.nextObsID = obs.ID + 1
	}
	s.observations[obs.ID] = obs
	return obs
}

// DeactivateObservation disables an observation without deleting it
func (s *Store) DeactivateObservation(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obs, ok := s.observations[id]
	if !ok {
		return errors.NotFound("observation", id)
	}
	obs.IsActive = false
	s.observations[id] = obs
	return nil
}

// FetchActive implements resolver.ObservationSource with an exact region
// match; a nil region returns global observations only.
func (s *Store) FetchActive(_ context.Context, profileID int64, regionID *int64) ([]types.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []types.Observation
	for _, obs := range s.observations {
		if !obs.IsActive || obs.ProfileID != profileID {
			continue
		}
		if !sameRegion(obs.RegionID, regionID) {
			continue
		}
		matched = append(matched, obs)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SortOrder != matched[j].SortOrder {
			return matched[i].SortOrder < matched[j].SortOrder
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

// FindLatest implements resolver.OverrideStore
func (s *Store) FindLatest(_ context.Context, projectID, profileID int64, regionID *int64, state types.State) (*types.RateOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *types.RateOverride
	for i := range s.overrides {
		o := s.overrides[i]
		if o.ProjectID != projectID || o.ProfileID != profileID || o.State != state {
			continue
		}
		if !sameRegion(o.RegionID, regionID) {
			continue
		}
		if latest == nil || overrideAfter(&o, latest) {
			copied := o
			latest = &copied
		}
	}
	return latest, nil
}

// Upsert implements resolver.OverrideStore. Fixed rows are replaced in
// place per (project, profile, region); Locked rows are always appended so
// earlier locked rows remain as history.
func (s *Store) Upsert(_ context.Context, override *types.RateOverride) (*types.RateOverride, error) {
	if override.State != types.StateFixed && override.State != types.StateLocked {
		return nil, errors.Newf(errors.TypeInvalidInput, "cannot persist override in state %q", override.State)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *override
	if stored.State == types.StateFixed {
		for i := range s.overrides {
			existing := &s.overrides[i]
			if existing.State == types.StateFixed && existing.Key() == stored.Key() {
				stored.ID = existing.ID
				s.overrides[i] = stored
				result := stored
				return &result, nil
			}
		}
	}

	stored.ID = uuid.New().String()
	s.overrides = append(s.overrides, stored)
	result := stored
	return &result, nil
}

// OverrideCount returns the number of stored override rows
func (s *Store) OverrideCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.overrides)
}

// PutProject stores a project
func (s *Store) PutProject(project types.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ID] = project
}

// GetProject implements resolver.ProjectStore
func (s *Store) GetProject(_ context.Context, projectID int64) (*types.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[projectID]
	if !ok {
		return nil, errors.NotFound("project", projectID)
	}
	return &project, nil
}

// PutProfile stores a profile
func (s *Store) PutProfile(profile types.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile
}

// GetProfile implements resolver.ProfileStore
func (s *Store) GetProfile(_ context.Context, profileID int64) (*types.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[profileID]
	if !ok {
		return nil, errors.NotFound("profile", profileID)
	}
	return &profile, nil
}

// PutRegion stores a region
func (s *Store) PutRegion(region types.Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions[region.ID] = region
}

// GetRegion implements resolver.RegionStore
func (s *Store) GetRegion(_ context.Context, regionID int64) (*types.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	region, ok := s.regions[regionID]
	if !ok {
		return nil, errors.NotFound("region", regionID)
	}
	return &region, nil
}

// PutWorkItem stores a work item
func (s *Store) PutWorkItem(work types.WorkItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.works[work.ID] = work
}

// GetWorkItem returns a work item by id
func (s *Store) GetWorkItem(id int64) (*types.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	work, ok := s.works[id]
	if !ok {
		return nil, errors.NotFound("work item", id)
	}
	return &work, nil
}

// ListByProject implements lock.WorkItemStore
func (s *Store) ListByProject(_ context.Context, projectID int64) ([]types.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var works []types.WorkItem
	for _, work := range s.works {
		if work.ProjectID == projectID {
			works = append(works, work)
		}
	}
	sort.Slice(works, func(i, j int) bool { return works[i].ID < works[j].ID })
	return works, nil
}

// ListByProfile implements lock.WorkItemStore
func (s *Store) ListByProfile(_ context.Context, projectID, profileID int64) ([]types.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var works []types.WorkItem
	for _, work := range s.works {
		if work.ProjectID == projectID && work.ProfileID == profileID {
			works = append(works, work)
		}
	}
	sort.Slice(works, func(i, j int) bool { return works[i].ID < works[j].ID })
	return works, nil
}

// ApplyRate implements lock.WorkItemStore
func (s *Store) ApplyRate(_ context.Context, workItemID int64, rate decimal.Decimal, overrideID string, costTotal decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work, ok := s.works[workItemID]
	if !ok {
		return errors.NotFound("work item", workItemID)
	}
	work.RatePerHour = rate
	work.CostTotal = costTotal
	work.OverrideID = overrideID
	s.works[workItemID] = work
	return nil
}

func sameRegion(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// overrideAfter reports whether a supersedes b by lock/fix time. Ties go to
// a: callers iterate rows in insertion order, so the later insert wins.
func overrideAfter(a, b *types.RateOverride) bool {
	aTime := a.FixedAt
	if a.LockedAt != nil {
		aTime = *a.LockedAt
	}
	bTime := b.FixedAt
	if b.LockedAt != nil {
		bTime = *b.LockedAt
	}
	return !aTime.Before(bTime)
}
