package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rate-engine/core/types"
	"rate-engine/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "rates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestRegionProjectProfileRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	region, err := store.CreateRegion(ctx, "Central")
	require.NoError(t, err)
	require.NotZero(t, region.ID)

	gotRegion, err := store.GetRegion(ctx, region.ID)
	require.NoError(t, err)
	assert.Equal(t, "Central", gotRegion.Name)

	project, err := store.CreateProject(ctx, "Warehouse fit-out", &region.ID)
	require.NoError(t, err)
	gotProject, err := store.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Warehouse fit-out", gotProject.Name)
	require.NotNil(t, gotProject.RegionID)
	assert.Equal(t, region.ID, *gotProject.RegionID)

	billable := 120
	params := types.ModelParams{
		RateModel:          types.ModelContractor,
		EmployerContribPct: dec("30"),
		BaseHoursMonth:     160,
		BillableHoursMonth: &billable,
		ProfitPct:          dec("15"),
		RoundingMode:       types.RoundingTens,
	}
	profile, err := store.CreateProfile(ctx, "Electrician", params)
	require.NoError(t, err)
	gotProfile, err := store.GetProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Electrician", gotProfile.Name)
	assert.Equal(t, types.ModelContractor, gotProfile.Params.RateModel)
	assert.True(t, gotProfile.Params.EmployerContribPct.Equal(dec("30")))
	require.NotNil(t, gotProfile.Params.BillableHoursMonth)
	assert.Equal(t, 120, *gotProfile.Params.BillableHoursMonth)
	assert.Equal(t, types.RoundingTens, gotProfile.Params.RoundingMode)
}

func TestGetMissingRowsReturnNotFound(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.GetProject(ctx, 999)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))

	_, err = store.GetProfile(ctx, 999)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))

	_, err = store.GetRegion(ctx, 999)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}

func TestObservationLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	region, err := store.CreateRegion(ctx, "North")
	require.NoError(t, err)
	profile, err := store.CreateProfile(ctx, "Welder", types.ModelParams{RateModel: types.ModelLabor})
	require.NoError(t, err)

	observedAt := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	global, err := store.AddObservation(ctx, types.Observation{
		ProfileID:   profile.ID,
		RatePerHour: dec("900"),
		ObservedAt:  observedAt,
		SourceLabel: "job board",
		Note:        "senior range",
		SortOrder:   2,
		IsActive:    true,
	})
	require.NoError(t, err)
	require.NotZero(t, global.ID)

	_, err = store.AddObservation(ctx, types.Observation{
		ProfileID:   profile.ID,
		RegionID:    &region.ID,
		RatePerHour: dec("1100"),
		SourceLabel: "survey",
		SortOrder:   1,
		IsActive:    true,
	})
	require.NoError(t, err)

	// nil region means global observations only
	globals, err := store.FetchActive(ctx, profile.ID, nil)
	require.NoError(t, err)
	require.Len(t, globals, 1)
	assert.True(t, globals[0].RatePerHour.Equal(dec("900")))
	assert.Equal(t, "job board", globals[0].SourceLabel)
	assert.Equal(t, "senior range", globals[0].Note)
	assert.True(t, globals[0].ObservedAt.Equal(observedAt))

	regionals, err := store.FetchActive(ctx, profile.ID, &region.ID)
	require.NoError(t, err)
	require.Len(t, regionals, 1)
	assert.True(t, regionals[0].RatePerHour.Equal(dec("1100")))

	require.NoError(t, store.DeactivateObservation(ctx, global.ID))
	globals, err = store.FetchActive(ctx, profile.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, globals)

	err = store.DeactivateObservation(ctx, 9999)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}

func sampleOverride(state types.State, rate string, at time.Time) *types.RateOverride {
	o := &types.RateOverride{
		ID:                NewID(),
		ProjectID:         1,
		ProfileID:         2,
		RateValue:         dec(rate),
		State:             state,
		FixedAt:           at,
		CalculationMethod: types.MethodMedian,
		RateModel:         types.ModelLabor,
		Sources: types.SourcesSnapshot{
			{ObservationID: 1, SourceLabel: "job board", RatePerHour: dec(rate)},
		},
		Justification: types.JustificationSnapshot{
			ProfileName: "Electrician",
			Method:      types.MethodMedian,
			BaseRate:    dec(rate),
			FinalRate:   dec(rate),
		},
	}
	if state == types.StateLocked {
		lockedAt := at
		o.LockedAt = &lockedAt
		o.LockedReason = "contract signed"
	}
	return o
}

func TestUpsertFixedUpdatesInPlace(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.Upsert(ctx, sampleOverride(types.StateFixed, "1000", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	second, err := store.Upsert(ctx, sampleOverride(types.StateFixed, "1100", time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "conflicting fixed rows keep the original id")

	rows, err := store.ListOverrides(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].RateValue.Equal(dec("1100")))
}

func TestUpsertLockedKeepsHistory(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	older := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	_, err := store.Upsert(ctx, sampleOverride(types.StateLocked, "1000", older))
	require.NoError(t, err)
	second, err := store.Upsert(ctx, sampleOverride(types.StateLocked, "1100", newer))
	require.NoError(t, err)

	rows, err := store.ListOverrides(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	latest, err := store.FindLatest(ctx, 1, 2, nil, types.StateLocked)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.True(t, latest.RateValue.Equal(dec("1100")))
	assert.Equal(t, "contract signed", latest.LockedReason)

	// Snapshots survive the round trip.
	require.Len(t, latest.Sources, 1)
	assert.Equal(t, "job board", latest.Sources[0].SourceLabel)
	assert.Equal(t, "Electrician", latest.Justification.ProfileName)
	assert.True(t, latest.Justification.FinalRate.Equal(dec("1100")))
}

func TestFindLatestScopesByStateAndRegion(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.Upsert(ctx, sampleOverride(types.StateFixed, "1000", at))
	require.NoError(t, err)

	regional := sampleOverride(types.StateFixed, "1300", at)
	regionID := int64(7)
	regional.RegionID = &regionID
	_, err = store.Upsert(ctx, regional)
	require.NoError(t, err)

	locked, err := store.FindLatest(ctx, 1, 2, nil, types.StateLocked)
	require.NoError(t, err)
	assert.Nil(t, locked, "no locked rows exist")

	fixedGlobal, err := store.FindLatest(ctx, 1, 2, nil, types.StateFixed)
	require.NoError(t, err)
	require.NotNil(t, fixedGlobal)
	assert.True(t, fixedGlobal.RateValue.Equal(dec("1000")))
	assert.Nil(t, fixedGlobal.RegionID)

	fixedRegional, err := store.FindLatest(ctx, 1, 2, &regionID, types.StateFixed)
	require.NoError(t, err)
	require.NotNil(t, fixedRegional)
	assert.True(t, fixedRegional.RateValue.Equal(dec("1300")))
	require.NotNil(t, fixedRegional.RegionID)
	assert.Equal(t, regionID, *fixedRegional.RegionID)
}

func TestWorkItemLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	project, err := store.CreateProject(ctx, "Depot", nil)
	require.NoError(t, err)
	profile, err := store.CreateProfile(ctx, "Plumber", types.ModelParams{RateModel: types.ModelLabor})
	require.NoError(t, err)

	work, err := store.CreateWorkItem(ctx, types.WorkItem{
		ProjectID: project.ID,
		ProfileID: profile.ID,
		Title:     "Piping",
		Hours:     dec("12.5"),
	})
	require.NoError(t, err)
	require.NotZero(t, work.ID)

	byProject, err := store.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, "Piping", byProject[0].Title)
	assert.True(t, byProject[0].Hours.Equal(dec("12.5")))

	byProfile, err := store.ListByProfile(ctx, project.ID, profile.ID)
	require.NoError(t, err)
	assert.Len(t, byProfile, 1)

	require.NoError(t, store.ApplyRate(ctx, work.ID, dec("1000"), "ov-1", dec("12500")))
	byProject, err = store.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.True(t, byProject[0].RatePerHour.Equal(dec("1000")))
	assert.True(t, byProject[0].CostTotal.Equal(dec("12500")))
	assert.Equal(t, "ov-1", byProject[0].OverrideID)

	err = store.ApplyRate(ctx, 9999, dec("1"), "x", dec("1"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}
