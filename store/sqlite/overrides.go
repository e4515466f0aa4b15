package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"rate-engine/core/types"
	"rate-engine/internal/errors"
)

const overrideColumns = `id, project_id, profile_id, region_id, rate_value, state, locked_reason,
	fixed_at, locked_at, calculation_method, sources_snapshot, justification_snapshot,
	rate_model, model_params, model_breakdown`

// FindLatest implements resolver.OverrideStore: the latest override for the
// exact (project, profile, region, state) key, or nil when absent. For
// locked rows "latest" means latest locked_at; earlier locked rows remain
// as history.
func (s *Store) FindLatest(ctx context.Context, projectID, profileID int64, regionID *int64, state types.State) (*types.RateOverride, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+overrideColumns+`
		FROM rate_overrides
		WHERE project_id = ? AND profile_id = ? AND region_id = ? AND state = ?
		ORDER BY COALESCE(locked_at, fixed_at) DESC, rowid DESC
		LIMIT 1`,
		projectID, profileID, regionKey(regionID), string(state))

	override, err := scanOverride(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return override, nil
}

// Upsert implements resolver.OverrideStore. A Fixed row is updated in place
// under the partial uniqueness constraint on (project, profile, region,
// state='fixed'), so two concurrent fix calls cannot create duplicate rows
// for the same key. A Locked row is always inserted: locked rows are never
// mutated, only superseded.
func (s *Store) Upsert(ctx context.Context, override *types.RateOverride) (*types.RateOverride, error) {
	if override.State != types.StateFixed && override.State != types.StateLocked {
		return nil, errors.Newf(errors.TypeInvalidInput, "cannot persist override in state %q", override.State)
	}

	stored := *override
	if stored.ID == "" {
		stored.ID = NewID()
	}

	sourcesJSON, err := json.Marshal(stored.Sources)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal sources snapshot")
	}
	justificationJSON, err := json.Marshal(stored.Justification)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal justification snapshot")
	}
	paramsJSON, err := json.Marshal(stored.ModelParams)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal model params")
	}
	breakdownJSON, err := json.Marshal(stored.ModelBreakdown)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal model breakdown")
	}

	if stored.State == types.StateFixed {
		// Snapshots are part of the new fixed calculation, so the update
		// rewrites the whole row; the row id is preserved.
		err = s.db.QueryRowContext(ctx, `
			INSERT INTO rate_overrides (`+overrideColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (project_id, profile_id, region_id) WHERE state = 'fixed'
			DO UPDATE SET
				rate_value = excluded.rate_value,
				fixed_at = excluded.fixed_at,
				calculation_method = excluded.calculation_method,
				sources_snapshot = excluded.sources_snapshot,
				justification_snapshot = excluded.justification_snapshot,
				rate_model = excluded.rate_model,
				model_params = excluded.model_params,
				model_breakdown = excluded.model_breakdown
			RETURNING id`,
			stored.ID, stored.ProjectID, stored.ProfileID, regionKey(stored.RegionID),
			stored.RateValue.String(), string(stored.State), stored.LockedReason,
			stored.FixedAt, stored.LockedAt, string(stored.CalculationMethod),
			string(sourcesJSON), string(justificationJSON),
			string(stored.RateModel), string(paramsJSON), string(breakdownJSON),
		).Scan(&stored.ID)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: upsert fixed override")
		}
		return &stored, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rate_overrides (`+overrideColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.ProjectID, stored.ProfileID, regionKey(stored.RegionID),
		stored.RateValue.String(), string(stored.State), stored.LockedReason,
		stored.FixedAt, stored.LockedAt, string(stored.CalculationMethod),
		string(sourcesJSON), string(justificationJSON),
		string(stored.RateModel), string(paramsJSON), string(breakdownJSON))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert locked override")
	}
	return &stored, nil
}

// ListOverrides returns all override rows for a project, newest first.
// Useful for audit inspection.
func (s *Store) ListOverrides(ctx context.Context, projectID int64) ([]types.RateOverride, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+overrideColumns+`
		FROM rate_overrides
		WHERE project_id = ?
		ORDER BY COALESCE(locked_at, fixed_at) DESC, rowid DESC`,
		projectID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list overrides")
	}
	defer rows.Close()

	var overrides []types.RateOverride
	for rows.Next() {
		override, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, *override)
	}
	return overrides, eris.Wrap(rows.Err(), "sqlite: iterate overrides")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOverride(row rowScanner) (*types.RateOverride, error) {
	var (
		override          types.RateOverride
		regionID          int64
		rateValue         string
		state             string
		lockedAt          sql.NullTime
		method            string
		sourcesJSON       string
		justificationJSON string
		rateModel         string
		paramsJSON        string
		breakdownJSON     string
	)
	err := row.Scan(&override.ID, &override.ProjectID, &override.ProfileID, &regionID,
		&rateValue, &state, &override.LockedReason, &override.FixedAt, &lockedAt,
		&method, &sourcesJSON, &justificationJSON, &rateModel, &paramsJSON, &breakdownJSON)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan override")
	}

	override.RegionID = regionPtr(regionID)
	override.State = types.State(state)
	override.CalculationMethod = types.Method(method)
	override.RateModel = types.Model(rateModel)
	if lockedAt.Valid {
		t := lockedAt.Time
		override.LockedAt = &t
	}

	parsed, err := decimal.NewFromString(rateValue)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse rate value %q", rateValue)
	}
	override.RateValue = parsed

	if err := json.Unmarshal([]byte(sourcesJSON), &override.Sources); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal sources snapshot")
	}
	if err := json.Unmarshal([]byte(justificationJSON), &override.Justification); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal justification snapshot")
	}
	if err := json.Unmarshal([]byte(paramsJSON), &override.ModelParams); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal model params")
	}
	if err := json.Unmarshal([]byte(breakdownJSON), &override.ModelBreakdown); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal model breakdown")
	}
	return &override, nil
}
