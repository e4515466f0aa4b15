// Package sqlite persists the rate engine's data model in SQLite via
// modernc.org/sqlite. It implements ObservationSource, OverrideStore,
// ProjectStore, ProfileStore, RegionStore and WorkItemStore.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"rate-engine/core/types"
	"rate-engine/internal/errors"
)

// Store implements the engine's persistence interfaces over SQLite
type Store struct {
	db *sql.DB
}

// New opens a SQLite database at the given DSN and configures WAL mode
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS regions (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT NOT NULL,
	region_id INTEGER REFERENCES regions(id)
);

CREATE TABLE IF NOT EXISTS profiles (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	name   TEXT NOT NULL,
	params TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS observations (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	profile_id     INTEGER NOT NULL REFERENCES profiles(id),
	region_id      INTEGER REFERENCES regions(id),
	rate_per_hour  TEXT NOT NULL,
	observed_at    DATETIME,
	source_label   TEXT NOT NULL,
	reference_link TEXT NOT NULL DEFAULT '',
	note           TEXT NOT NULL DEFAULT '',
	sort_order     INTEGER NOT NULL DEFAULT 0,
	is_active      INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS rate_overrides (
	id                     TEXT PRIMARY KEY,
	project_id             INTEGER NOT NULL,
	profile_id             INTEGER NOT NULL,
	region_id              INTEGER NOT NULL DEFAULT 0,
	rate_value             TEXT NOT NULL,
	state                  TEXT NOT NULL,
	locked_reason          TEXT NOT NULL DEFAULT '',
	fixed_at               DATETIME NOT NULL,
	locked_at              DATETIME,
	calculation_method     TEXT NOT NULL,
	sources_snapshot       TEXT NOT NULL,
	justification_snapshot TEXT NOT NULL,
	rate_model             TEXT NOT NULL,
	model_params           TEXT NOT NULL,
	model_breakdown        TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_rate_overrides_fixed
	ON rate_overrides(project_id, profile_id, region_id)
	WHERE state = 'fixed';

CREATE INDEX IF NOT EXISTS idx_rate_overrides_key
	ON rate_overrides(project_id, profile_id, region_id, state);

CREATE TABLE IF NOT EXISTS work_items (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id    INTEGER NOT NULL REFERENCES projects(id),
	profile_id    INTEGER NOT NULL REFERENCES profiles(id),
	title         TEXT NOT NULL,
	hours         TEXT NOT NULL,
	rate_per_hour TEXT NOT NULL DEFAULT '0',
	cost_total    TEXT NOT NULL DEFAULT '0',
	override_id   TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_observations_profile
	ON observations(profile_id, is_active);
CREATE INDEX IF NOT EXISTS idx_work_items_project
	ON work_items(project_id, profile_id);
`

// Migrate applies the embedded schema
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// regionKey maps a nullable region to its storage form. Overrides store
// region 0 for global so the fixed-state uniqueness constraint covers the
// global key too.
func regionKey(regionID *int64) int64 {
	if regionID == nil {
		return 0
	}
	return *regionID
}

func regionPtr(key int64) *int64 {
	if key == 0 {
		return nil
	}
	return &key
}

// CreateRegion inserts a region and returns it with its assigned id
func (s *Store) CreateRegion(ctx context.Context, name string) (*types.Region, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO regions (name) VALUES (?)`, name)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert region")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: region id")
	}
	return &types.Region{ID: id, Name: name}, nil
}

// GetRegion implements resolver.RegionStore
func (s *Store) GetRegion(ctx context.Context, regionID int64) (*types.Region, error) {
	var region types.Region
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM regions WHERE id = ?`, regionID,
	).Scan(&region.ID, &region.Name)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("region", regionID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get region %d", regionID)
	}
	return &region, nil
}

// CreateProject inserts a project and returns it with its assigned id
func (s *Store) CreateProject(ctx context.Context, name string, regionID *int64) (*types.Project, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, region_id) VALUES (?, ?)`, name, regionID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert project")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: project id")
	}
	return &types.Project{ID: id, Name: name, RegionID: regionID}, nil
}

// GetProject implements resolver.ProjectStore
func (s *Store) GetProject(ctx context.Context, projectID int64) (*types.Project, error) {
	var (
		project  types.Project
		regionID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, region_id FROM projects WHERE id = ?`, projectID,
	).Scan(&project.ID, &project.Name, &regionID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("project", projectID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get project %d", projectID)
	}
	if regionID.Valid {
		project.RegionID = &regionID.Int64
	}
	return &project, nil
}

// CreateProfile inserts a profile and returns it with its assigned id
func (s *Store) CreateProfile(ctx context.Context, name string, params types.ModelParams) (*types.Profile, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal profile params")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (name, params) VALUES (?, ?)`, name, string(paramsJSON))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert profile")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: profile id")
	}
	return &types.Profile{ID: id, Name: name, Params: params}, nil
}

// GetProfile implements resolver.ProfileStore
func (s *Store) GetProfile(ctx context.Context, profileID int64) (*types.Profile, error) {
	var (
		profile    types.Profile
		paramsJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, params FROM profiles WHERE id = ?`, profileID,
	).Scan(&profile.ID, &profile.Name, &paramsJSON)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("profile", profileID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get profile %d", profileID)
	}
	if err := json.Unmarshal([]byte(paramsJSON), &profile.Params); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal params for profile %d", profileID)
	}
	return &profile, nil
}

// AddObservation inserts an observation and returns it with its assigned id
func (s *Store) AddObservation(ctx context.Context, obs types.Observation) (*types.Observation, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO observations
			(profile_id, region_id, rate_per_hour, observed_at, source_label, reference_link, note, sort_order, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.ProfileID, obs.RegionID, obs.RatePerHour.String(), nullTime(obs.ObservedAt),
		obs.SourceLabel, obs.ReferenceLink, obs.Note, obs.SortOrder, obs.IsActive)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert observation")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: observation id")
	}
	obs.ID = id
	return &obs, nil
}

// DeactivateObservation disables an observation. Observations are never
// deleted.
func (s *Store) DeactivateObservation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE observations SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: deactivate observation %d", id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return errors.NotFound("observation", id)
	}
	return nil
}

// FetchActive implements resolver.ObservationSource with an exact region
// match; a nil region returns global observations only.
func (s *Store) FetchActive(ctx context.Context, profileID int64, regionID *int64) ([]types.Observation, error) {
	query := `
		SELECT id, profile_id, region_id, rate_per_hour, observed_at, source_label, reference_link, note, sort_order, is_active
		FROM observations
		WHERE profile_id = ? AND is_active = 1 AND `
	args := []any{profileID}
	if regionID == nil {
		query += `region_id IS NULL`
	} else {
		query += `region_id = ?`
		args = append(args, *regionID)
	}
	query += ` ORDER BY sort_order, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch observations")
	}
	defer rows.Close()

	var observations []types.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		observations = append(observations, *obs)
	}
	return observations, eris.Wrap(rows.Err(), "sqlite: iterate observations")
}

func scanObservation(rows *sql.Rows) (*types.Observation, error) {
	var (
		obs        types.Observation
		regionID   sql.NullInt64
		rate       string
		observedAt sql.NullTime
		active     int
	)
	if err := rows.Scan(&obs.ID, &obs.ProfileID, &regionID, &rate, &observedAt,
		&obs.SourceLabel, &obs.ReferenceLink, &obs.Note, &obs.SortOrder, &active); err != nil {
		return nil, eris.Wrap(err, "sqlite: scan observation")
	}
	if regionID.Valid {
		obs.RegionID = &regionID.Int64
	}
	parsed, err := decimal.NewFromString(rate)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse rate %q", rate)
	}
	obs.RatePerHour = parsed
	if observedAt.Valid {
		obs.ObservedAt = observedAt.Time
	}
	obs.IsActive = active != 0
	return &obs, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// NewID generates a new override row id
func NewID() string {
	return uuid.New().String()
}
