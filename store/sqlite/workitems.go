package sqlite

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"rate-engine/core/types"
	"rate-engine/internal/errors"
)

// CreateWorkItem inserts a work item and returns it with its assigned id
func (s *Store) CreateWorkItem(ctx context.Context, work types.WorkItem) (*types.WorkItem, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO work_items (project_id, profile_id, title, hours, rate_per_hour, cost_total, override_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		work.ProjectID, work.ProfileID, work.Title, work.Hours.String(),
		work.RatePerHour.String(), work.CostTotal.String(), work.OverrideID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert work item")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: work item id")
	}
	work.ID = id
	return &work, nil
}

// ListByProject implements lock.WorkItemStore
func (s *Store) ListByProject(ctx context.Context, projectID int64) ([]types.WorkItem, error) {
	return s.listWorkItems(ctx, `
		SELECT id, project_id, profile_id, title, hours, rate_per_hour, cost_total, override_id
		FROM work_items WHERE project_id = ? ORDER BY id`, projectID)
}

// ListByProfile implements lock.WorkItemStore
func (s *Store) ListByProfile(ctx context.Context, projectID, profileID int64) ([]types.WorkItem, error) {
	return s.listWorkItems(ctx, `
		SELECT id, project_id, profile_id, title, hours, rate_per_hour, cost_total, override_id
		FROM work_items WHERE project_id = ? AND profile_id = ? ORDER BY id`, projectID, profileID)
}

// ApplyRate implements lock.WorkItemStore
func (s *Store) ApplyRate(ctx context.Context, workItemID int64, rate decimal.Decimal, overrideID string, costTotal decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE work_items SET rate_per_hour = ?, cost_total = ?, override_id = ?
		WHERE id = ?`,
		rate.String(), costTotal.String(), overrideID, workItemID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: apply rate to work item %d", workItemID)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return errors.NotFound("work item", workItemID)
	}
	return nil
}

func (s *Store) listWorkItems(ctx context.Context, query string, args ...any) ([]types.WorkItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list work items")
	}
	defer rows.Close()

	var works []types.WorkItem
	for rows.Next() {
		work, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, *work)
	}
	return works, eris.Wrap(rows.Err(), "sqlite: iterate work items")
}

func scanWorkItem(rows *sql.Rows) (*types.WorkItem, error) {
	var (
		work  types.WorkItem
		hours string
		rate  string
		cost  string
	)
	if err := rows.Scan(&work.ID, &work.ProjectID, &work.ProfileID, &work.Title,
		&hours, &rate, &cost, &work.OverrideID); err != nil {
		return nil, eris.Wrap(err, "sqlite: scan work item")
	}
	for _, field := range []struct {
		raw  string
		dest *decimal.Decimal
	}{
		{hours, &work.Hours},
		{rate, &work.RatePerHour},
		{cost, &work.CostTotal},
	} {
		parsed, err := decimal.NewFromString(field.raw)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse decimal %q", field.raw)
		}
		*field.dest = parsed
	}
	return &work, nil
}
