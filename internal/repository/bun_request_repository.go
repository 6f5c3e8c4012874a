package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/teamleave/leaveapi/internal/db/models"
	"github.com/uptrace/bun"
)

// BunLeaveRequestRepository implements LeaveRequestRepository using Bun ORM
type BunLeaveRequestRepository struct {
	db bun.IDB
}

// NewBunLeaveRequestRepository creates a new Bun-based request repository
func NewBunLeaveRequestRepository(db bun.IDB) *BunLeaveRequestRepository {
	return &BunLeaveRequestRepository{db: db}
}

// GetByID retrieves a request by its ID
func (r *BunLeaveRequestRepository) GetByID(ctx context.Context, id int64) (*models.LeaveRequest, error) {
	req := new(models.LeaveRequest)
	err := r.db.NewSelect().
		Model(req).
		Where("req.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("request not found: %d", id)
		}
		return nil, fmt.Errorf("get request by ID: %w", err)
	}
	return req, nil
}

// List retrieves every request, newest first
func (r *BunLeaveRequestRepository) List(ctx context.Context) ([]models.LeaveRequest, error) {
	var reqs []models.LeaveRequest
	err := r.db.NewSelect().
		Model(&reqs).
		Order("date_from DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return reqs, nil
}

// ListByUser retrieves the requests submitted by a user, newest first
func (r *BunLeaveRequestRepository) ListByUser(ctx context.Context, userID int64) ([]models.LeaveRequest, error) {
	var reqs []models.LeaveRequest
	err := r.db.NewSelect().
		Model(&reqs).
		Where("req.user_id = ?", userID).
		Order("date_from DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests by user: %w", err)
	}
	return reqs, nil
}

// ListByManager retrieves the requests awaiting a given approver,
// joined through the requester's manager login, newest first
func (r *BunLeaveRequestRepository) ListByManager(ctx context.Context, managerLogin string) ([]models.LeaveRequest, error) {
	var reqs []models.LeaveRequest
	err := r.db.NewSelect().
		Model(&reqs).
		Join("JOIN users AS u ON u.id = req.user_id").
		Where("u.manager_login = ?", managerLogin).
		Order("date_from DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests by manager: %w", err)
	}
	return reqs, nil
}

// CountPending counts every pending request, the administrator view
func (r *BunLeaveRequestRepository) CountPending(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*models.LeaveRequest)(nil)).
		Where("req.status = ?", models.StatusPending).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return count, nil
}

// CountPendingByManager counts the pending requests awaiting a given
// approver, joined through the requester's manager login
func (r *BunLeaveRequestRepository) CountPendingByManager(ctx context.Context, managerLogin string) (int, error) {
	count, err := r.db.NewSelect().
		Model((*models.LeaveRequest)(nil)).
		Join("JOIN users AS u ON u.id = req.user_id").
		Where("req.status = ?", models.StatusPending).
		Where("u.manager_login = ?", managerLogin).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending requests by manager: %w", err)
	}
	return count, nil
}

// CountPendingByUser counts a user's own pending requests
func (r *BunLeaveRequestRepository) CountPendingByUser(ctx context.Context, userID int64) (int, error) {
	count, err := r.db.NewSelect().
		Model((*models.LeaveRequest)(nil)).
		Where("req.status = ?", models.StatusPending).
		Where("req.user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending requests by user: %w", err)
	}
	return count, nil
}
