package repository

import (
	"context"

	"github.com/teamleave/leaveapi/internal/db/models"
)

// UserRepository provides access to stored user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
}

// LeaveRequestRepository provides access to stored vacation requests.
type LeaveRequestRepository interface {
	GetByID(ctx context.Context, id int64) (*models.LeaveRequest, error)
	List(ctx context.Context) ([]models.LeaveRequest, error)
	ListByUser(ctx context.Context, userID int64) ([]models.LeaveRequest, error)
	ListByManager(ctx context.Context, managerLogin string) ([]models.LeaveRequest, error)

	// Pending counts scoped by the caller's role: administrators see
	// every pending request, supervisors those awaiting their
	// approval, ordinary users their own.
	CountPending(ctx context.Context) (int, error)
	CountPendingByManager(ctx context.Context, managerLogin string) (int, error)
	CountPendingByUser(ctx context.Context, userID int64) (int, error)
}
