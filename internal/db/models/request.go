package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Leave request statuses.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusDenied   = "DENIED"
	StatusCanceled = "CANCELED"
)

// Leave request types.
const (
	TypeLegal       = "CP"
	TypeRecovery    = "RTT"
	TypeSickness    = "Sickness"
	TypeExceptional = "Exceptional"
)

var validTypes = map[string]bool{
	TypeLegal:       true,
	TypeRecovery:    true,
	TypeSickness:    true,
	TypeExceptional: true,
}

// LeaveRequest represents one vacation request submitted by a user.
type LeaveRequest struct {
	bun.BaseModel `bun:"table:requests,alias:req"`

	ID         int64      `bun:"id,pk,autoincrement"`
	UserID     int64      `bun:"user_id,notnull" mapstructure:"user_id"`
	User       *User      `bun:"rel:belongs-to,join:user_id=id"`
	DateFrom   time.Time  `bun:"date_from,notnull" mapstructure:"date_from"`
	DateTo     time.Time  `bun:"date_to,notnull" mapstructure:"date_to"`
	Days       float64    `bun:"days,notnull" mapstructure:"days"`
	Type       string     `bun:"type,notnull,default:'CP'" mapstructure:"type"`
	Status     string     `bun:"status,notnull,default:'PENDING'"`
	Message    string     `bun:"message" mapstructure:"message"`
	NotifiedAt *time.Time `bun:"notified_at"`
	CreatedAt  time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// FormFields is the allow-list of form-writable fields. Status moves
// through the accept/deny flow, never straight from a form.
func (r *LeaveRequest) FormFields() []string {
	return []string{"user_id", "date_from", "date_to", "days", "type", "message"}
}

// Name returns the form prefix and payload key for request forms.
func (r *LeaveRequest) Name() string { return "requests" }

// Validate checks the semantic invariants of the request against the
// store, collecting failures into a ModelError.
func (r *LeaveRequest) Validate(ctx context.Context, db bun.IDB) error {
	merr := &ModelError{}

	if r.DateFrom.IsZero() {
		merr.Appendf("date_from is required")
	}
	if r.DateTo.IsZero() {
		merr.Appendf("date_to is required")
	}
	if !r.DateFrom.IsZero() && !r.DateTo.IsZero() && r.DateTo.Before(r.DateFrom) {
		merr.Appendf("date_to must not be before date_from")
	}
	if r.Days <= 0 {
		merr.Appendf("days must be positive")
	}
	if r.Type != "" && !validTypes[r.Type] {
		merr.Appendf("unknown request type %q", r.Type)
	}

	if r.UserID == 0 {
		merr.Appendf("user_id is required")
	} else {
		exists, err := db.NewSelect().
			Model((*User)(nil)).
			Where("id = ?", r.UserID).
			Exists(ctx)
		if err != nil {
			merr.Appendf("could not check user existence: %v", err)
		} else if !exists {
			merr.Appendf("user %d does not exist", r.UserID)
		}
	}

	return merr.ErrOrNil()
}
