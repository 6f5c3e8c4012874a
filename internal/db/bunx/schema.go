package bunx

import (
	"context"
	"fmt"

	"github.com/teamleave/leaveapi/internal/db/models"
	"github.com/uptrace/bun"
)

// CreateSchema creates the application tables when they do not exist
// yet. Schema evolution beyond that is handled out of band.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range []any{
		(*models.User)(nil),
		(*models.LeaveRequest)(nil),
	} {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}
