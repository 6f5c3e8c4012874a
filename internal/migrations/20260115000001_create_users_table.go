package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/teamleave/leaveapi/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260115000001, down_20260115000001)
}

// up_20260115000001 creates the users table
func up_20260115000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating users table...")

	_, err := db.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_users_manager_login ON users(manager_login)`)
	if err != nil {
		return fmt.Errorf("failed to create index on manager_login: %w", err)
	}

	fmt.Println(" OK")
	return nil
}

// down_20260115000001 drops the users table
func down_20260115000001(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping users table...")

	_, err := db.NewDropTable().
		Model((*models.User)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop users table: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
