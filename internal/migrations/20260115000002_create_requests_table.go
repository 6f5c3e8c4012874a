package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/teamleave/leaveapi/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260115000002, down_20260115000002)
}

// up_20260115000002 creates the requests table
func up_20260115000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating requests table...")

	_, err := db.NewCreateTable().
		Model((*models.LeaveRequest)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id")`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create requests table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_requests_user_status ON requests(user_id, status)`)
	if err != nil {
		return fmt.Errorf("failed to create index on user_id, status: %w", err)
	}

	// Status value guard (PostgreSQL only)
	// SQLite cannot ALTER TABLE ADD CONSTRAINT; it relies on the
	// application layer, which only writes the known status constants.
	if IsPostgreSQL(db) {
		_, err = db.Exec(`
			ALTER TABLE requests
			ADD CONSTRAINT chk_requests_status
			CHECK (status IN ('PENDING', 'ACCEPTED', 'DENIED', 'CANCELED'))
		`)
		if err != nil {
			return fmt.Errorf("failed to add status check constraint: %w", err)
		}
	}

	fmt.Println(" OK")
	return nil
}

// down_20260115000002 drops the requests table
func down_20260115000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping requests table...")

	_, err := db.NewDropTable().
		Model((*models.LeaveRequest)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop requests table: %w", err)
	}

	fmt.Println(" OK")
	return nil
}
