package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/teamleave/leaveapi/internal/db/models"
)

func seedUser(t *testing.T, db *bun.DB, login, manager string) *models.User {
	t.Helper()
	user := testUser(login)
	user.ManagerLogin = manager
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}

func seedRequest(t *testing.T, db *bun.DB, userID int64, status string, from time.Time) *models.LeaveRequest {
	t.Helper()
	req := &models.LeaveRequest{
		UserID:   userID,
		DateFrom: from,
		DateTo:   from.AddDate(0, 0, 5),
		Days:     5,
		Type:     models.TypeLegal,
		Status:   status,
	}
	_, err := db.NewInsert().Model(req).Exec(context.Background())
	require.NoError(t, err)
	return req
}

func TestBunLeaveRequestRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunLeaveRequestRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "jdoe", "boss")
	req := seedRequest(t, db, user.ID, models.StatusPending, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))

	got, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, models.StatusPending, got.Status)

	_, err = repo.GetByID(ctx, 4242)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestBunLeaveRequestRepository_Listing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunLeaveRequestRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "boss")
	bob := seedUser(t, db, "bob", "other")

	seedRequest(t, db, alice.ID, models.StatusPending, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	seedRequest(t, db, alice.ID, models.StatusAccepted, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	seedRequest(t, db, bob.ID, models.StatusPending, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))

	t.Run("list all newest first", func(t *testing.T) {
		reqs, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, reqs, 3)
		assert.Equal(t, bob.ID, reqs[0].UserID)
	})

	t.Run("list by user", func(t *testing.T) {
		reqs, err := repo.ListByUser(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.True(t, reqs[0].DateFrom.After(reqs[1].DateFrom))
	})

	t.Run("list by manager", func(t *testing.T) {
		reqs, err := repo.ListByManager(ctx, "boss")
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		for _, req := range reqs {
			assert.Equal(t, alice.ID, req.UserID)
		}
	})
}

func TestBunLeaveRequestRepository_PendingCounts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunLeaveRequestRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice", "boss")
	bob := seedUser(t, db, "bob", "other")

	seedRequest(t, db, alice.ID, models.StatusPending, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	seedRequest(t, db, alice.ID, models.StatusDenied, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC))
	seedRequest(t, db, bob.ID, models.StatusPending, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	t.Run("admin sees every pending request", func(t *testing.T) {
		count, err := repo.CountPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("supervisor sees pending requests of their reports", func(t *testing.T) {
		count, err := repo.CountPendingByManager(ctx, "boss")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("user sees own pending requests", func(t *testing.T) {
		count, err := repo.CountPendingByUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = repo.CountPendingByUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}
