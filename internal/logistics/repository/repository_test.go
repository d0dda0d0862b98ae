package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bitfantasy/ips-logistics/internal/logistics/entity"
	"github.com/bitfantasy/ips-logistics/internal/logistics/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationConditionalUpdates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	testutil.SeedMaterial(t, db, "M-001", "Cement", 0)
	testutil.SeedProject(t, db, "p1", "P-001")
	pm := testutil.SeedAllocation(t, db, "p1", "M-001", 10, 0)

	ok, err := repos.Allocation.IncrementUsed(ctx, pm.ID, 6)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repos.Allocation.IncrementUsed(ctx, pm.ID, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repos.Allocation.IncrementUsed(ctx, pm.ID, 4)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repos.Allocation.FindByPair(ctx, "p1", "M-001")
	require.NoError(t, err)
	assert.Equal(t, 10, got.QuantityUsed)
	assert.Equal(t, 0, got.Remaining())

	ok, err = repos.Allocation.SetAssigned(ctx, pm.ID, 9)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repos.Allocation.SetAssigned(ctx, pm.ID, 25)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repos.Allocation.FindByPair(ctx, "p1", "M-404")
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := repos.Allocation.FindByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Material)
	assert.Equal(t, "Cement", items[0].Material.Name)
}

func TestAssignmentAggregates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	req := &entity.MaterialRequest{ID: "r1", ProjectID: "p1", MaterialID: "M-001", RequestedQuantity: 10, RequestDate: time.Now(), Status: entity.StatusPending}
	require.NoError(t, repos.Request.Create(ctx, req))

	sum, err := repos.Assignment.SumAssigned(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 0, sum)

	for i, status := range []string{entity.StatusPending, entity.StatusSent} {
		require.NoError(t, repos.Assignment.Create(ctx, &entity.DeliveryAssignment{
			ID:                fmt.Sprintf("a%d", i+1),
			MaterialRequestID: "r1",
			DriverID:          "d1",
			AssignedQuantity:  3,
			DeliveryDate:      time.Now(),
			Status:            status,
		}))
	}

	sum, err = repos.Assignment.SumAssigned(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 6, sum)

	open, err := repos.Assignment.CountOpenByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), open)

	pending, err := repos.Request.CountByProjectAndStatus(ctx, "p1", entity.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	locked, err := repos.Request.FindByIDForUpdate(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 10, locked.RequestedQuantity)

	_, err = repos.Assignment.FindByIDForUpdate(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	testutil.SeedUser(t, db, "u1", "Ann", "ann@example.com", "DRIVER")
	testutil.SeedUser(t, db, "u2", "Ben", "", entity.RoleWorker)

	drivers, err := repos.User.FindByRole(ctx, entity.RoleDriver)
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "u1", drivers[0].ID)

	taken, err := repos.User.MailTaken(ctx, "ann@example.com", "")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = repos.User.MailTaken(ctx, "ann@example.com", "u1")
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, repos.User.Delete(ctx, "u2"))
	assert.ErrorIs(t, repos.User.Delete(ctx, "u2"), ErrNotFound)

	_, err = repos.User.FindByMail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaterialSearchAndActivityLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	testutil.SeedMaterial(t, db, "M-001", "Cement", 1)
	testutil.SeedMaterial(t, db, "M-002", "Sand", 2)
	testutil.SeedMaterial(t, db, "M-003", "White cement", 3)

	items, total, err := repos.Material.FindAll(ctx, "cement", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	require.NoError(t, repos.ActivityLog.LogActivity(ctx, "material_request", "r1", "assign", entity.StatusPending, entity.StatusAssigned,
		"assigned", "h1", map[string]interface{}{"quantity": 3}))
	require.NoError(t, repos.ActivityLog.LogActivity(ctx, "material_request", "r1", "deliver", entity.StatusAssigned, entity.StatusSent,
		"delivered", "h1", nil))

	logs, count, err := repos.ActivityLog.FindByEntity(ctx, "material_request", "r1", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, logs, 1)
}
