package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtm/internal/domain/billing"
	apperrors "vtm/internal/shared/errors"
)

func TestLedgerRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	entry, err := billing.NewLedgerEntry("ORDER-1", "subject-1", "VTM-20260130-1001", "pro_monthly", "5.99", time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, repo.Create(ctx, entry))
	assert.NotZero(t, entry.ID())

	found, err := repo.GetByOrderID(ctx, "ORDER-1")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, "ORDER-1", found.OrderID())
	assert.Equal(t, "subject-1", found.SubjectID())
	assert.Equal(t, "pro_monthly", found.PlanID())
	assert.Equal(t, "5.99", found.Amount())
	assert.Equal(t, billing.DefaultGateway, found.Gateway())
	assert.Equal(t, billing.LedgerStatusCompleted, found.Status())
}

func TestLedgerRepository_GetMissReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLedgerRepository(db)

	found, err := repo.GetByOrderID(context.Background(), "ORDER-UNKNOWN")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestLedgerRepository_DuplicateOrderIsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	first, err := billing.NewLedgerEntry("ORDER-1", "subject-1", "VTM-20260130-1001", "pro_monthly", "5.99", time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := billing.NewLedgerEntry("ORDER-1", "subject-2", "VTM-20260130-1002", "pro_yearly", "35.99", time.Now().UTC())
	require.NoError(t, err)

	err = repo.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err), "duplicate order id must surface as a conflict, got %v", err)
}
