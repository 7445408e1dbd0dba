package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtm/internal/domain/account"
	"vtm/internal/domain/entitlement"
	"vtm/internal/infrastructure/persistence/models"
	apperrors "vtm/internal/shared/errors"
)

func newTestAccount(t *testing.T, subjectID, customerID string) *account.Account {
	t.Helper()

	analytics, err := account.NewAnalytics("US", "en", account.SurveyUpdate{Profession: "developer"})
	require.NoError(t, err)

	acct, err := account.NewAccount(subjectID, account.CustomerID(customerID), "alice@example.com", "Alice", analytics, time.Now().UTC())
	require.NoError(t, err)
	return acct
}

func TestAccountRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	acct := newTestAccount(t, "subject-1", "VTM-20260130-1001")
	require.NoError(t, repo.Create(ctx, acct))
	assert.NotZero(t, acct.ID())

	found, err := repo.GetBySubjectID(ctx, "subject-1")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, acct.SubjectID(), found.SubjectID())
	assert.Equal(t, acct.CustomerID(), found.CustomerID())
	assert.Equal(t, "alice@example.com", found.Email())
	assert.Equal(t, entitlement.PlanFree, found.PlanID())
	assert.False(t, found.IsPro())
	assert.Equal(t, entitlement.FreeDailyLimitSeconds, found.DailyLimitSeconds())
	assert.Equal(t, "developer", found.Analytics().Survey.Profession)
	assert.Equal(t, account.SurveyUnknown, found.Analytics().Survey.UseCase)
}

func TestAccountRepository_GetMissReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	found, err := repo.GetBySubjectID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.GetByCustomerID(ctx, "VTM-20260130-9999")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestAccountRepository_GetByCustomerID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	acct := newTestAccount(t, "subject-1", "VTM-20260130-1001")
	require.NoError(t, repo.Create(ctx, acct))

	found, err := repo.GetByCustomerID(ctx, "VTM-20260130-1001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "subject-1", found.SubjectID())
}

func TestAccountRepository_DuplicateSubjectIsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestAccount(t, "subject-1", "VTM-20260130-1001")))

	err := repo.Create(ctx, newTestAccount(t, "subject-1", "VTM-20260130-1002"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err), "duplicate subject must surface as a conflict, got %v", err)
}

func TestAccountRepository_DuplicateCustomerIDIsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestAccount(t, "subject-1", "VTM-20260130-1001")))

	err := repo.Create(ctx, newTestAccount(t, "subject-2", "VTM-20260130-1001"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err))
}

func TestAccountRepository_AssignCustomerIDIsAtMostOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	// A record that predates identifier assignment.
	legacy := models.AccountModel{
		SubjectID:         "subject-legacy",
		Email:             "old@example.com",
		PlanID:            "free",
		DailyLimitSeconds: 5400,
		CreatedAt:         time.Now().UTC(),
		LastSeenAt:        time.Now().UTC(),
	}
	require.NoError(t, db.Create(&legacy).Error)

	// Two syncs read the record before either backfills.
	first, err := repo.GetBySubjectID(ctx, "subject-legacy")
	require.NoError(t, err)
	require.True(t, first.CustomerID().IsZero())
	second, err := repo.GetBySubjectID(ctx, "subject-legacy")
	require.NoError(t, err)

	assigned, err := repo.AssignCustomerID(ctx, first.ID(), "VTM-20260130-1001")
	require.NoError(t, err)
	assert.True(t, assigned)

	assigned, err = repo.AssignCustomerID(ctx, second.ID(), "VTM-20260130-1002")
	require.NoError(t, err)
	assert.False(t, assigned, "a second backfill must not reassign the identifier")

	stored, err := repo.GetBySubjectID(ctx, "subject-legacy")
	require.NoError(t, err)
	assert.Equal(t, account.CustomerID("VTM-20260130-1001"), stored.CustomerID())

	// Assigning the same value again is still a no-write.
	assigned, err = repo.AssignCustomerID(ctx, first.ID(), "VTM-20260130-1001")
	require.NoError(t, err)
	assert.False(t, assigned)
}

func TestAccountRepository_UpdateNeverWritesCustomerID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	legacy := models.AccountModel{
		SubjectID:         "subject-legacy",
		PlanID:            "free",
		DailyLimitSeconds: 5400,
		CreatedAt:         time.Now().UTC(),
		LastSeenAt:        time.Now().UTC(),
	}
	require.NoError(t, db.Create(&legacy).Error)

	// Two detached copies each pick up a different identifier in memory.
	// Neither reaches the store through the profile write path.
	first, err := repo.GetBySubjectID(ctx, "subject-legacy")
	require.NoError(t, err)
	second, err := repo.GetBySubjectID(ctx, "subject-legacy")
	require.NoError(t, err)

	require.NoError(t, first.AssignCustomerID("VTM-20260130-1001"))
	require.NoError(t, repo.Update(ctx, first))
	require.NoError(t, second.AssignCustomerID("VTM-20260130-1002"))
	require.NoError(t, repo.Update(ctx, second))

	stored, err := repo.GetBySubjectID(ctx, "subject-legacy")
	require.NoError(t, err)
	assert.True(t, stored.CustomerID().IsZero(),
		"only the dedicated assign path may write the identifier, got %q", stored.CustomerID())
}

func TestAccountRepository_UpdateWritesProfileColumnsOnly(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	acct := newTestAccount(t, "subject-1", "VTM-20260130-1001")
	require.NoError(t, repo.Create(ctx, acct))

	// Another path grants a plan directly in the store.
	granted, err := repo.GetBySubjectID(ctx, "subject-1")
	require.NoError(t, err)
	expiry := time.Now().UTC().AddDate(0, 0, 30)
	require.NoError(t, granted.GrantPlan("pro_monthly", expiry, -1))
	require.NoError(t, repo.UpdatePlan(ctx, granted))

	// A sync working from the stale pre-grant object updates the profile.
	acct.MergeProfile("new@example.com", "New Name", "FR", "fr", account.SurveyUpdate{})
	acct.Touch(time.Now().UTC())
	require.NoError(t, repo.Update(ctx, acct))

	// The grant survives the stale profile write.
	found, err := repo.GetBySubjectID(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", found.Email())
	assert.Equal(t, "FR", found.Analytics().Country)
	assert.True(t, found.IsPro(), "profile update must not clobber plan state")
	assert.Equal(t, "pro_monthly", found.PlanID())
	assert.Equal(t, -1, found.DailyLimitSeconds())
}

func TestAccountRepository_UpdatePlanWritesPlanColumnsOnly(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	acct := newTestAccount(t, "subject-1", "VTM-20260130-1001")
	require.NoError(t, repo.Create(ctx, acct))

	expiry := time.Now().UTC().AddDate(0, 0, 365)
	require.NoError(t, acct.GrantPlan("pro_yearly", expiry, -1))

	// The in-memory object also carries an email change, which UpdatePlan
	// must not persist.
	acct.MergeProfile("changed@example.com", "", "US", "en", account.SurveyUpdate{})
	require.NoError(t, repo.UpdatePlan(ctx, acct))

	found, err := repo.GetBySubjectID(ctx, "subject-1")
	require.NoError(t, err)
	assert.True(t, found.IsPro())
	assert.Equal(t, "pro_yearly", found.PlanID())
	require.NotNil(t, found.PlanExpiry())
	assert.WithinDuration(t, expiry, *found.PlanExpiry(), time.Second)
	assert.Equal(t, "alice@example.com", found.Email(), "plan update must not touch profile columns")
}
