package usecases

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtm/internal/application/identity"
	"vtm/internal/domain/account"
	"vtm/internal/domain/entitlement"
	apperrors "vtm/internal/shared/errors"
	"vtm/internal/shared/logger"
)

type fakeVerifier struct {
	subject *identity.Subject
	err     error
	calls   int
}

func (f *fakeVerifier) Verify(ctx context.Context, credential string) (*identity.Subject, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.subject, nil
}

type memAccountRepo struct {
	bySubject   map[string]*account.Account
	nextID      uint
	updateCalls int
	failCreate  error
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{bySubject: make(map[string]*account.Account), nextID: 1}
}

func (m *memAccountRepo) Create(ctx context.Context, acct *account.Account) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	if _, exists := m.bySubject[acct.SubjectID()]; exists {
		return apperrors.NewConflictError("account already exists")
	}
	if err := acct.SetID(m.nextID); err != nil {
		return err
	}
	m.nextID++
	m.bySubject[acct.SubjectID()] = acct
	return nil
}

func (m *memAccountRepo) Update(ctx context.Context, acct *account.Account) error {
	m.updateCalls++
	m.bySubject[acct.SubjectID()] = acct
	return nil
}

func (m *memAccountRepo) UpdatePlan(ctx context.Context, acct *account.Account) error {
	m.bySubject[acct.SubjectID()] = acct
	return nil
}

func (m *memAccountRepo) AssignCustomerID(ctx context.Context, accountID uint, customerID account.CustomerID) (bool, error) {
	for _, stored := range m.bySubject {
		if stored.ID() != accountID {
			continue
		}
		if !stored.CustomerID().IsZero() {
			return false, nil
		}
		if err := stored.AssignCustomerID(customerID); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (m *memAccountRepo) GetBySubjectID(ctx context.Context, subjectID string) (*account.Account, error) {
	return m.bySubject[subjectID], nil
}

func (m *memAccountRepo) GetByCustomerID(ctx context.Context, customerID account.CustomerID) (*account.Account, error) {
	for _, acct := range m.bySubject {
		if acct.CustomerID() == customerID {
			return acct, nil
		}
	}
	return nil, nil
}

type stubSequence struct {
	next  uint64
	calls int
}

func (s *stubSequence) Next(ctx context.Context, key string) (uint64, error) {
	s.calls++
	s.next++
	return s.next, nil
}

type fakeIssuer struct {
	lastEffective entitlement.Effective
	lastCustomer  string
}

func (f *fakeIssuer) IssueSession(subjectID, customerID string, eff entitlement.Effective) (string, error) {
	f.lastEffective = eff
	f.lastCustomer = customerID
	return "session-token-" + subjectID, nil
}

func newSyncFixture(subject *identity.Subject) (*SyncAccountUseCase, *memAccountRepo, *stubSequence, *fakeIssuer, *fakeVerifier) {
	verifier := &fakeVerifier{subject: subject}
	repo := newMemAccountRepo()
	seq := &stubSequence{next: 1000}
	issuer := &fakeIssuer{}
	uc := NewSyncAccountUseCase(verifier, repo, account.NewIdentityAllocator(seq), issuer, logger.NewLogger())
	return uc, repo, seq, issuer, verifier
}

func timeNowPlusDays(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, days)
}

func validCommand() SyncAccountCommand {
	return SyncAccountCommand{
		Credential: "id-token",
		Country:    "US",
		Language:   "en",
		Survey:     account.SurveyUpdate{Profession: "developer"},
	}
}

func TestSyncAccount_FirstSyncCreatesAccount(t *testing.T) {
	subject := &identity.Subject{SubjectID: "subject-alice", Email: "alice@example.com", Name: "Alice"}
	uc, repo, seq, issuer, _ := newSyncFixture(subject)

	result, err := uc.Execute(context.Background(), validCommand())
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, "session-token-subject-alice", result.SessionToken)
	assert.True(t, strings.HasPrefix(result.CustomerID, "VTM-"), "customer id = %q", result.CustomerID)
	assert.True(t, strings.HasSuffix(result.CustomerID, "1001"), "first allocation draws 1001, got %q", result.CustomerID)
	assert.Equal(t, 1, seq.calls)

	assert.False(t, result.Effective.IsPro)
	assert.Equal(t, entitlement.PlanFree, result.Effective.PlanID)
	assert.Equal(t, entitlement.FreeDailyLimitSeconds, result.Effective.DailyLimitSeconds)

	stored := repo.bySubject["subject-alice"]
	require.NotNil(t, stored)
	assert.Equal(t, "alice@example.com", stored.Email())
	assert.Equal(t, "developer", stored.Analytics().Survey.Profession)
	assert.Equal(t, account.SurveyUnknown, stored.Analytics().Survey.UseCase)
	assert.Equal(t, issuer.lastCustomer, result.CustomerID)
}

func TestSyncAccount_SecondSyncIsPureRefresh(t *testing.T) {
	subject := &identity.Subject{SubjectID: "subject-alice", Email: "alice@example.com", Name: "Alice"}
	uc, repo, seq, _, _ := newSyncFixture(subject)
	ctx := context.Background()

	first, err := uc.Execute(ctx, validCommand())
	require.NoError(t, err)

	cmd := validCommand()
	cmd.Country = "FR"
	cmd.Survey = account.SurveyUpdate{Source: "blog"}
	second, err := uc.Execute(ctx, cmd)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.CustomerID, second.CustomerID, "identifier must be stable across syncs")
	assert.Equal(t, 1, seq.calls, "refresh must not draw a new sequence value")
	assert.Equal(t, 1, repo.updateCalls)

	stored := repo.bySubject["subject-alice"]
	assert.Equal(t, "FR", stored.Analytics().Country)
	assert.Equal(t, "developer", stored.Analytics().Survey.Profession, "blank update retains prior answer")
	assert.Equal(t, "blog", stored.Analytics().Survey.Source)
}

func TestSyncAccount_InvalidSurveyRejectedBeforeAnyMutation(t *testing.T) {
	subject := &identity.Subject{SubjectID: "subject-alice"}
	uc, repo, seq, _, verifier := newSyncFixture(subject)

	cmd := validCommand()
	cmd.Survey.Profession = "astronaut"

	_, err := uc.Execute(context.Background(), cmd)
	require.Error(t, err)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)

	assert.Equal(t, 0, verifier.calls, "validation precedes credential verification")
	assert.Equal(t, 0, seq.calls)
	assert.Empty(t, repo.bySubject)
}

func TestSyncAccount_MissingCountryRejected(t *testing.T) {
	uc, _, _, _, _ := newSyncFixture(&identity.Subject{SubjectID: "s"})

	cmd := validCommand()
	cmd.Country = ""

	_, err := uc.Execute(context.Background(), cmd)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetAppError(err).Type)
}

func TestSyncAccount_VerifierRejectionPropagates(t *testing.T) {
	uc, repo, _, _, verifier := newSyncFixture(nil)
	verifier.err = apperrors.NewInvalidCredentialError()

	_, err := uc.Execute(context.Background(), validCommand())
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthError(err))
	assert.Empty(t, repo.bySubject)
}

func TestSyncAccount_ConcurrentRegistrationReusesWinner(t *testing.T) {
	subject := &identity.Subject{SubjectID: "subject-alice", Email: "alice@example.com", Name: "Alice"}
	uc, repo, seq, _, _ := newSyncFixture(subject)
	ctx := context.Background()

	// The winner's record already exists, but Create has not observed it
	// at lookup time: simulate by failing Create with a conflict after
	// seeding the winner.
	winner, err := uc.Execute(ctx, validCommand())
	require.NoError(t, err)

	repo.failCreate = apperrors.NewConflictError("account already exists")

	// Force the create path by removing then restoring the record around
	// the initial lookup is not possible with this fake, so call the
	// internal path directly.
	acctBefore := repo.bySubject["subject-alice"]
	acct, created, err := uc.createAccount(ctx, subject, validCommand())
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, acctBefore.CustomerID(), acct.CustomerID())
	assert.Equal(t, winner.CustomerID, acct.CustomerID().String())
	assert.Equal(t, 2, seq.calls, "the losing allocation is drawn and skipped")
}

func TestSyncAccount_BackfillsMissingCustomerID(t *testing.T) {
	subject := &identity.Subject{SubjectID: "subject-legacy", Email: "old@example.com", Name: "Legacy"}
	uc, repo, seq, _, _ := newSyncFixture(subject)
	ctx := context.Background()

	// A record that predates identifier assignment.
	legacy, err := account.ReconstructAccount(account.ReconstructParams{
		ID:        1,
		SubjectID: "subject-legacy",
		Email:     "old@example.com",
	})
	require.NoError(t, err)
	repo.bySubject["subject-legacy"] = legacy
	repo.nextID = 2

	result, err := uc.Execute(ctx, validCommand())
	require.NoError(t, err)

	assert.False(t, result.Created)
	assert.False(t, repo.bySubject["subject-legacy"].CustomerID().IsZero())
	assert.Equal(t, repo.bySubject["subject-legacy"].CustomerID().String(), result.CustomerID)
	assert.Equal(t, 1, seq.calls)

	// A further sync keeps the backfilled identifier.
	again, err := uc.Execute(ctx, validCommand())
	require.NoError(t, err)
	assert.Equal(t, result.CustomerID, again.CustomerID)
	assert.Equal(t, 1, seq.calls)
}

func TestSyncAccount_ConcurrentBackfillKeepsFirstIdentifier(t *testing.T) {
	subject := &identity.Subject{SubjectID: "subject-legacy", Email: "old@example.com", Name: "Legacy"}
	uc, repo, seq, _, _ := newSyncFixture(subject)
	ctx := context.Background()

	// Two syncs read the same pre-identifier record before either backfills:
	// each works from its own detached copy.
	reconstruct := func() *account.Account {
		legacy, err := account.ReconstructAccount(account.ReconstructParams{
			ID:        1,
			SubjectID: "subject-legacy",
			Email:     "old@example.com",
		})
		require.NoError(t, err)
		return legacy
	}
	first := reconstruct()
	second := reconstruct()
	repo.bySubject["subject-legacy"] = first
	repo.nextID = 2

	require.NoError(t, uc.refreshAccount(ctx, first, subject, validCommand()))
	require.False(t, first.CustomerID().IsZero())
	winner := first.CustomerID()

	require.NoError(t, uc.refreshAccount(ctx, second, subject, validCommand()))

	assert.Equal(t, winner, second.CustomerID(), "the second backfill adopts the stored identifier")
	assert.Equal(t, winner, repo.bySubject["subject-legacy"].CustomerID())
	assert.Equal(t, 2, seq.calls, "the losing allocation is drawn and skipped")
}

func TestSyncAccount_SessionCarriesEffectiveEntitlement(t *testing.T) {
	subject := &identity.Subject{SubjectID: "subject-alice"}
	uc, repo, _, issuer, _ := newSyncFixture(subject)
	ctx := context.Background()

	_, err := uc.Execute(ctx, validCommand())
	require.NoError(t, err)
	assert.False(t, issuer.lastEffective.IsPro)

	// Grant a plan out of band, then sync again: the fresh session
	// reflects the grant.
	acct := repo.bySubject["subject-alice"]
	require.NoError(t, acct.GrantPlan("pro_monthly", timeNowPlusDays(30), -1))

	result, err := uc.Execute(ctx, validCommand())
	require.NoError(t, err)
	assert.True(t, result.Effective.IsPro)
	assert.Equal(t, "pro_monthly", issuer.lastEffective.PlanID)
	assert.Equal(t, -1, issuer.lastEffective.DailyLimitSeconds)
}

func TestSyncAccount_LapsedPlanYieldsFreeSession(t *testing.T) {
	subject := &identity.Subject{SubjectID: "subject-alice"}
	uc, repo, _, _, _ := newSyncFixture(subject)
	ctx := context.Background()

	_, err := uc.Execute(ctx, validCommand())
	require.NoError(t, err)

	acct := repo.bySubject["subject-alice"]
	require.NoError(t, acct.GrantPlan("pro_monthly", timeNowPlusDays(-1), -1))

	result, err := uc.Execute(ctx, validCommand())
	require.NoError(t, err)

	assert.False(t, result.Effective.IsPro)
	assert.Equal(t, entitlement.PlanFree, result.Effective.PlanID)

	// Lazy expiry: the stored record still carries the lapsed plan.
	assert.True(t, repo.bySubject["subject-alice"].IsPro())
	assert.Equal(t, "pro_monthly", repo.bySubject["subject-alice"].PlanID())
}
