package account

import (
	"testing"
	"time"

	"vtm/internal/domain/entitlement"
)

func testAnalytics(t *testing.T) Analytics {
	t.Helper()
	a, err := NewAnalytics("US", "en", SurveyUpdate{})
	if err != nil {
		t.Fatalf("NewAnalytics() error = %v", err)
	}
	return a
}

func TestNewAccount_FreeDefaults(t *testing.T) {
	now := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)

	acct, err := NewAccount("subject-1", "VTM-20260130-1001", "alice@example.com", "Alice", testAnalytics(t), now)
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}

	if acct.PlanID() != entitlement.PlanFree {
		t.Errorf("PlanID() = %q, want %q", acct.PlanID(), entitlement.PlanFree)
	}
	if acct.IsPro() {
		t.Error("IsPro() = true for new account")
	}
	if acct.PlanExpiry() != nil {
		t.Error("PlanExpiry() != nil for new account")
	}
	if acct.DailyLimitSeconds() != entitlement.FreeDailyLimitSeconds {
		t.Errorf("DailyLimitSeconds() = %d, want %d", acct.DailyLimitSeconds(), entitlement.FreeDailyLimitSeconds)
	}
	if acct.WalletBalance() != 0 {
		t.Errorf("WalletBalance() = %d, want 0", acct.WalletBalance())
	}
}

func TestNewAccount_NameFallback(t *testing.T) {
	now := time.Now().UTC()

	acct, err := NewAccount("subject-1", "VTM-20260130-1001", "a@b.c", "", testAnalytics(t), now)
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}
	if acct.Name() != "User" {
		t.Errorf("Name() = %q, want %q", acct.Name(), "User")
	}
}

func TestNewAccount_Invalid(t *testing.T) {
	now := time.Now().UTC()
	analytics := testAnalytics(t)

	if _, err := NewAccount("", "VTM-20260130-1001", "", "", analytics, now); err == nil {
		t.Error("NewAccount() without subject id: error = nil")
	}
	if _, err := NewAccount("subject-1", "", "", "", analytics, now); err == nil {
		t.Error("NewAccount() without customer id: error = nil")
	}
}

func TestAccount_AssignCustomerID(t *testing.T) {
	acct, err := ReconstructAccount(ReconstructParams{
		ID:        1,
		SubjectID: "subject-1",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("ReconstructAccount() error = %v", err)
	}

	id := CustomerID("VTM-20260130-1001")
	if err := acct.AssignCustomerID(id); err != nil {
		t.Fatalf("AssignCustomerID() error = %v", err)
	}
	if acct.CustomerID() != id {
		t.Errorf("CustomerID() = %q, want %q", acct.CustomerID(), id)
	}

	// Re-assigning the same value is a no-op.
	if err := acct.AssignCustomerID(id); err != nil {
		t.Errorf("AssignCustomerID() same value error = %v, want nil", err)
	}

	// A different value is rejected; the identifier is immutable.
	if err := acct.AssignCustomerID("VTM-20260130-1002"); err == nil {
		t.Error("AssignCustomerID() different value: error = nil, want error")
	}
	if acct.CustomerID() != id {
		t.Errorf("CustomerID() changed to %q after rejected assignment", acct.CustomerID())
	}
}

func TestAccount_GrantPlan(t *testing.T) {
	now := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	acct, err := NewAccount("subject-1", "VTM-20260130-1001", "", "", testAnalytics(t), now)
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}

	expiry := now.AddDate(0, 0, 30)
	if err := acct.GrantPlan("pro_monthly", expiry, -1); err != nil {
		t.Fatalf("GrantPlan() error = %v", err)
	}

	if !acct.IsPro() {
		t.Error("IsPro() = false after grant")
	}
	if acct.PlanID() != "pro_monthly" {
		t.Errorf("PlanID() = %q, want pro_monthly", acct.PlanID())
	}
	if acct.PlanExpiry() == nil || !acct.PlanExpiry().Equal(expiry) {
		t.Errorf("PlanExpiry() = %v, want %v", acct.PlanExpiry(), expiry)
	}
	if acct.DailyLimitSeconds() != -1 {
		t.Errorf("DailyLimitSeconds() = %d, want -1", acct.DailyLimitSeconds())
	}
}

func TestAccount_GrantPlan_CappedPlanIsPro(t *testing.T) {
	now := time.Now().UTC()
	acct, err := NewAccount("subject-1", "VTM-20260130-1001", "", "", testAnalytics(t), now)
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}

	if err := acct.GrantPlan("daily_4hr", now.AddDate(0, 0, 30), 14400); err != nil {
		t.Fatalf("GrantPlan() error = %v", err)
	}
	if !acct.IsPro() {
		t.Error("IsPro() = false for capped paid plan, want true")
	}
	if acct.DailyLimitSeconds() != 14400 {
		t.Errorf("DailyLimitSeconds() = %d, want 14400", acct.DailyLimitSeconds())
	}
}

func TestAccount_GrantPlan_Invalid(t *testing.T) {
	now := time.Now().UTC()
	acct, err := NewAccount("subject-1", "VTM-20260130-1001", "", "", testAnalytics(t), now)
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}

	if err := acct.GrantPlan("", now, -1); err == nil {
		t.Error("GrantPlan() with empty plan: error = nil")
	}
	if err := acct.GrantPlan(entitlement.PlanFree, now, -1); err == nil {
		t.Error("GrantPlan() with free plan: error = nil")
	}
	if err := acct.GrantPlan("pro_monthly", now, 0); err == nil {
		t.Error("GrantPlan() with zero limit: error = nil")
	}
	if err := acct.GrantPlan("pro_monthly", now, -2); err == nil {
		t.Error("GrantPlan() with limit below sentinel: error = nil")
	}
}

func TestAccount_MergeProfile(t *testing.T) {
	now := time.Now().UTC()
	analytics, err := NewAnalytics("US", "en", SurveyUpdate{Profession: "developer"})
	if err != nil {
		t.Fatalf("NewAnalytics() error = %v", err)
	}
	acct, err := NewAccount("subject-1", "VTM-20260130-1001", "old@example.com", "Old Name", analytics, now)
	if err != nil {
		t.Fatalf("NewAccount() error = %v", err)
	}

	acct.MergeProfile("new@example.com", "", "FR", "fr", SurveyUpdate{Source: "blog"})

	if acct.Email() != "new@example.com" {
		t.Errorf("Email() = %q, want new@example.com", acct.Email())
	}
	if acct.Name() != "Old Name" {
		t.Errorf("Name() = %q, blank update must retain prior value", acct.Name())
	}
	if acct.Analytics().Country != "FR" {
		t.Errorf("Country = %q, want FR", acct.Analytics().Country)
	}
	if acct.Analytics().Survey.Profession != "developer" {
		t.Errorf("Profession = %q, prior survey answer must be retained", acct.Analytics().Survey.Profession)
	}
	if acct.Analytics().Survey.Source != "blog" {
		t.Errorf("Source = %q, want blog", acct.Analytics().Survey.Source)
	}
}

func TestReconstructAccount_Invariants(t *testing.T) {
	now := time.Now().UTC()
	expiry := now.AddDate(0, 0, 10)

	tests := []struct {
		name      string
		params    ReconstructParams
		wantError bool
	}{
		{"valid free", ReconstructParams{ID: 1, SubjectID: "s", CreatedAt: now}, false},
		{"valid pro", ReconstructParams{ID: 1, SubjectID: "s", PlanID: "pro_monthly", IsPro: true, PlanExpiry: &expiry, DailyLimitSeconds: -1, CreatedAt: now}, false},
		{"zero id", ReconstructParams{SubjectID: "s"}, true},
		{"missing subject", ReconstructParams{ID: 1}, true},
		{"pro without expiry", ReconstructParams{ID: 1, SubjectID: "s", IsPro: true, DailyLimitSeconds: -1}, true},
		{"limit below sentinel", ReconstructParams{ID: 1, SubjectID: "s", DailyLimitSeconds: -5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReconstructAccount(tt.params)
			if (err != nil) != tt.wantError {
				t.Errorf("ReconstructAccount() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
