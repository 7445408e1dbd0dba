// Package account holds the entitlement record aggregate: one per external
// identity subject, carrying the customer identifier, plan state, and
// profile analytics.
package account

import (
	"fmt"
	"time"

	"vtm/internal/domain/entitlement"
)

// Account is the aggregate root. Plan-state fields (planID, isPro,
// planExpiry, dailyLimitSeconds) are only ever written through GrantPlan on
// the payment reconciliation path; sync writes touch profile fields only.
type Account struct {
	id                uint
	subjectID         string
	customerID        CustomerID
	email             string
	name              string
	planID            string
	isPro             bool
	planExpiry        *time.Time
	dailyLimitSeconds int
	walletBalance     int64
	analytics         Analytics
	createdAt         time.Time
	lastSeenAt        time.Time
}

// NewAccount creates the record for a subject seen for the first time, with
// free-plan defaults.
func NewAccount(subjectID string, customerID CustomerID, email, name string, analytics Analytics, now time.Time) (*Account, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("subject ID is required")
	}
	if customerID.IsZero() {
		return nil, fmt.Errorf("customer ID is required")
	}
	if name == "" {
		name = "User"
	}

	now = now.UTC()
	return &Account{
		subjectID:         subjectID,
		customerID:        customerID,
		email:             email,
		name:              name,
		planID:            entitlement.PlanFree,
		isPro:             false,
		planExpiry:        nil,
		dailyLimitSeconds: entitlement.FreeDailyLimitSeconds,
		walletBalance:     0,
		analytics:         analytics,
		createdAt:         now,
		lastSeenAt:        now,
	}, nil
}

// ReconstructParams carries persisted state back into the aggregate.
type ReconstructParams struct {
	ID                uint
	SubjectID         string
	CustomerID        CustomerID
	Email             string
	Name              string
	PlanID            string
	IsPro             bool
	PlanExpiry        *time.Time
	DailyLimitSeconds int
	WalletBalance     int64
	Analytics         Analytics
	CreatedAt         time.Time
	LastSeenAt        time.Time
}

// ReconstructAccount rebuilds an account from persistence.
func ReconstructAccount(p ReconstructParams) (*Account, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("account ID cannot be zero")
	}
	if p.SubjectID == "" {
		return nil, fmt.Errorf("subject ID is required")
	}
	if p.PlanID == "" {
		p.PlanID = entitlement.PlanFree
	}
	if p.DailyLimitSeconds == 0 {
		p.DailyLimitSeconds = entitlement.FreeDailyLimitSeconds
	}
	if p.DailyLimitSeconds < entitlement.UnlimitedSeconds {
		return nil, fmt.Errorf("invalid daily limit: %d", p.DailyLimitSeconds)
	}
	if p.IsPro && p.PlanExpiry == nil {
		return nil, fmt.Errorf("pro account without plan expiry")
	}

	return &Account{
		id:                p.ID,
		subjectID:         p.SubjectID,
		customerID:        p.CustomerID,
		email:             p.Email,
		name:              p.Name,
		planID:            p.PlanID,
		isPro:             p.IsPro,
		planExpiry:        p.PlanExpiry,
		dailyLimitSeconds: p.DailyLimitSeconds,
		walletBalance:     p.WalletBalance,
		analytics:         p.Analytics,
		createdAt:         p.CreatedAt,
		lastSeenAt:        p.LastSeenAt,
	}, nil
}

func (a *Account) ID() uint               { return a.id }
func (a *Account) SubjectID() string      { return a.subjectID }
func (a *Account) CustomerID() CustomerID { return a.customerID }
func (a *Account) Email() string          { return a.email }
func (a *Account) Name() string           { return a.name }
func (a *Account) PlanID() string         { return a.planID }
func (a *Account) IsPro() bool            { return a.isPro }
func (a *Account) PlanExpiry() *time.Time { return a.planExpiry }
func (a *Account) DailyLimitSeconds() int { return a.dailyLimitSeconds }
func (a *Account) WalletBalance() int64   { return a.walletBalance }
func (a *Account) Analytics() Analytics   { return a.analytics }
func (a *Account) CreatedAt() time.Time   { return a.createdAt }
func (a *Account) LastSeenAt() time.Time  { return a.lastSeenAt }

// SetID sets the account ID (only for persistence layer use)
func (a *Account) SetID(id uint) error {
	if a.id != 0 {
		return fmt.Errorf("account ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("account ID cannot be zero")
	}
	a.id = id
	return nil
}

// AssignCustomerID backfills an identifier onto a record that predates
// identifier assignment. Assigning a second time is rejected; the identifier
// is immutable once set.
func (a *Account) AssignCustomerID(id CustomerID) error {
	if id.IsZero() {
		return fmt.Errorf("customer ID is required")
	}
	if !a.customerID.IsZero() {
		if a.customerID == id {
			return nil
		}
		return fmt.Errorf("customer ID is already assigned")
	}
	a.customerID = id
	return nil
}

// MergeProfile applies incoming profile and survey fields. Survey answers
// are retained when the update leaves them blank.
func (a *Account) MergeProfile(email, name, country, inputLanguage string, survey SurveyUpdate) {
	if email != "" {
		a.email = email
	}
	if name != "" {
		a.name = name
	}
	a.analytics = a.analytics.Merge(country, inputLanguage, survey)
}

// Touch records that the subject was seen.
func (a *Account) Touch(now time.Time) {
	a.lastSeenAt = now.UTC()
}

// GrantPlan applies a paid plan to the account. Only the payment
// reconciliation path may call this; isPro denotes the paid tier regardless
// of the quota sentinel.
func (a *Account) GrantPlan(planID string, expiry time.Time, dailyLimitSeconds int) error {
	if planID == "" || planID == entitlement.PlanFree {
		return fmt.Errorf("cannot grant plan %q", planID)
	}
	if dailyLimitSeconds < entitlement.UnlimitedSeconds || dailyLimitSeconds == 0 {
		return fmt.Errorf("invalid daily limit: %d", dailyLimitSeconds)
	}

	expiry = expiry.UTC()
	a.planID = planID
	a.isPro = true
	a.planExpiry = &expiry
	a.dailyLimitSeconds = dailyLimitSeconds
	return nil
}

// Snapshot exposes the stored plan state for entitlement evaluation.
func (a *Account) Snapshot() entitlement.Snapshot {
	return entitlement.Snapshot{
		PlanID:            a.planID,
		IsPro:             a.isPro,
		PlanExpiry:        a.planExpiry,
		DailyLimitSeconds: a.dailyLimitSeconds,
	}
}
