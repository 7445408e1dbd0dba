// Package entitlement computes the effective entitlement of an account at a
// point in time. Evaluation is pure: stored plan state is never rewritten on
// expiry (lazy expiry), only the next write path corrects it.
package entitlement

import "time"

const (
	// PlanFree is the sentinel plan for accounts without a paid plan.
	PlanFree = "free"

	// FreeDailyLimitSeconds is the daily usage quota of the free plan (90 minutes).
	FreeDailyLimitSeconds = 5400

	// UnlimitedSeconds marks a plan without a daily quota.
	UnlimitedSeconds = -1
)

// Snapshot is the stored plan state of an account, as persisted.
type Snapshot struct {
	PlanID            string
	IsPro             bool
	PlanExpiry        *time.Time
	DailyLimitSeconds int
}

// Effective is the entitlement as computed at a point in time, accounting
// for expiry. This is what session tokens carry; it may differ from the
// stored snapshot once the plan has lapsed.
type Effective struct {
	PlanID            string
	IsPro             bool
	PlanExpiry        *time.Time
	DailyLimitSeconds int
}

// Evaluate derives the effective entitlement from a stored snapshot at the
// given time. IsPro denotes "on a paid plan" regardless of the quota
// sentinel; a capped paid plan is still pro.
func Evaluate(s Snapshot, now time.Time) Effective {
	if !s.IsPro || s.PlanExpiry == nil {
		return free()
	}

	if now.After(*s.PlanExpiry) {
		// Lapsed. The stored record keeps its plan fields until the next
		// write path touches them.
		return free()
	}

	limit := s.DailyLimitSeconds
	if limit == 0 {
		limit = UnlimitedSeconds
	}

	expiry := *s.PlanExpiry
	return Effective{
		PlanID:            s.PlanID,
		IsPro:             true,
		PlanExpiry:        &expiry,
		DailyLimitSeconds: limit,
	}
}

func free() Effective {
	return Effective{
		PlanID:            PlanFree,
		IsPro:             false,
		PlanExpiry:        nil,
		DailyLimitSeconds: FreeDailyLimitSeconds,
	}
}
