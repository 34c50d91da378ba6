package talent

import (
	"time"

	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
)

// Bonus for the first post of a calendar day
const PostBonus int64 = 1

// RuleEngine decides daily-post and QR check-in rewards. It never reads a
// clock: callers pass now. Calendar days are taken in the engine's location.
type RuleEngine struct {
	loc *time.Location
}

func NewRuleEngine(loc *time.Location) *RuleEngine {
	if loc == nil {
		loc = time.Local
	}
	return &RuleEngine{loc}
}

func (e *RuleEngine) Location() *time.Location {
	return e.loc
}

// Local midnight of the day t falls on
func (e *RuleEngine) Day(t time.Time) time.Time {
	y, m, d := t.In(e.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.loc)
}

// Same year, month and day in the engine's location; time of day is ignored
func (e *RuleEngine) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(e.loc).Date()
	by, bm, bd := b.In(e.loc).Date()
	return ay == by && am == bm && ad == bd
}

// Seconds since local midnight
func (e *RuleEngine) SecondOfDay(t time.Time) int {
	h, m, s := t.In(e.loc).Clock()
	return h*3600 + m*60 + s
}

// Daily post bonus: +1 for the first post of a calendar day, nothing after
func (e *RuleEngine) EvaluatePostSubmission(state models.RewardState, now time.Time) models.Decision {
	if state.LastPostRewardDate != nil && e.SameDay(*state.LastPostRewardDate, now) {
		return models.Decision{Rejection: models.RejectAlreadyClaimedToday, State: state}
	}
	day := e.Day(now)
	next := state
	next.TalentScore += PostBonus
	next.LastPostRewardDate = &day
	return models.Decision{Granted: true, Amount: PostBonus, State: next}
}

// QR check-in bonus. Gates are checked in order: weekday, time window, one
// claim per calendar day.
func (e *RuleEngine) EvaluateQRCheckin(state models.RewardState, now time.Time, policy models.CheckinPolicy) models.Decision {
	if policy.RestrictToWeekday != nil && now.In(e.loc).Weekday() != *policy.RestrictToWeekday {
		return models.Decision{Rejection: models.RejectWrongDay, State: state}
	}
	if policy.Window != nil && !policy.Window.Contains(e.SecondOfDay(now)) {
		return models.Decision{Rejection: models.RejectOutsideWindow, State: state}
	}
	if state.LastCheckinRewardDate != nil && e.SameDay(*state.LastCheckinRewardDate, now) {
		return models.Decision{Rejection: models.RejectAlreadyClaimedToday, State: state}
	}
	day := e.Day(now)
	next := state
	next.TalentScore += policy.BonusAmount
	next.LastCheckinRewardDate = &day
	return models.Decision{Granted: true, Amount: policy.BonusAmount, State: next}
}
