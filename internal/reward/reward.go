// Package reward implements the grant math for messages and daily claims.
//
// Everything here is pure decision logic: the caller supplies the user
// record and the current time and applies the resulting deltas itself.
package reward

import "time"

// Streak bonus parameters. Each consecutive day adds 10% to the daily
// reward, capped at 200% (triple the base).
const (
	streakBonusStep = 10
	streakBonusCap  = 200
)

// DailyStatus describes a user's daily-claim eligibility.
type DailyStatus struct {
	CanClaim bool
	// Streak is the candidate streak the claim would record: previous
	// streak + 1 after a consecutive day, 1 after a gap, 0 on the very
	// first claim.
	Streak int
	// TimeLeft is the time until local midnight when the reward was
	// already claimed today.
	TimeLeft time.Duration
}

// Dispenser computes XP and coin grants from the configured constants.
type Dispenser struct {
	msgXP      int64
	msgCoins   int64
	dailyXP    int64
	dailyCoins int64
}

// NewDispenser creates a Dispenser with the given grant constants.
func NewDispenser(msgXP, msgCoins, dailyXP, dailyCoins int64) *Dispenser {
	return &Dispenser{
		msgXP:      msgXP,
		msgCoins:   msgCoins,
		dailyXP:    dailyXP,
		dailyCoins: dailyCoins,
	}
}

// MessageGrant returns the XP and coin amounts for one qualifying message.
func (d *Dispenser) MessageGrant() (xp, coins int64) {
	return d.msgXP, d.msgCoins
}

// CheckDaily decides daily-claim eligibility against the current time.
// The stored claim time contributes only its calendar date: claimed today
// means waiting for local midnight, claimed yesterday continues the
// streak, and any longer gap resets the streak to day one.
func (d *Dispenser) CheckDaily(lastDaily *time.Time, streak int, now time.Time) DailyStatus {
	if lastDaily == nil {
		return DailyStatus{CanClaim: true, Streak: 0}
	}

	today := calendarDay(now, now.Location())
	last := calendarDay(*lastDaily, now.Location())

	if last.Equal(today) {
		midnight := today.AddDate(0, 0, 1)
		return DailyStatus{CanClaim: false, TimeLeft: midnight.Sub(now)}
	}

	if last.Equal(today.AddDate(0, 0, -1)) {
		return DailyStatus{CanClaim: true, Streak: streak + 1}
	}

	return DailyStatus{CanClaim: true, Streak: 1}
}

// DailyAmount returns the coin and XP grant for a claim at the given
// streak, along with the applied bonus percentage.
func (d *Dispenser) DailyAmount(streak int) (coins, xp int64, bonusPct int) {
	bonusPct = streak * streakBonusStep
	if bonusPct > streakBonusCap {
		bonusPct = streakBonusCap
	}
	coins = d.dailyCoins + d.dailyCoins*int64(bonusPct)/100
	xp = d.dailyXP + d.dailyXP*int64(bonusPct)/100
	return coins, xp, bonusPct
}

// calendarDay anchors t's calendar date at midnight in loc. The date is
// read in t's own location, never converted: a DATE column scans back as
// midnight UTC, and converting that instant into a zone west of UTC would
// shift it to the previous day.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}
