// Package level implements the XP-to-level progression math.
//
// Level thresholds follow a geometric series: reaching level 2 costs the
// base amount, and every following level costs the previous requirement
// multiplied by the growth factor, truncated to an integer. The truncation
// at each step is deliberate and defines the exact thresholds.
package level

// Calculator maps accumulated XP to a level and back. It is pure: both
// directions are deterministic functions of the configured curve.
type Calculator struct {
	baseXP     int64
	multiplier float64
}

// NewCalculator creates a Calculator for the given progression curve.
func NewCalculator(baseXP int64, multiplier float64) *Calculator {
	return &Calculator{baseXP: baseXP, multiplier: multiplier}
}

// FromXP returns the level for an accumulated XP total. 0 XP is level 1.
func (c *Calculator) FromXP(xp int64) int {
	lvl := 1
	required := c.baseXP
	for xp >= required {
		xp -= required
		lvl++
		required = int64(float64(required) * c.multiplier)
	}
	return lvl
}

// CumulativeXPFor returns the total XP needed to just reach the given
// level. Level 1 costs nothing.
func (c *Calculator) CumulativeXPFor(lvl int) int64 {
	var total int64
	required := c.baseXP
	for i := 1; i < lvl; i++ {
		total += required
		required = int64(float64(required) * c.multiplier)
	}
	return total
}

// Progress reports where an XP total sits inside its level band: the level,
// the XP earned within the band, and the full width of the band.
func (c *Calculator) Progress(xp int64) (lvl int, into, span int64) {
	lvl = c.FromXP(xp)
	floor := c.CumulativeXPFor(lvl)
	ceil := c.CumulativeXPFor(lvl + 1)
	return lvl, xp - floor, ceil - floor
}

// XPToNext returns how much more XP is needed to reach the next level.
func (c *Calculator) XPToNext(xp int64) int64 {
	return c.CumulativeXPFor(c.FromXP(xp)+1) - xp
}
