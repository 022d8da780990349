package dice

import (
	"math"

	"go.uber.org/zap"
)

// statScale is the stat value the modifier curve is centred on.
const statScale = 10

// Bounds is the inclusive range of a single check die.
type Bounds struct {
	Min int
	Max int
}

// FailMax is the highest result that fails outright.
func (b Bounds) FailMax() int {
	return (b.Max-b.Min)/3 + b.Min
}

// PartialMax is the highest result that only partly succeeds.
func (b Bounds) PartialMax() int {
	return 2*(b.Max-b.Min)/3 + b.Min
}

// StatModifier converts a stat value into a roll modifier for the given bounds.
//
// Precondition: b.Max > 0.
func StatModifier(stat int, b Bounds) int {
	half := math.Floor((float64(stat) - statScale/3.0) / 2)
	return int(math.Floor(half + float64(b.Max-b.Min)/float64(b.Max)))
}

// CheckResult is one stat check: a base roll plus the stat modifier.
type CheckResult struct {
	Base     int
	Modifier int
}

// Total is Base + Modifier.
func (c CheckResult) Total() int { return c.Base + c.Modifier }

// Check rolls a die between b.Min and b.Max and adds the modifier for stat.
//
// Precondition: b.Max >= b.Min.
// Postcondition: b.Min <= result.Base <= b.Max.
func (r *Roller) Check(stat int, b Bounds) CheckResult {
	res := CheckResult{
		Base:     b.Min + r.src.Intn(b.Max-b.Min+1),
		Modifier: StatModifier(stat, b),
	}
	r.logger.Debug("stat check",
		zap.Int("stat", stat),
		zap.Int("base", res.Base),
		zap.Int("modifier", res.Modifier),
		zap.Int("total", res.Total()),
	)
	return res
}
