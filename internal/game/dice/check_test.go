package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/parlor/internal/game/dice"
)

type constSource int

func (c constSource) Intn(n int) int {
	if int(c) >= n {
		return n - 1
	}
	return int(c)
}

func TestBounds_Thresholds(t *testing.T) {
	b := dice.Bounds{Min: 1, Max: 6}
	assert.Equal(t, 2, b.FailMax())
	assert.Equal(t, 4, b.PartialMax())
}

func TestStatModifier(t *testing.T) {
	b := dice.Bounds{Min: 1, Max: 6}
	assert.Equal(t, 0, dice.StatModifier(5, b))
	assert.Equal(t, 3, dice.StatModifier(10, b))
	assert.Equal(t, -2, dice.StatModifier(1, b))
}

func TestRoller_Check(t *testing.T) {
	b := dice.Bounds{Min: 1, Max: 6}
	r := dice.NewLoggedRoller(constSource(3), zap.NewNop())
	res := r.Check(10, b)
	assert.Equal(t, 4, res.Base)
	assert.Equal(t, 3, res.Modifier)
	assert.Equal(t, 7, res.Total())
}

func TestRoller_Check_BaseWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.IntRange(0, 5).Draw(rt, "min")
		hi := rapid.IntRange(lo+1, 20).Draw(rt, "max")
		v := rapid.IntRange(0, 100).Draw(rt, "v")
		r := dice.NewLoggedRoller(constSource(v), zap.NewNop())
		res := r.Check(5, dice.Bounds{Min: lo, Max: hi})
		assert.GreaterOrEqual(rt, res.Base, lo)
		assert.LessOrEqual(rt, res.Base, hi)
	})
}
