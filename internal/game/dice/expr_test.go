package dice_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/parlor/internal/game/dice"
)

// seqSource returns its values in order, wrapped into [0, n).
type seqSource struct {
	vals []int
	i    int
}

func (s *seqSource) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)] % n
	s.i++
	return v
}

func TestParse(t *testing.T) {
	for text, want := range map[string]dice.Expression{
		"d20":      {Count: 1, Sides: 20},
		"2d6":      {Count: 2, Sides: 6},
		"2D6+3":    {Count: 2, Sides: 6, Modifier: 3},
		"4d8-2":    {Count: 4, Sides: 8, Modifier: -2},
		"4d6kh3":   {Count: 4, Sides: 6, Keep: 3},
		" 3d6 + 1": {Count: 3, Sides: 6, Modifier: 1},
	} {
		got, err := dice.Parse(text)
		require.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, text := range []string{"", "banana", "0d6", "2d1", "2d", "d6+x", "3d6kh3", "3d6kh0", "101d6"} {
		_, err := dice.Parse(text)
		assert.ErrorIs(t, err, dice.ErrBadExpression, text)
	}
}

func TestExpression_String(t *testing.T) {
	e, err := dice.Parse("D20")
	require.NoError(t, err)
	assert.Equal(t, "1d20", e.String())
	e, err = dice.Parse("4d6kh3-1")
	require.NoError(t, err)
	assert.Equal(t, "4d6kh3-1", e.String())
}

func TestRoll_KeepsHighest(t *testing.T) {
	e, err := dice.Parse("4d6kh2+1")
	require.NoError(t, err)
	res := e.Roll(&seqSource{vals: []int{0, 5, 2, 3}})
	assert.Equal(t, []int{6, 4}, res.Dice)
	assert.Equal(t, 11, res.Total())
}

func TestRoller_RollExpr(t *testing.T) {
	r := dice.NewLoggedRoller(&seqSource{vals: []int{1, 2}}, zap.NewNop())
	res, err := r.RollExpr("2d6+3")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, res.Dice)
	assert.Equal(t, 8, res.Total())

	_, err = r.RollExpr("nope")
	assert.ErrorIs(t, err, dice.ErrBadExpression)
}

func TestProperty_RollWithinRange(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(rt, "n")
		sides := rapid.IntRange(2, 20).Draw(rt, "sides")
		mod := rapid.IntRange(-5, 5).Draw(rt, "mod")
		e, err := dice.Parse(fmt.Sprintf("%dd%d%+d", n, sides, mod))
		if err != nil {
			rt.Fatalf("parse: %v", err)
		}
		total := e.Roll(src).Total()
		if total < n+mod || total > n*sides+mod {
			rt.Fatalf("%s rolled %d", e, total)
		}
	})
}

func TestCryptoSource_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewCryptoSource().Intn(0) })
}
