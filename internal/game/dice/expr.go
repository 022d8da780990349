package dice

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxDice caps how many dice one expression may roll.
const MaxDice = 100

// ErrBadExpression wraps every Parse failure.
var ErrBadExpression = errors.New("bad dice expression")

// Expression is a parsed "[N]dS[khK][+M|-M]" roll.
type Expression struct {
	Count    int
	Sides    int
	Keep     int // highest dice kept; 0 keeps all
	Modifier int
}

// Result is one evaluated Expression.
type Result struct {
	Dice     []int // kept dice, highest first when Keep is set
	Modifier int
}

// Total is the sum of the kept dice plus the modifier.
func (r Result) Total() int {
	t := r.Modifier
	for _, d := range r.Dice {
		t += d
	}
	return t
}

// Parse reads an expression such as "d20", "2d6+3", "4d8-2" or "4d6kh3".
// Case and surrounding space are ignored.
//
// Postcondition: on success 1 <= Count <= MaxDice, Sides >= 2 and 0 <= Keep < Count.
func Parse(text string) (Expression, error) {
	s := strings.ToLower(strings.ReplaceAll(text, " ", ""))
	bad := func(why string) (Expression, error) {
		return Expression{}, fmt.Errorf("%w %q: %s", ErrBadExpression, text, why)
	}

	count, rest, ok := strings.Cut(s, "d")
	if !ok {
		return bad("missing 'd'")
	}
	e := Expression{Count: 1}
	if count != "" {
		n, err := strconv.Atoi(count)
		if err != nil || n < 1 || n > MaxDice {
			return bad(fmt.Sprintf("die count must be 1-%d", MaxDice))
		}
		e.Count = n
	}

	if i := strings.IndexAny(rest, "+-"); i >= 0 {
		m, err := strconv.Atoi(rest[i:])
		if err != nil {
			return bad("invalid modifier")
		}
		e.Modifier = m
		rest = rest[:i]
	}

	sides, keep, hasKeep := strings.Cut(rest, "kh")
	n, err := strconv.Atoi(sides)
	if err != nil || n < 2 {
		return bad("dice need at least 2 sides")
	}
	e.Sides = n
	if hasKeep {
		k, err := strconv.Atoi(keep)
		if err != nil || k < 1 || k >= e.Count {
			return bad("kh must be between 1 and the die count")
		}
		e.Keep = k
	}
	return e, nil
}

// Roll evaluates e with src.
//
// Postcondition: every die is in [1, Sides]; len(Dice) is Keep when set, else Count.
func (e Expression) Roll(src Source) Result {
	dice := make([]int, e.Count)
	for i := range dice {
		dice[i] = src.Intn(e.Sides) + 1
	}
	if e.Keep > 0 {
		slices.SortFunc(dice, func(a, b int) int { return b - a })
		dice = dice[:e.Keep]
	}
	return Result{Dice: dice, Modifier: e.Modifier}
}

// String renders e in canonical form, for example "4d6kh3+2".
func (e Expression) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%dd%d", e.Count, e.Sides)
	if e.Keep > 0 {
		fmt.Fprintf(&b, "kh%d", e.Keep)
	}
	if e.Modifier != 0 {
		fmt.Fprintf(&b, "%+d", e.Modifier)
	}
	return b.String()
}
