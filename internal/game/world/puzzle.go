package world

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Solve marks pz solved with the given outcome and exposes the items it holds.
func (w *World) Solve(pz *Puzzle, outcome string, p *Player) {
	pz.Solved = true
	pz.Outcome = outcome
	w.refreshAccess(pz)
	w.logPuzzle("solved", pz, p, zap.String("outcome", outcome))
}

// Unsolve marks pz unsolved and hides the items it holds again.
func (w *World) Unsolve(pz *Puzzle, p *Player) {
	pz.Solved = false
	pz.Outcome = ""
	w.refreshAccess(pz)
	w.logPuzzle("unsolved", pz, p)
}

// Fail spends one attempt on pz. Unlimited attempts never run out.
func (w *World) Fail(pz *Puzzle, p *Player) {
	if pz.RemainingAttempts != Unlimited && pz.RemainingAttempts > 0 {
		pz.RemainingAttempts--
	}
	w.logPuzzle("failed", pz, p, zap.Int("remaining_attempts", pz.RemainingAttempts))
}

func (w *World) logPuzzle(event string, pz *Puzzle, p *Player, fields ...zap.Field) {
	base := []zap.Field{zap.String("puzzle", pz.Name), zap.String("room", pz.Room.ID)}
	if p != nil {
		base = append(base, zap.String("player", p.Name))
	}
	w.gamelog.Info(event, append(base, fields...)...)
}

func (w *World) refreshAccess(pz *Puzzle) {
	access := pz.ItemsAccessible()
	for _, it := range pz.Room.ItemsIn(pz) {
		it.Accessible = access
	}
}

// TotalWeight is the summed weight of the finite items in pz.
func TotalWeight(pz *Puzzle) int {
	total := 0
	for _, it := range pz.Room.ItemsIn(pz) {
		if it.Quantity != Unlimited && it.Quantity > 0 {
			total += it.Quantity * it.Weight
		}
	}
	return total
}

// PuzzleContents is the sorted, comma-joined list of prefab ids in pz, one per instance.
func PuzzleContents(pz *Puzzle) string {
	var ids []string
	for _, it := range pz.Room.ItemsIn(pz) {
		if it.Quantity == Unlimited || it.Quantity <= 0 {
			continue
		}
		for i := 0; i < it.Quantity; i++ {
			ids = append(ids, it.Prefab.ID)
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// ReactiveAnswer is what the current contents of a weight or container puzzle
// amount to as an attempt.
func ReactiveAnswer(pz *Puzzle) string {
	if pz.Type == PuzzleWeight {
		return strconv.Itoa(TotalWeight(pz))
	}
	return PuzzleContents(pz)
}
