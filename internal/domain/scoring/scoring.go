// Package scoring computes point deltas for finished duels.
//
// The policy is a pure function of the match duration and the final score
// string; it performs no I/O and holds no state.
package scoring

import (
	"strconv"
	"strings"
)

// Point table constants.
const (
	basePoints = 10

	fastLimitSeconds   = 60  // below this the match is suspiciously fast
	quickLimitSeconds  = 300 // quick finishes earn the biggest speed bonus
	normalLimitSeconds = 600 // finishes past this earn base points only

	quickBonus  = 5
	normalBonus = 3

	fastWinnerPoints = 0
	fastLoserPenalty = -10

	closeMarginLimit  = 2 // |A-B| <= 2 is a close game
	mediumMarginLimit = 5 // |A-B| <= 5 is a contested game

	closeBonus  = 2 // loser credit for a close game
	mediumBonus = 1 // winner credit for a contested game
)

// Points is the point delta pair produced for a terminated match.
type Points struct {
	Winner int
	Loser  int
}

// Calculate maps a match duration in seconds and an "A-B" formatted final
// score to the winner/loser point deltas.
//
// Matches shorter than a minute are treated as suspect: the winner earns
// nothing and the loser is penalized. Otherwise the winner earns base
// points plus a speed bonus, and both sides may earn a margin bonus when
// the final score was close.
func Calculate(durationSeconds int, finalScore string) Points {
	if durationSeconds < fastLimitSeconds {
		return Points{Winner: fastWinnerPoints, Loser: fastLoserPenalty}
	}

	p := Points{Winner: basePoints}
	switch {
	case durationSeconds < quickLimitSeconds:
		p.Winner += quickBonus
	case durationSeconds <= normalLimitSeconds:
		p.Winner += normalBonus
	}

	m, ok := margin(finalScore)
	if !ok {
		return p
	}
	switch {
	case m <= closeMarginLimit:
		// A close game credits the loser; the winner keeps the speed
		// bonus only.
		p.Loser += closeBonus
	case m <= mediumMarginLimit:
		p.Winner += mediumBonus
	}
	return p
}

// margin parses an "A-B" score string and returns |A-B|. The second return
// is false when the string is not in the expected shape, in which case the
// margin bonus is skipped entirely.
func margin(finalScore string) (int, bool) {
	a, b, found := strings.Cut(strings.TrimSpace(finalScore), "-")
	if !found {
		return 0, false
	}
	left, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, false
	}
	right, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, false
	}
	if left < right {
		left, right = right, left
	}
	return left - right, true
}
