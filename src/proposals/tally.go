package proposals

import "sort"

// Count tallies votes by choice.
func Count(votes []Vote) map[int]int {
	counts := make(map[int]int)
	for _, v := range votes {
		counts[v.Choice]++
	}
	return counts
}

// Leaders returns every choice holding the highest count, in ascending order.
// An empty tally has no leaders.
func Leaders(counts map[int]int) []int {
	top := 0
	var leaders []int
	for choice, n := range counts {
		switch {
		case n > top:
			top = n
			leaders = append(leaders[:0], choice)
		case n == top && n > 0:
			leaders = append(leaders, choice)
		}
	}
	sort.Ints(leaders)
	return leaders
}

// Outcome decides the terminal state for a closed tally: a single leader wins,
// anything else (a tie or no votes at all) fails.
func Outcome(counts map[int]int) (Status, *int) {
	leaders := Leaders(counts)
	if len(leaders) != 1 {
		return StatusFailed, nil
	}
	decision := leaders[0]
	return StatusSucceeded, &decision
}
