package frontend

// Candidate is one input of a fastest-of-N comparator tree.
type Candidate struct {
	Timing uint8
	Hit    bool
}

// Key returns the 6-bit comparison key: the timing with a not-hit flag above
// it, so that any hit candidate is earlier than any missing one.
func (c Candidate) Key() uint8 {
	k := c.Timing & NotHit
	if !c.Hit {
		k |= 1 << TimingWidth
	}

	return k
}

// Fastest returns the position of the winning candidate. Candidates are
// reduced pairwise, (0,1), (2,3), ..., with an odd last candidate passed to
// the next level unchanged. A pair with equal keys keeps the earlier
// candidate. Fastest returns -1 for an empty list.
func Fastest(cands []Candidate) int {
	if len(cands) == 0 {
		return -1
	}

	level := make([]int, len(cands))
	for i := range level {
		level[i] = i
	}

	for len(level) > 1 {
		next := make([]int, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			a, b := level[i], level[i+1]
			if cands[b].Key() < cands[a].Key() {
				next = append(next, b)
			} else {
				next = append(next, a)
			}
		}

		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}

		level = next
	}

	return level[0]
}

// FastestTiming returns the timing of the winner, or NotHit when no candidate
// fired.
func FastestTiming(cands []Candidate) uint8 {
	w := Fastest(cands)
	if w < 0 || !cands[w].Hit {
		return NotHit
	}

	return cands[w].Timing
}
