package calendar

// seededRandom is the linear congruential generator used for recorded
// shuffles. The recurrence must not change or existing assignments move.
type seededRandom struct {
	state int64
}

func (r *seededRandom) next() float64 {
	r.state = (r.state*9301 + 49297) % 233280
	return float64(r.state) / 233280
}

// SeededShuffle returns a permutation of 0..n-1 from a Fisher–Yates walk
// over the seeded generator. Equal seeds give equal permutations.
func SeededShuffle(n int, seed int64) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	rnd := &seededRandom{state: ((seed % 233280) + 233280) % 233280}
	for m := n; m > 0; {
		i := int(rnd.next() * float64(m))
		m--
		perm[m], perm[i] = perm[i], perm[m]
	}
	return perm
}
