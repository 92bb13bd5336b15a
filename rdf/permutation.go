package rdf

// Permuter lazily yields every ordering of a list of distinct identifiers, starting with
// the list as given. It uses the Johnson-Trotter algorithm, so consecutive permutations
// differ by one adjacent swap. A Permuter cannot be restarted.
type Permuter struct {
	items []string
	// ranks holds the position each current element had in the input; mobility is
	// decided on ranks so the input order is the identity permutation.
	ranks []int
	left  []bool // direction per rank
	done  bool
}

// NewPermuter returns a Permuter over a copy of items.
func NewPermuter(items []string) *Permuter {
	p := &Permuter{
		items: make([]string, len(items)),
		ranks: make([]int, len(items)),
		left:  make([]bool, len(items)),
	}
	copy(p.items, items)
	for i := range p.ranks {
		p.ranks[i] = i
		p.left[i] = true
	}
	return p
}

// HasNext reports whether another permutation is available.
func (p *Permuter) HasNext() bool { return !p.done }

// Next returns the next permutation. The returned slice is owned by the caller.
func (p *Permuter) Next() []string {
	out := make([]string, len(p.items))
	copy(out, p.items)

	// find the largest mobile rank
	k, pos := -1, -1
	n := len(p.ranks)
	for i, r := range p.ranks {
		if r <= k {
			continue
		}
		if p.left[r] && i > 0 && r > p.ranks[i-1] {
			k, pos = r, i
		} else if !p.left[r] && i < n-1 && r > p.ranks[i+1] {
			k, pos = r, i
		}
	}

	if k < 0 {
		p.done = true
		return out
	}

	swap := pos + 1
	if p.left[k] {
		swap = pos - 1
	}
	p.ranks[pos], p.ranks[swap] = p.ranks[swap], p.ranks[pos]
	p.items[pos], p.items[swap] = p.items[swap], p.items[pos]
	for r := k + 1; r < n; r++ {
		p.left[r] = !p.left[r]
	}
	return out
}
