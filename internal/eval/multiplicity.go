package eval

import (
	"sort"

	"github.com/microcad/ucad/internal/value"
)

// Combinations enumerates the Cartesian product of a MultiArgumentMap's
// coefficients, ids advanced in sorted order so the enumeration is
// deterministic (spec.md §4.5 step 4), grounded directly on
// original_source/lang/parse/call/multiplicity.rs's Combinations
// counter-advance algorithm. Unlike the original, a map with zero
// bound parameters (or only Single coefficients) still yields exactly
// one combination rather than none: a niladic or all-Single workbench
// call must still produce its one Workpiece (see DESIGN.md's
// multiplicity Open Question note). A multi-matched parameter bound to
// an empty array yields no combination at all.
type Combinations struct {
	m       *MultiArgumentMap
	ids     []string
	indices []int
	done    bool
	first   bool
}

// NewCombinations prepares the enumeration over m.
func NewCombinations(m *MultiArgumentMap) *Combinations {
	ids := append([]string(nil), m.Order...)
	sort.Strings(ids)
	c := &Combinations{m: m, ids: ids, indices: make([]int, len(ids)), first: true}
	for _, id := range ids {
		if m.Map[id].len() == 0 {
			c.done = true
		}
	}
	return c
}

// Next returns the next combination as id -> value, and whether one
// was produced.
func (c *Combinations) Next() (map[string]value.Value, bool) {
	if c.done {
		return nil, false
	}
	if len(c.ids) == 0 {
		if !c.first {
			return nil, false
		}
		c.first = false
		c.done = true
		return map[string]value.Value{}, true
	}

	combo := make(map[string]value.Value, len(c.ids))
	for i, id := range c.ids {
		combo[id] = c.m.Map[id].at(c.indices[i])
	}
	c.advance()
	return combo, true
}

// advance increments the first id's counter, carrying into the next id
// when one wraps, and marks done once the last id wraps.
func (c *Combinations) advance() {
	for i, id := range c.ids {
		c.indices[i]++
		if c.indices[i] < c.m.Map[id].len() {
			return
		}
		c.indices[i] = 0
		if i == len(c.ids)-1 {
			c.done = true
		}
	}
}

// Count returns the total number of combinations without consuming
// the iterator, for pre-flight diagnostics or tests.
func (m *MultiArgumentMap) Count() int {
	count := 1
	for _, c := range m.Map {
		count *= c.len()
	}
	return count
}
