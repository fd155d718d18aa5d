package bonus

// Set is an insertion-ordered collection of bonuses where each slot holds at most one member
type Set struct {
	members []*Bonus
}

// Put inserts b, removing any member occupying the same slot first.
// A replaced member loses its position; b is always appended last.
func (s *Set) Put(b *Bonus) {
	s.Remove(b)
	s.members = append(s.members, b)
}

// Remove deletes the member occupying the same slot as b.
// Returns the removed member, or nil when none matched.
func (s *Set) Remove(b *Bonus) *Bonus {
	for i, m := range s.members {
		if b.Same(m) {
			s.members = append(s.members[:i], s.members[i+1:]...)
			return m
		}
	}
	return nil
}

// Contains reports whether a member occupies the same slot as b
func (s *Set) Contains(b *Bonus) bool {
	for _, m := range s.members {
		if b.Same(m) {
			return true
		}
	}
	return false
}

// Len returns the number of members
func (s *Set) Len() int {
	return len(s.members)
}

// Each calls fn for every member in insertion order
func (s *Set) Each(fn func(*Bonus)) {
	for _, m := range s.members {
		fn(m)
	}
}

// All returns a copy of the members in insertion order
func (s *Set) All() []*Bonus {
	out := make([]*Bonus, len(s.members))
	copy(out, s.members)
	return out
}
