// Package bonus provides the modifiers that feed production ratios and storage limits
package bonus

import "fmt"

// NoKey marks a unique bonus, compared by identity
const NoKey = -1

// Bonus is an immutable contribution to a producer's ratio and limit.
//
// A keyed bonus occupies a slot: two bonuses with the same key are the
// same bonus and adding one replaces the other. A unique bonus is only
// ever the same as itself and always adds a distinct contribution.
type Bonus struct {
	name  string
	key   int
	ratio []float64
	limit []float64
}

// NewKeyed creates a bonus occupying the slot identified by key
func NewKeyed(key int, ratio, limit []float64) *Bonus {
	if key < 0 {
		panic(fmt.Sprintf("bonus: negative key %d", key))
	}
	return newBonus(key, ratio, limit)
}

// NewUnique creates a bonus compared by identity
func NewUnique(ratio, limit []float64) *Bonus {
	return newBonus(NoKey, ratio, limit)
}

func newBonus(key int, ratio, limit []float64) *Bonus {
	if ratio == nil || limit == nil {
		panic("bonus: nil ratio or limit")
	}
	if len(ratio) != len(limit) {
		panic(fmt.Sprintf("bonus: ratio and limit length mismatch: %d vs %d", len(ratio), len(limit)))
	}
	b := &Bonus{
		key:   key,
		ratio: make([]float64, len(ratio)),
		limit: make([]float64, len(limit)),
	}
	copy(b.ratio, ratio)
	copy(b.limit, limit)
	return b
}

// Named returns a copy of the bonus carrying a display name.
// The name takes no part in comparisons, but the copy of a unique bonus
// is a new identity.
func (b *Bonus) Named(name string) *Bonus {
	c := *b
	c.name = name
	return &c
}

// Name returns the display name, empty when unnamed
func (b *Bonus) Name() string {
	return b.name
}

// Key returns the stacking key, NoKey for a unique bonus
func (b *Bonus) Key() int {
	return b.key
}

// Keyed reports whether the bonus occupies a keyed slot
func (b *Bonus) Keyed() bool {
	return b.key != NoKey
}

// Len returns the dimension of the deltas
func (b *Bonus) Len() int {
	return len(b.ratio)
}

// Ratio returns the per-second ratio delta at a position
func (b *Bonus) Ratio(i int) float64 {
	return b.ratio[i]
}

// Limit returns the limit delta at a position
func (b *Bonus) Limit(i int) float64 {
	return b.limit[i]
}

// HasMalus reports whether any ratio delta is negative
func (b *Bonus) HasMalus() bool {
	for _, r := range b.ratio {
		if r < 0 {
			return true
		}
	}
	return false
}

// Same reports whether both bonuses occupy the same slot
func (b *Bonus) Same(other *Bonus) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.key != NoKey {
		return other.key == b.key
	}
	return b == other
}

// String returns a short description of the bonus
func (b *Bonus) String() string {
	id := "unique"
	if b.Keyed() {
		id = fmt.Sprintf("key=%d", b.key)
	}
	if b.name != "" {
		id = b.name + " " + id
	}
	return fmt.Sprintf("bonus(%s ratio=%v limit=%v)", id, b.ratio, b.limit)
}
