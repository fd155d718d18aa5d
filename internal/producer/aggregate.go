package producer

import (
	"fmt"

	"github.com/napolitain/resource-engine/internal/bonus"
	"github.com/napolitain/resource-engine/internal/models"
)

// aggregate sums one side of every member bonus, recomputed from scratch on each change
type aggregate struct {
	values  models.Resources
	bonuses bonus.Set
	delta   func(b *bonus.Bonus, i int) float64
}

func newAggregate(n int, delta func(*bonus.Bonus, int) float64) aggregate {
	return aggregate{values: models.Zeros(n), delta: delta}
}

func (a *aggregate) add(b *bonus.Bonus) {
	if b.Len() != a.values.Len() {
		panic(fmt.Sprintf("producer: bonus dimension %d, want %d", b.Len(), a.values.Len()))
	}
	a.bonuses.Put(b)
	a.recompute()
}

func (a *aggregate) remove(b *bonus.Bonus) {
	a.bonuses.Remove(b)
	a.recompute()
}

func (a *aggregate) recompute() {
	sums := make([]float64, a.values.Len())
	a.bonuses.Each(func(b *bonus.Bonus) {
		for i := range sums {
			sums[i] += a.delta(b, i)
		}
	})
	a.values = models.NewResources(sums...)
}

// Ratio is the per-second production of every position
type Ratio struct {
	aggregate
}

// NewRatio creates an empty ratio of dimension n
func NewRatio(n int) *Ratio {
	return &Ratio{newAggregate(n, (*bonus.Bonus).Ratio)}
}

// Add puts b in the ratio, replacing the member in the same slot
func (r *Ratio) Add(b *bonus.Bonus) { r.add(b) }

// Remove drops the member occupying the same slot as b
func (r *Ratio) Remove(b *bonus.Bonus) { r.remove(b) }

// Get returns the ratio at a position
func (r *Ratio) Get(i int) float64 { return r.values.Get(i) }

// Values returns a copy of the ratio vector
func (r *Ratio) Values() models.Resources { return r.values.Clone() }

// HasNegative reports whether any position produces less than nothing
func (r *Ratio) HasNegative() bool { return r.values.HasNegative() }

// String returns the ratio vector
func (r *Ratio) String() string { return "ratio:" + r.values.String() }

// Limit is the storage cap of every position
type Limit struct {
	aggregate
}

// NewLimit creates an empty limit of dimension n
func NewLimit(n int) *Limit {
	return &Limit{newAggregate(n, (*bonus.Bonus).Limit)}
}

// Add puts b in the limit, replacing the member in the same slot
func (l *Limit) Add(b *bonus.Bonus) { l.add(b) }

// Remove drops the member occupying the same slot as b.
// Producer never calls it: stored amounts must not shrink retroactively.
func (l *Limit) Remove(b *bonus.Bonus) { l.remove(b) }

// Get returns the limit at a position
func (l *Limit) Get(i int) float64 { return l.values.Get(i) }

// Values returns a copy of the limit vector
func (l *Limit) Values() models.Resources { return l.values.Clone() }

// String returns the limit vector
func (l *Limit) String() string { return "limit:" + l.values.String() }
