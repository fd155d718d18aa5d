// Package producer accrues an entity's resources over time from its active bonuses.
//
// A Producer holds no lock. Callers sharing one between goroutines must
// serialize access themselves (see the economy package).
package producer

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/napolitain/resource-engine/internal/bonus"
	"github.com/napolitain/resource-engine/internal/models"
)

// Producer tracks the resources of one entity.
//
// It starts uninitialized: time passing before SetInitialised is discarded,
// so that amounts are not clamped to a zero limit before the entity's
// bonuses are attached.
type Producer struct {
	entity      models.EntityID
	resources   models.Resources
	ratio       *Ratio
	limit       *Limit
	bonuses     bonus.Set
	listeners   []Listener
	lastUpdate  int64
	initialized bool

	clock  Clock
	logger zerolog.Logger
}

// New creates a producer for entity holding a copy of resources, last updated at time.
// Ratio and limit start at zero: no bonus, no production, nothing stored above zero.
func New(entity models.EntityID, time int64, resources models.Resources, opts ...Option) *Producer {
	if time <= 0 {
		panic(fmt.Sprintf("producer: non-positive time %d", time))
	}
	if resources.IsZero() || resources.Len() == 0 {
		panic("producer: empty resource vector")
	}
	n := resources.Len()
	p := &Producer{
		entity:     entity,
		resources:  resources.Clone(),
		ratio:      NewRatio(n),
		limit:      NewLimit(n),
		lastUpdate: time,
		clock:      WallClock,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "Producer").Int64("entity", int64(entity)).Logger()
	p.checkInvariant()
	return p
}

// SetInitialised starts applying elapsed time, counted from now. There is no way back.
func (p *Producer) SetInitialised() {
	if p.initialized {
		return
	}
	p.initialized = true
	if now := p.clock(); now > p.lastUpdate {
		p.lastUpdate = now
	}
	p.checkInvariant()
}

// Initialized reports whether elapsed time is being applied
func (p *Producer) Initialized() bool {
	return p.initialized
}

// AddBonus applies what is owed so far, then adds b to both ratio and limit.
// A bonus in the same slot is replaced. Listeners are notified.
func (p *Producer) AddBonus(b *bonus.Bonus) {
	p.refresh()
	p.limit.Add(b)
	p.ratio.Add(b)
	p.bonuses.Put(b)
	for _, l := range p.listeners {
		l.BonusAdded(b)
	}
	p.checkInvariant()
}

// RemoveBonus applies what is owed so far, then removes b from the ratio only.
// The limit keeps its contribution: stored amounts never shrink retroactively.
func (p *Producer) RemoveBonus(b *bonus.Bonus) {
	p.refresh()
	p.ratio.Remove(b)
	p.bonuses.Remove(b)
	for _, l := range p.listeners {
		l.BonusRemoved(b)
	}
	p.checkInvariant()
}

// AddBonusListener registers l and replays every active bonus to it as added
func (p *Producer) AddBonusListener(l Listener) {
	p.listeners = append(p.listeners, l)
	p.bonuses.Each(l.BonusAdded)
}

// Bonuses returns the active bonuses in the order they were added
func (p *Producer) Bonuses() []*bonus.Bonus {
	return p.bonuses.All()
}

// Resources applies what is owed and returns a copy of the current amounts
func (p *Producer) Resources() models.Resources {
	p.refresh()
	return p.resources.Clone()
}

// Resource applies what is owed and returns the amount at a position
func (p *Producer) Resource(i int) float64 {
	p.refresh()
	return p.resources.Get(i)
}

// Ratio applies what is owed and returns the per-second ratio at a position
func (p *Producer) Ratio(i int) float64 {
	p.refresh()
	return p.ratio.Get(i)
}

// Max returns the limit at a position. It only changes with bonuses, no refresh needed.
func (p *Producer) Max(i int) float64 {
	return p.limit.Get(i)
}

// Ratios applies what is owed and returns a copy of every per-second ratio
func (p *Producer) Ratios() models.Resources {
	p.refresh()
	return p.ratio.Values()
}

// Limits returns a copy of every limit
func (p *Producer) Limits() models.Resources {
	return p.limit.Values()
}

// Dimension returns the number of tracked resources
func (p *Producer) Dimension() int {
	return p.resources.Len()
}

// HasNegativeRatio reports whether a malus makes some position decrease
func (p *Producer) HasNegativeRatio() bool {
	return p.ratio.HasNegative()
}

// Add applies what is owed, then credits toAdd within the limit
func (p *Producer) Add(toAdd models.Resources) {
	p.refresh()
	p.resources.Credit(toAdd, p.limit.values)
	p.checkInvariant()
}

// Buy debits price when every position can afford it.
// Amounts are not refreshed first; call Resources beforehand when freshness matters.
func (p *Producer) Buy(price models.Resources) bool {
	ok := p.resources.Debit(price)
	p.checkInvariant()
	return ok
}

// CanBuy reports whether price is affordable with the amounts as last refreshed
func (p *Producer) CanBuy(price models.Resources) bool {
	return p.resources.SufficientFor(price)
}

// Steal applies what is owed, then removes up to amount from every position.
// Returns what was actually taken, never more than was present.
func (p *Producer) Steal(amount models.Resources) models.Resources {
	p.refresh()
	stolen := p.resources.Take(amount)
	p.checkInvariant()
	return stolen
}

// SetNewValues overwrites the amounts and the last update time, bypassing refresh and limits
func (p *Producer) SetNewValues(time int64, resources models.Resources) {
	p.lastUpdate = time
	p.resources.Set(resources)
	p.checkInvariant()
}

// Snapshot applies what is owed and exports the producer state
func (p *Producer) Snapshot() models.ValueDto {
	p.refresh()
	return models.ValueDto{
		Entity:    p.entity,
		Resources: p.resources.Clone(),
		Time:      p.lastUpdate,
	}
}

// Restore loads a snapshot of the same entity with SetNewValues
func (p *Producer) Restore(dto models.ValueDto) error {
	if dto.Entity != p.entity {
		return fmt.Errorf("restore entity %d into producer of entity %d", dto.Entity, p.entity)
	}
	if dto.Resources.Len() != p.resources.Len() {
		return fmt.Errorf("restore %d resources into producer of dimension %d", dto.Resources.Len(), p.resources.Len())
	}
	p.SetNewValues(dto.Time, dto.Resources)
	return nil
}

// Entity returns the owning entity
func (p *Producer) Entity() models.EntityID {
	return p.entity
}

// LastUpdate returns the time of the last applied accrual, in epoch milliseconds
func (p *Producer) LastUpdate() int64 {
	return p.lastUpdate
}

// String returns the current state without refreshing it
func (p *Producer) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "producer(entity=%d resources=%s last_update=%d ", p.entity, p.resources, p.lastUpdate)
	sb.WriteString(p.ratio.String())
	sb.WriteString(" ")
	sb.WriteString(p.limit.String())
	sb.WriteString(")")
	return sb.String()
}

// refresh applies the production owed since the last update.
// Before initialization the elapsed time is dropped, not banked.
func (p *Producer) refresh() {
	if p.initialized {
		now := p.clock()
		elapsed := now - p.lastUpdate
		if elapsed < 0 {
			// clock behind the last update (restored from a later snapshot)
			elapsed = 0
		} else {
			p.lastUpdate = now
		}
		p.resources.Accrue(p.ratio.values, elapsed, p.limit.values)
	}
	p.checkInvariant()
}

// checkInvariant logs internal inconsistencies; it never stops the caller
func (p *Producer) checkInvariant() bool {
	switch {
	case p.lastUpdate <= 0:
		p.logger.Warn().Int64("last_update", p.lastUpdate).Msg("invariant failed: last update not positive")
		return false
	case p.limit == nil:
		p.logger.Warn().Msg("invariant failed: limit is absent")
		return false
	case p.ratio == nil:
		p.logger.Warn().Msg("invariant failed: ratio is absent")
		return false
	case p.resources.IsZero():
		p.logger.Warn().Msg("invariant failed: resources are absent")
		return false
	}
	return true
}
