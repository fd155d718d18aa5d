package simulation

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/napolitain/resource-engine/internal/bonus"
	"github.com/napolitain/resource-engine/internal/loader"
	"github.com/napolitain/resource-engine/internal/models"
	"github.com/napolitain/resource-engine/internal/producer"
)

// Row records the producer state right after one step
type Row struct {
	TimeMs    int64
	Action    EventType
	Bonus     string
	OK        bool              // false when a buy could not be afforded
	Moved     models.Resources  // amount stolen, or the price paid
	Resources models.Resources
	Ratio     models.Resources
	Limit     models.Resources
}

// Report is the outcome of a scenario run
type Report struct {
	Rows  []Row
	Final models.ValueDto
}

// Runner replays scenarios against bonuses from a catalog
type Runner struct {
	catalog *loader.Catalog
	logger  zerolog.Logger
}

// NewRunner creates a runner resolving bonus names through catalog
func NewRunner(catalog *loader.Catalog, logger zerolog.Logger) *Runner {
	return &Runner{
		catalog: catalog,
		logger:  logger.With().Str("component", "Simulation").Logger(),
	}
}

// Run replays a scenario with a fresh producer and manual clock.
// The same scenario and catalog always give the same report.
func (r *Runner) Run(s *Scenario) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	start, _ := amounts(s.Start)
	clock := producer.NewManualClock(s.StartTime)
	p := producer.New(models.EntityID(s.Entity), s.StartTime, start,
		producer.WithClock(clock.Now), producer.WithLogger(r.logger))

	queue := NewEventQueue()
	for _, step := range s.Steps {
		et, _ := ParseEventType(step.Action)
		queue.Push(Event{Time: step.AtMs, Type: et, Step: step})
	}

	// bonuses added per catalog name, most recent last
	active := make(map[string][]*bonus.Bonus)
	report := &Report{}

	for !queue.Empty() {
		e := queue.Pop()
		clock.Set(s.StartTime + e.Time)
		row := Row{TimeMs: e.Time, Action: e.Type, Bonus: e.Step.Bonus, OK: true}

		switch e.Type {
		case EventAddBonus:
			b, err := r.catalog.Bonus(e.Step.Bonus)
			if err != nil {
				return nil, fmt.Errorf("at %dms: %w", e.Time, err)
			}
			p.AddBonus(b)
			active[e.Step.Bonus] = append(active[e.Step.Bonus], b)
		case EventRemoveBonus:
			added := active[e.Step.Bonus]
			if len(added) == 0 {
				return nil, fmt.Errorf("%w: at %dms: remove_bonus %q that is not active", ErrInvalidScenario, e.Time, e.Step.Bonus)
			}
			p.RemoveBonus(added[len(added)-1])
			active[e.Step.Bonus] = added[:len(added)-1]
		case EventInitialise:
			p.SetInitialised()
		case EventAdd:
			amount, _ := amounts(e.Step.Amount)
			p.Add(amount)
			row.Moved = amount
		case EventBuy:
			price, _ := amounts(e.Step.Amount)
			p.Resources() // buying does not refresh by itself
			row.OK = p.Buy(price)
			row.Moved = price
		case EventSteal:
			amount, _ := amounts(e.Step.Amount)
			row.Moved = p.Steal(amount)
		case EventSample:
		}

		row.Resources = p.Resources()
		row.Ratio = p.Ratios()
		row.Limit = p.Limits()
		report.Rows = append(report.Rows, row)

		r.logger.Debug().
			Int64("at_ms", e.Time).
			Str("action", e.Type.String()).
			Str("resources", row.Resources.String()).
			Msg("step")
	}

	report.Final = p.Snapshot()
	return report, nil
}
