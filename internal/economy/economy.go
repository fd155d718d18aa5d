// Package economy owns every producer of a running game and serializes access
// to them on a single goroutine.
package economy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/napolitain/resource-engine/internal/bonus"
	"github.com/napolitain/resource-engine/internal/models"
	"github.com/napolitain/resource-engine/internal/producer"
)

var (
	// ErrUnknownEntity is returned for an entity that was never registered
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrDuplicateEntity is returned when registering an entity twice
	ErrDuplicateEntity = errors.New("entity already registered")
	// ErrInsufficient is returned when a non-steal transfer cannot be paid in full
	ErrInsufficient = errors.New("insufficient resources")
	// ErrStopped is returned once Run has returned
	ErrStopped = errors.New("economy stopped")
	// ErrInvalidAmount is returned for a price or transfer with a negative or non-finite position
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidValue is returned when registering a value a producer cannot be built from
	ErrInvalidValue = errors.New("invalid value")
)

// checkAmount rejects amounts that would credit the payer
func checkAmount(amount models.Resources) error {
	if amount.IsZero() {
		return fmt.Errorf("%w: absent vector", ErrInvalidAmount)
	}
	for i := 0; i < amount.Len(); i++ {
		v := amount.Get(i)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %v at position %d", ErrInvalidAmount, v, i)
		}
	}
	return nil
}

// checkValue rejects what producer.New or AddBonus would panic on
func checkValue(value models.ValueDto, bonuses []*bonus.Bonus) error {
	if value.Time <= 0 {
		return fmt.Errorf("%w: non-positive time %d", ErrInvalidValue, value.Time)
	}
	if value.Resources.IsZero() || value.Resources.Len() == 0 {
		return fmt.Errorf("%w: empty resource vector", ErrInvalidValue)
	}
	for _, b := range bonuses {
		if b == nil {
			return fmt.Errorf("%w: nil bonus", ErrInvalidValue)
		}
		if b.Len() != value.Resources.Len() {
			return fmt.Errorf("%w: bonus %q of dimension %d for a value of dimension %d",
				ErrInvalidValue, b.Name(), b.Len(), value.Resources.Len())
		}
	}
	return nil
}

// TransferSink is told about every completed transfer, e.g. a store or journal
type TransferSink interface {
	RecordTransfer(ctx context.Context, t models.TransferDto, at int64) error
}

type account struct {
	owner    models.PlayerID
	producer *producer.Producer
}

type request struct {
	fn   func()
	done chan struct{}
}

// Economy routes every operation through the goroutine running Run
type Economy struct {
	reqs    chan request
	stopped chan struct{}
	clock   producer.Clock
	logger  zerolog.Logger
	sinks   []TransferSink

	// owned by the Run goroutine
	accounts map[models.EntityID]*account
}

// New creates an economy reading time from clock
func New(logger zerolog.Logger, clock producer.Clock, sinks ...TransferSink) *Economy {
	return &Economy{
		reqs:     make(chan request),
		stopped:  make(chan struct{}),
		clock:    clock,
		logger:   logger.With().Str("component", "Economy").Logger(),
		sinks:    sinks,
		accounts: make(map[models.EntityID]*account),
	}
}

// Run serves requests until ctx is done
func (e *Economy) Run(ctx context.Context) error {
	defer close(e.stopped)
	e.logger.Info().Msg("economy started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Int("entities", len(e.accounts)).Msg("economy stopped")
			return ctx.Err()
		case req := <-e.reqs:
			req.fn()
			close(req.done)
		}
	}
}

// call runs fn on the Run goroutine and waits for it
func (e *Economy) call(ctx context.Context, fn func()) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case e.reqs <- req:
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	// once accepted the request always completes
	<-req.done
	return nil
}

// Register creates the producer of entity, attaches bonuses, then initialises it
func (e *Economy) Register(ctx context.Context, entity models.EntityID, owner models.PlayerID, value models.ValueDto, bonuses ...*bonus.Bonus) error {
	if err := checkValue(value, bonuses); err != nil {
		return fmt.Errorf("entity %d: %w", entity, err)
	}
	var err error
	callErr := e.call(ctx, func() {
		if _, ok := e.accounts[entity]; ok {
			err = fmt.Errorf("%w: %d", ErrDuplicateEntity, entity)
			return
		}
		p := producer.New(entity, value.Time, value.Resources,
			producer.WithClock(e.clock), producer.WithLogger(e.logger))
		for _, b := range bonuses {
			p.AddBonus(b)
		}
		p.SetInitialised()
		e.accounts[entity] = &account{owner: owner, producer: p}
		e.logger.Debug().Int64("entity", int64(entity)).Int("owner", int(owner)).Msg("registered")
	})
	if callErr != nil {
		return callErr
	}
	return err
}

// Do runs fn against the producer of entity on the economy goroutine.
// fn must not keep the producer.
func (e *Economy) Do(ctx context.Context, entity models.EntityID, fn func(p *producer.Producer) error) error {
	var err error
	callErr := e.call(ctx, func() {
		a, ok := e.accounts[entity]
		if !ok {
			err = fmt.Errorf("%w: %d", ErrUnknownEntity, entity)
			return
		}
		err = fn(a.producer)
	})
	if callErr != nil {
		return callErr
	}
	return err
}

// Value refreshes and exports one entity
func (e *Economy) Value(ctx context.Context, entity models.EntityID) (models.ValueDto, error) {
	var dto models.ValueDto
	err := e.Do(ctx, entity, func(p *producer.Producer) error {
		dto = p.Snapshot()
		return nil
	})
	return dto, err
}

// Snapshot refreshes and exports every entity, ordered by entity id
func (e *Economy) Snapshot(ctx context.Context) ([]models.ValueDto, error) {
	var values []models.ValueDto
	err := e.call(ctx, func() {
		values = make([]models.ValueDto, 0, len(e.accounts))
		for _, a := range e.accounts {
			values = append(values, a.producer.Snapshot())
		}
	})
	sort.Slice(values, func(i, j int) bool { return values[i].Entity < values[j].Entity })
	return values, err
}

// Purchase refreshes entity, then debits price when it is affordable
func (e *Economy) Purchase(ctx context.Context, entity models.EntityID, price models.Resources) (bool, error) {
	if err := checkAmount(price); err != nil {
		return false, err
	}
	var ok bool
	err := e.Do(ctx, entity, func(p *producer.Producer) error {
		if price.Len() != p.Dimension() {
			return fmt.Errorf("price of dimension %d for entity of dimension %d", price.Len(), p.Dimension())
		}
		p.Resources()
		ok = p.Buy(price)
		return nil
	})
	return ok, err
}

// Transfer moves resources from giver to receiver.
// A steal takes what is there; any other cause pays amount in full or fails with ErrInsufficient.
// The receiver is credited within its limits, so part of the amount can be lost.
func (e *Economy) Transfer(ctx context.Context, giver, receiver models.EntityID, amount models.Resources, cause models.TransferCause) (models.TransferDto, error) {
	if err := checkAmount(amount); err != nil {
		return models.TransferDto{}, err
	}
	var (
		dto models.TransferDto
		at  int64
		err error
	)
	callErr := e.call(ctx, func() {
		from, ok := e.accounts[giver]
		if !ok {
			err = fmt.Errorf("%w: giver %d", ErrUnknownEntity, giver)
			return
		}
		to, ok := e.accounts[receiver]
		if !ok {
			err = fmt.Errorf("%w: receiver %d", ErrUnknownEntity, receiver)
			return
		}
		if giver == receiver {
			err = fmt.Errorf("transfer from entity %d to itself", giver)
			return
		}
		if amount.Len() != from.producer.Dimension() || amount.Len() != to.producer.Dimension() {
			err = fmt.Errorf("transfer of dimension %d between entities of dimension %d and %d",
				amount.Len(), from.producer.Dimension(), to.producer.Dimension())
			return
		}

		moved := amount
		if cause == models.CauseSteal {
			moved = from.producer.Steal(amount)
		} else {
			from.producer.Resources()
			if !from.producer.Buy(amount) {
				err = fmt.Errorf("%w: entity %d cannot give %s", ErrInsufficient, giver, amount)
				return
			}
		}
		to.producer.Add(moved)

		at = e.clock()
		dto = models.TransferDto{
			Receiver:  to.owner,
			Giver:     from.owner,
			Resources: moved.Clone(),
			Cause:     cause,
		}
	})
	if callErr != nil {
		return models.TransferDto{}, callErr
	}
	if err != nil {
		return models.TransferDto{}, err
	}

	e.logger.Info().
		Int("giver", int(dto.Giver)).
		Int("receiver", int(dto.Receiver)).
		Str("cause", cause.String()).
		Str("resources", dto.Resources.String()).
		Msg("transfer")

	for _, s := range e.sinks {
		if err := s.RecordTransfer(ctx, dto, at); err != nil {
			e.logger.Warn().Err(err).Msg("transfer sink failed")
		}
	}
	return dto, nil
}
