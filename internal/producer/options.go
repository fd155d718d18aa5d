package producer

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Clock returns the current time in epoch milliseconds
type Clock func() int64

// WallClock reads the system time
func WallClock() int64 {
	return time.Now().UnixMilli()
}

// ManualClock is a clock advanced explicitly, for simulations and tests.
// It is safe to read from one goroutine while another advances it.
type ManualClock struct {
	now atomic.Int64
}

// NewManualClock creates a clock starting at start milliseconds
func NewManualClock(start int64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(start)
	return c
}

// Now returns the current manual time
func (c *ManualClock) Now() int64 { return c.now.Load() }

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) { c.now.Add(d.Milliseconds()) }

// Set moves the clock to an absolute time
func (c *ManualClock) Set(ms int64) { c.now.Store(ms) }

// Option configures a Producer
type Option func(*Producer)

// WithClock sets the time source used for accrual
func WithClock(c Clock) Option {
	if c == nil {
		panic("producer: nil clock")
	}
	return func(p *Producer) { p.clock = c }
}

// WithLogger sets the logger used for invariant reports
func WithLogger(l zerolog.Logger) Option {
	return func(p *Producer) { p.logger = l }
}
