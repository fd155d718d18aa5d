package producer

import "github.com/napolitain/resource-engine/internal/bonus"

// Listener is told about every bonus added to or removed from a producer
type Listener interface {
	BonusAdded(b *bonus.Bonus)
	BonusRemoved(b *bonus.Bonus)
}

// ListenerFuncs adapts plain functions to Listener, nil fields are ignored
type ListenerFuncs struct {
	Added   func(b *bonus.Bonus)
	Removed func(b *bonus.Bonus)
}

// BonusAdded calls Added when set
func (l ListenerFuncs) BonusAdded(b *bonus.Bonus) {
	if l.Added != nil {
		l.Added(b)
	}
}

// BonusRemoved calls Removed when set
func (l ListenerFuncs) BonusRemoved(b *bonus.Bonus) {
	if l.Removed != nil {
		l.Removed(b)
	}
}
