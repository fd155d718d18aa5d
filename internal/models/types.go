package models

import "fmt"

// ResourceType is a position in a game resource vector
type ResourceType int

const (
	Metal ResourceType = iota
	Energy
	Credits
	Research
	Population
)

// GameDimension is the number of positions in a game resource vector
const GameDimension = 5

// AllResourceTypes returns all resource types in vector order
func AllResourceTypes() []ResourceType {
	return []ResourceType{Metal, Energy, Credits, Research, Population}
}

// String returns the lowercase name used in catalogs and scenarios
func (rt ResourceType) String() string {
	switch rt {
	case Metal:
		return "metal"
	case Energy:
		return "energy"
	case Credits:
		return "credits"
	case Research:
		return "research"
	case Population:
		return "population"
	default:
		return fmt.Sprintf("resource(%d)", int(rt))
	}
}

// ParseResourceType returns the resource type for a catalog name
func ParseResourceType(name string) (ResourceType, error) {
	switch name {
	case "metal":
		return Metal, nil
	case "energy":
		return Energy, nil
	case "credits":
		return Credits, nil
	case "research":
		return Research, nil
	case "population":
		return Population, nil
	}
	return 0, fmt.Errorf("unknown resource type %q", name)
}

// EntityID identifies the entity (city, base) owning a producer
type EntityID int64

// PlayerID identifies a player taking part in a transfer
type PlayerID int

// TransferCause tells why resources moved between two players
type TransferCause int

const (
	CauseTrade TransferCause = iota
	CauseSteal
	CauseGift
	CauseTax
)

// AllTransferCauses returns all known causes in code order
func AllTransferCauses() []TransferCause {
	return []TransferCause{CauseTrade, CauseSteal, CauseGift, CauseTax}
}

// String returns a string representation of the cause
func (c TransferCause) String() string {
	switch c {
	case CauseTrade:
		return "trade"
	case CauseSteal:
		return "steal"
	case CauseGift:
		return "gift"
	case CauseTax:
		return "tax"
	default:
		return "unknown"
	}
}

// TransferCauseOf returns the cause for a wire code
func TransferCauseOf(code int) (TransferCause, error) {
	c := TransferCause(code)
	switch c {
	case CauseTrade, CauseSteal, CauseGift, CauseTax:
		return c, nil
	}
	return 0, fmt.Errorf("unknown transfer cause %d", code)
}

// ValueDto carries the resources of one entity at a given time
type ValueDto struct {
	Entity    EntityID
	Resources Resources
	Time      int64 // epoch milliseconds
}

// Equal reports whether both DTOs describe the same state, resources compared with tolerance
func (d ValueDto) Equal(other ValueDto) bool {
	return d.Entity == other.Entity && d.Time == other.Time && d.Resources.Equal(other.Resources)
}

// TransferDto describes resources moved from a giver to a receiver
type TransferDto struct {
	Receiver  PlayerID
	Giver     PlayerID
	Resources Resources
	Cause     TransferCause
}

// Equal reports whether both transfers are the same, resources compared with tolerance
func (d TransferDto) Equal(other TransferDto) bool {
	return d.Receiver == other.Receiver &&
		d.Giver == other.Giver &&
		d.Cause == other.Cause &&
		d.Resources.Equal(other.Resources)
}

// TransferOrder asks to move resources from one entity to another
type TransferOrder struct {
	Giver     EntityID
	Receiver  EntityID
	Resources Resources
	Cause     TransferCause
}
