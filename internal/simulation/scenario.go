// Package simulation replays a timeline of bonus changes and transactions
// against a producer on a manual clock.
package simulation

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/napolitain/resource-engine/internal/models"
)

// ErrInvalidScenario is wrapped by every scenario content error
var ErrInvalidScenario = errors.New("invalid scenario")

// Step is one timeline entry
type Step struct {
	AtMs   int64              `yaml:"at_ms"`
	Action string             `yaml:"action"`
	Bonus  string             `yaml:"bonus,omitempty"`
	Amount map[string]float64 `yaml:"amount,omitempty"`
}

// Scenario describes a producer's starting state and what happens to it
type Scenario struct {
	Entity    int64              `yaml:"entity"`
	StartTime int64              `yaml:"start_time"`
	Start     map[string]float64 `yaml:"start"`
	Steps     []Step             `yaml:"steps"`
}

// LoadScenario reads and validates a YAML scenario
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(raw)
}

// ParseScenario decodes and validates YAML scenario content
func ParseScenario(raw []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario can be run without consulting a catalog
func (s *Scenario) Validate() error {
	if s.StartTime <= 0 {
		return fmt.Errorf("%w: start_time must be positive, got %d", ErrInvalidScenario, s.StartTime)
	}
	if _, err := amounts(s.Start); err != nil {
		return fmt.Errorf("%w: start: %v", ErrInvalidScenario, err)
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrInvalidScenario, i, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	et, ok := ParseEventType(st.Action)
	if !ok {
		return fmt.Errorf("unknown action %q", st.Action)
	}
	if st.AtMs < 0 {
		return fmt.Errorf("negative at_ms %d", st.AtMs)
	}
	switch et {
	case EventAddBonus, EventRemoveBonus:
		if st.Bonus == "" {
			return fmt.Errorf("%s needs a bonus", st.Action)
		}
	case EventAdd, EventBuy, EventSteal:
		if len(st.Amount) == 0 {
			return fmt.Errorf("%s needs an amount", st.Action)
		}
		if _, err := amounts(st.Amount); err != nil {
			return err
		}
	}
	return nil
}

// amounts converts resource names to a game-dimension vector
func amounts(byName map[string]float64) (models.Resources, error) {
	byType := make(map[models.ResourceType]float64, len(byName))
	for name, v := range byName {
		rt, err := models.ParseResourceType(name)
		if err != nil {
			return models.Resources{}, err
		}
		byType[rt] = v
	}
	return models.FromMap(byType), nil
}
