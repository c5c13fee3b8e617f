package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
)

// Store holds the current rules snapshot. Reads are lock-free; a reload
// publishes a whole new validated snapshot atomically, so in-flight
// calculations never observe a half-updated rule set.
type Store struct {
	current atomic.Pointer[Rules]
}

// NewStore validates the rules and returns a store serving them.
func NewStore(rules Rules) (*Store, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	s := &Store{}
	s.current.Store(&rules)
	return s, nil
}

// Snapshot returns the current rules by value.
func (s *Store) Snapshot() Rules {
	return *s.current.Load()
}

// Swap validates the replacement rules and publishes them atomically.
func (s *Store) Swap(rules Rules) error {
	if err := rules.Validate(); err != nil {
		return err
	}
	s.current.Store(&rules)
	return nil
}

// LoadRulesFile reads a JSON rules table from disk.
func LoadRulesFile(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	var rules Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidRules, path, err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}
