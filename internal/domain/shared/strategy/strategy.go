// Package strategy holds the pieces shared by pluggable policies.
package strategy

import (
	"fmt"
	"regexp"
)

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,31}$`)

// Strategy is a named policy selectable at runtime
type Strategy interface {
	Name() string
	Description() string
}

// ValidateName checks that name can be used as a strategy key in requests
// and configuration: lowercase, starting with a letter, at most 32 chars.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid strategy name %q", name)
	}
	return nil
}

// BaseStrategy carries the name and description for embedding
type BaseStrategy struct {
	name        string
	description string
}

func NewBaseStrategy(name, description string) BaseStrategy {
	return BaseStrategy{name: name, description: description}
}

func (s BaseStrategy) Name() string { return s.name }

func (s BaseStrategy) Description() string { return s.description }

// Info is the listing form of a registered strategy
type Info struct {
	Name        string
	Description string
	Default     bool
}
