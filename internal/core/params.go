package core

import (
	"fmt"
	"sort"
)

// ParamSpec describes one adjustable integer parameter ("knob") of a node.
// Bounds are inclusive.
type ParamSpec struct {
	Name    string
	Initial int
	Min     int
	Max     int
}

func (s ParamSpec) validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidParam)
	}
	if s.Min > s.Max {
		return fmt.Errorf("%w: %q has min %d greater than max %d", ErrInvalidParam, s.Name, s.Min, s.Max)
	}
	if s.Initial < s.Min || s.Initial > s.Max {
		return fmt.Errorf("%w: %q initial value %d not in [%d, %d]", ErrInvalidParam, s.Name, s.Initial, s.Min, s.Max)
	}
	return nil
}

// Contains reports whether v lies within the spec's bounds.
func (s ParamSpec) Contains(v int) bool {
	return v >= s.Min && v <= s.Max
}

func validateSpecs(specs []ParamSpec) error {
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("%w: %q declared twice", ErrInvalidParam, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}

// Params is a snapshot of a node's parameter values handed to its transform.
type Params map[string]int

// Int returns the named value, or fallback when the parameter is absent.
func (p Params) Int(name string, fallback int) int {
	if v, ok := p[name]; ok {
		return v
	}
	return fallback
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p Params) clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
