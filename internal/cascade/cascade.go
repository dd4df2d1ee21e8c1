// Package cascade evaluates ordered lookup strategies and keeps the first usable result.
package cascade

import (
	"errors"
	"fmt"
)

// ErrEmpty is the miss reason for a lookup that succeeded but returned nothing usable.
var ErrEmpty = errors.New("no usable result")

// Strategy is one alternative way of finding a value.
type Strategy[T any] struct {
	Name   string
	Lookup func() (T, error)
	// Accept filters lookup results; nil accepts everything.
	Accept func(T) bool
}

// Miss records why a strategy produced nothing.
type Miss struct {
	Strategy string
	Err      error
}

func (m Miss) String() string {
	return fmt.Sprintf("%s: %v", m.Strategy, m.Err)
}

// Outcome reports the first accepted value and the misses that preceded it.
type Outcome[T any] struct {
	Value    T
	Strategy string
	Index    int
	Misses   []Miss
}

// First evaluates strategies in order and returns the first accepted result.
// Lookup errors are misses; the boolean is false once all strategies are exhausted.
func First[T any](strategies ...Strategy[T]) (Outcome[T], bool) {
	var out Outcome[T]
	for i, s := range strategies {
		value, err := s.Lookup()
		if err != nil {
			out.Misses = append(out.Misses, Miss{Strategy: s.Name, Err: err})
			continue
		}
		if s.Accept != nil && !s.Accept(value) {
			out.Misses = append(out.Misses, Miss{Strategy: s.Name, Err: ErrEmpty})
			continue
		}
		out.Value = value
		out.Strategy = s.Name
		out.Index = i
		return out, true
	}
	out.Index = -1
	return out, false
}

// Collect runs every strategy in order and feeds accepted items to visit.
// visit returns false to stop the whole collection.
func Collect[T any](visit func(T) bool, strategies ...Strategy[[]T]) []Miss {
	var misses []Miss
	for _, s := range strategies {
		items, err := s.Lookup()
		if err != nil {
			misses = append(misses, Miss{Strategy: s.Name, Err: err})
			continue
		}
		if s.Accept != nil && !s.Accept(items) {
			misses = append(misses, Miss{Strategy: s.Name, Err: ErrEmpty})
			continue
		}
		for _, item := range items {
			if !visit(item) {
				return misses
			}
		}
	}
	return misses
}
