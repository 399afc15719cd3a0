package sim

import "golang.org/x/exp/slices"

// Predicate selects events out of the future and deferred queues.
type Predicate interface {
	Match(ev *Event) bool
}

// PredicateFunc adapts a plain function to a Predicate.
type PredicateFunc func(ev *Event) bool

// Match calls f(ev).
func (f PredicateFunc) Match(ev *Event) bool { return f(ev) }

// Any matches every event.
var Any Predicate = PredicateFunc(func(*Event) bool { return true })

// None matches no event.
var None Predicate = PredicateFunc(func(*Event) bool { return false })

// TypeIs matches events carrying any of the given tags.
func TypeIs(tags ...Tag) Predicate {
	tags = slices.Clone(tags)
	return PredicateFunc(func(ev *Event) bool {
		return slices.Contains(tags, ev.Tag())
	})
}

// TypeIsNot matches events carrying none of the given tags.
func TypeIsNot(tags ...Tag) Predicate {
	tags = slices.Clone(tags)
	return PredicateFunc(func(ev *Event) bool {
		return !slices.Contains(tags, ev.Tag())
	})
}

// FromSource matches events sent by any of the given entities.
func FromSource(ids ...int) Predicate {
	ids = slices.Clone(ids)
	return PredicateFunc(func(ev *Event) bool {
		return slices.Contains(ids, ev.Source())
	})
}
