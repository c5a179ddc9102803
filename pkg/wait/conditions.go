package wait

import (
	"github.com/devicelab-dev/joplin-runner/pkg/core"
)

// Count holds once fetch reports exactly want items.
// Typical use is a data API listing after a UI action created or removed an entity.
func Count(fetch func() (int, error), want int) Condition {
	return Equal(fetch, want)
}

// Equal holds once fetch returns want.
func Equal[T comparable](fetch func() (T, error), want T) Condition {
	return func() (bool, error) {
		got, err := fetch()
		if err != nil {
			return false, err
		}
		return got == want, nil
	}
}

// Not inverts cond. Errors pass through.
func Not(cond Condition) Condition {
	return func() (bool, error) {
		ok, err := cond()
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}

// Bool adapts a predicate that cannot fail.
func Bool(pred func() bool) Condition {
	return func() (bool, error) { return pred(), nil }
}

// ElementState is the state an element has to reach.
type ElementState int

const (
	// Present means attached to the DOM.
	Present ElementState = iota
	// Visible means present and displayed.
	Visible
	// Clickable means visible and enabled.
	Clickable
)

// Finder is the part of a session or element used to look up children.
type Finder interface {
	FindElements(by core.By, value string) ([]core.Element, error)
}

// Element polls f until an element matching the locator reaches state and returns it.
func Element(f Finder, by core.By, value string, state ElementState, opts ...Option) (core.Element, error) {
	var found core.Element
	cond := func() (bool, error) {
		elems, err := f.FindElements(by, value)
		if err != nil {
			return false, err
		}
		if len(elems) == 0 {
			return false, nil
		}
		el := elems[0]
		if state >= Visible {
			shown, err := el.Displayed()
			if err != nil || !shown {
				return false, err
			}
		}
		if state >= Clickable {
			enabled, err := el.Enabled()
			if err != nil || !enabled {
				return false, err
			}
		}
		found = el
		return true, nil
	}

	o := buildOptions(opts)
	if o.Message == "" {
		o.Message = core.ErrElementNotFound.Message + ": " + string(by) + "=" + value
	}
	if err := poll(realClock{}, cond, o); err != nil {
		return nil, err
	}
	return found, nil
}
