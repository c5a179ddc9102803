package menu

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/input"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// Key names pressed by the navigator.
const (
	KeyOpen    = "alt"
	KeyRight   = "right"
	KeyDown    = "down"
	KeyUp      = "up"
	KeyConfirm = "enter"
)

// Path names one entry per menu level, starting at the root.
type Path []string

func (p Path) String() string {
	return strings.Join(p, " > ")
}

// SkipMap holds, per parent entry name, how many of its children cannot
// receive keyboard focus (separators, disabled items) and are therefore
// jumped over by the cursor.
type SkipMap map[string]int

type navOptions struct {
	skip      SkipMap
	direction string
}

// NavOption tunes a single Navigate call.
type NavOption func(*navOptions)

// WithSkip sets the non-selectable entry counts.
func WithSkip(skip SkipMap) NavOption {
	return func(o *navOptions) { o.skip = skip }
}

// WithDirection sets the key used to move inside submenus.
func WithDirection(key string) NavOption {
	return func(o *navOptions) { o.direction = key }
}

// Navigator turns menu paths into key presses.
type Navigator struct {
	kb     input.Keyboard
	layout Layout
}

// NewNavigator creates a navigator for layout driven through kb.
func NewNavigator(kb input.Keyboard, layout Layout) *Navigator {
	return &Navigator{kb: kb, layout: layout}
}

// Layout returns the layout the navigator resolves paths against.
func (n *Navigator) Layout() Layout {
	return n.layout
}

// ChooseEntry presses key position times and then confirm once.
func (n *Navigator) ChooseEntry(position int, key, confirm string) error {
	if position < 0 {
		return fmt.Errorf("menu position must not be negative, got %d", position)
	}
	if err := n.kb.Press(key, position); err != nil {
		return err
	}
	return n.kb.Press(confirm, 1)
}

// ChooseEntryDefault moves down position times and confirms with enter.
func (n *Navigator) ChooseEntryDefault(position int) error {
	return n.ChooseEntry(position, KeyDown, KeyConfirm)
}

// Navigate opens the menu bar and selects path.
//
// The root entry is reached with alt and right presses and its submenu
// opened with one down press. Every following segment is resolved among the
// children of the previous one and selected with ChooseEntry, offset by the
// skip count registered for that parent. Negative skip counts are rejected
// before any key is pressed. A segment that cannot be resolved
// yields a menu_resolution error; keys pressed up to that point stay pressed.
func (n *Navigator) Navigate(path Path, opts ...NavOption) error {
	o := navOptions{direction: KeyDown}
	for _, opt := range opts {
		opt(&o)
	}
	if len(path) == 0 {
		return core.ErrMenuResolution.WithMessage("empty menu path")
	}
	for parent, count := range o.skip {
		if count < 0 {
			return core.ErrMenuResolution.
				WithMessage(fmt.Sprintf("negative skip %d for %q", count, parent)).
				WithDetails(map[string]interface{}{"parent": parent})
		}
	}

	logger.Debug("Selecting %s from top menu.", path)

	i, err := n.layout.Index(path[0])
	if err != nil {
		return err
	}
	if err := n.kb.Press(KeyOpen, 1); err != nil {
		return err
	}
	if err := n.kb.Press(KeyRight, i); err != nil {
		return err
	}
	if err := n.kb.Press(KeyDown, 1); err != nil {
		return err
	}

	current := n.layout[i]
	for _, segment := range path[1:] {
		j, err := current.Index(segment)
		if err != nil {
			return err
		}
		offset := j - o.skip[current.Name]
		if offset < 0 {
			return core.ErrMenuResolution.
				WithMessage(fmt.Sprintf("menu entry %q: skip %d for %q exceeds its index %d",
					segment, o.skip[current.Name], current.Name, j)).
				WithDetails(map[string]interface{}{"segment": segment, "parent": current.Name})
		}
		if err := n.ChooseEntry(offset, o.direction, KeyConfirm); err != nil {
			return err
		}
		current = current.Subentries[j]
	}
	return nil
}

// Top is Navigate under its menu bar name.
func (n *Navigator) Top(path Path, opts ...NavOption) error {
	return n.Navigate(path, opts...)
}
