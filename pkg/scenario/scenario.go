// Package scenario contains the UI cases run against the desktop application.
//
// Cases drive the window through the session, the OS keyboard and the menu
// navigator, then wait for the effect to show up in the DOM or the data API.
package scenario

import (
	"strings"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/suite"
)

// Ways to trigger an action.
const (
	WayButton     = "button"
	WayHotkey     = "hotkey"
	WayRightClick = "right_click"
	WayTopMenu    = "top_menu"
	WayBottomBar  = "bottom_bar"
)

// All returns every class in execution order.
func All() []suite.Class {
	return []suite.Class{
		Sidebar(),
		Notebook(),
		Tag(),
		Note(),
		Go(),
		View(),
		Header(),
		Editor(),
	}
}

// isSelected reads the selection state from the class list; the DOM
// selected property is not maintained by the application.
func isSelected(el core.Element) (bool, error) {
	class, err := el.Attribute("class")
	if err != nil {
		return false, err
	}
	return strings.Contains(class, "selected"), nil
}

func hasClass(el core.Element, name string) func() (bool, error) {
	return func() (bool, error) {
		class, err := el.Attribute("class")
		if err != nil {
			return false, err
		}
		return strings.Contains(class, name), nil
	}
}
