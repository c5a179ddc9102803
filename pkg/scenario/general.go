package scenario

import (
	"fmt"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/joplin-runner/pkg/api"
	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/menu"
	"github.com/devicelab-dev/joplin-runner/pkg/suite"
)

// Focus locations in the order the cases visit them.
var focusLocations = []string{"sidebar", "note_list", "note_title", "note_body"}

var focusHotkeys = map[string][]string{
	"sidebar":    {"ctrl", "shift", "s"},
	"note_list":  {"ctrl", "shift", "l"},
	"note_title": {"ctrl", "shift", "n"},
	"note_body":  {"ctrl", "shift", "b"},
}

var focusEntries = map[string]string{
	"sidebar":    "Sidebar",
	"note_list":  "Note list",
	"note_title": "Note title",
	"note_body":  "Note body",
}

// goSkip jumps over "Forward", which cannot be selected until "Back" was used.
var goSkip = menu.WithSkip(menu.SkipMap{"Go": 1})

func focus(t *suite.T, way, location string) error {
	if way == WayHotkey {
		return t.Keyboard.Hotkey(focusHotkeys[location]...)
	}
	return t.Menu.Top(menu.Path{"Go", "Focus", focusEntries[location]}, goSkip)
}

func gotoAnything(t *suite.T, way string) error {
	if way == WayHotkey {
		return t.Keyboard.Hotkey("ctrl", "p")
	}
	return t.Menu.Top(menu.Path{"Go", "Goto anything"}, goSkip)
}

// Go covers the Go menu: history, focus and goto anything.
func Go() suite.Class {
	var (
		notebook   core.Element
		notebookID string
		regions    map[string]core.Element
	)
	c := suite.Class{
		Name: "Go",
		SetUp: func(e *suite.Env) error {
			for _, way := range []string{WayHotkey, WayTopMenu} {
				if _, err := e.API.AddNote(api.Note{Title: way, Body: way}); err != nil {
					return err
				}
			}
			// a second notebook to jump away from
			if _, err := e.API.AddNotebook(api.Notebook{Title: "abc"}); err != nil {
				return err
			}

			sel, err := e.SelectRandomNote()
			if err != nil {
				return err
			}
			notebook, notebookID = sel.Notebook, sel.NotebookID

			title, err := e.Editor.FindElement(core.ByClassName, "title-input")
			if err != nil {
				return err
			}
			body, err := e.Editor.FindElement(core.ByClassName, "codeMirrorEditor")
			if err != nil {
				return err
			}
			regions = map[string]core.Element{
				"sidebar":    e.Sidebar,
				"note_list":  e.NoteList,
				"note_title": title,
				"note_body":  body,
			}
			return nil
		},
	}

	// Runs first: afterwards Back is selectable and Forward is not.
	c.Cases = append(c.Cases, suite.Case{Name: "go_back_forward", Run: func(t *suite.T) {
		notes, err := t.Notes()
		t.Check(err)
		require.Len(t, notes, 3, "notes in the current notebook")

		for _, n := range notes {
			t.Check(n.Click())
		}
		assertSelected(t, notes, 2)

		t.Check(t.Menu.Top(menu.Path{"Go", "Back"}))
		assertSelected(t, notes, 1)

		t.Check(t.Menu.Top(menu.Path{"Go", "Forward"}))
		assertSelected(t, notes, 2)
	}})

	for _, way := range []string{WayHotkey, WayTopMenu} {
		for _, loc := range focusLocations {
			way, loc := way, loc
			c.Cases = append(c.Cases, suite.Case{
				Name: fmt.Sprintf("focus_%s_%s", way, loc),
				Run: func(t *suite.T) {
					t.Check(focus(t, way, loc))
					active, err := t.Session.ActiveElement()
					t.Check(err)
					t.AssertContains(regions[loc], active)
				},
			})
		}
	}

	for _, way := range []string{WayHotkey, WayTopMenu} {
		way := way
		c.Cases = append(c.Cases, suite.Case{
			Name: "goto_anything_" + way,
			Run: func(t *suite.T) {
				_, _, err := t.SelectRandomNotebook(notebookID)
				t.Check(err)

				// the menu does not open right after a notebook switch
				time.Sleep(100 * time.Millisecond)
				t.Check(gotoAnything(t, way))
				t.Check(t.FillModalDialog("@"+t.Class, suite.DialogOptions{WaitBeforeConfirm: 200 * time.Millisecond}))

				selected, err := isSelected(notebook)
				t.Check(err)
				require.True(t, selected, "notebook %s not selected", notebookID)
			},
		})
	}
	return c
}

// assertSelected checks that only notes[want] is selected.
func assertSelected(t *suite.T, notes []core.Element, want int) {
	for i, n := range notes {
		selected, err := isSelected(n)
		t.Check(err)
		require.Equal(t, i == want, selected, "note %d selected", i)
	}
}

type zoom int

const (
	zoomIn zoom = iota
	zoomOut
	zoomReset
)

var zoomHotkeys = map[zoom][]string{
	zoomIn:    {"ctrl", "shift", "="},
	zoomOut:   {"ctrl", "-"},
	zoomReset: {"ctrl", "0"},
}

var zoomEntries = map[zoom]string{
	zoomIn:    "Zoom in",
	zoomOut:   "Zoom out",
	zoomReset: "Actual size",
}

func applyZoom(t *suite.T, way string, z zoom, times int) {
	for i := 0; i < times; i++ {
		if way == WayHotkey {
			t.Check(t.Keyboard.Hotkey(zoomHotkeys[z]...))
		} else {
			t.Check(t.Menu.Top(menu.Path{"View", zoomEntries[z]}))
		}
	}
}

type toggle struct {
	key   string
	entry string
}

var toggles = map[string]toggle{
	"sidebar":  {key: "f10", entry: "Toggle sidebar"},
	"notelist": {key: "f11", entry: "Toggle note list"},
}

// View covers the View menu: panes, zoom and layout.
func View() suite.Class {
	c := suite.Class{Name: "View"}

	c.Cases = append(c.Cases, suite.Case{Name: "app_title", Run: func(t *suite.T) {
		title, err := t.DocumentTitle()
		t.Check(err)
		require.Equal(t, "Joplin", title)
	}})

	for _, loc := range []string{"sidebar", "notelist"} {
		for _, way := range []string{WayHotkey, WayTopMenu} {
			loc, way := loc, way
			c.Cases = append(c.Cases, suite.Case{
				Name: fmt.Sprintf("toggle_%s_%s", loc, way),
				Run: func(t *suite.T) {
					el := t.Sidebar
					if loc == "notelist" {
						el = t.NoteList
					}
					tg := toggles[loc]
					assertToggles(t, el, func() error {
						if way == WayHotkey {
							return t.Keyboard.Press(tg.key, 1)
						}
						return t.Menu.Top(menu.Path{"View", tg.entry})
					})
				},
			})
		}
	}

	for _, way := range []string{WayHotkey, WayTopMenu} {
		way := way
		c.Cases = append(c.Cases, suite.Case{
			Name: "zoom_" + way,
			Run: func(t *suite.T) {
				if way == WayTopMenu {
					t.Skip("changing the zoom by top menu is slow and error prone")
				}
				initial := sizes(t)

				// only the editor scales in both directions
				applyZoom(t, way, zoomIn, 2)
				in := sizes(t)
				require.Less(t, in["sidebar"].Height, initial["sidebar"].Height)
				require.Equal(t, initial["sidebar"].Width, in["sidebar"].Width)
				require.Less(t, in["notelist"].Height, initial["notelist"].Height)
				require.Equal(t, initial["notelist"].Width, in["notelist"].Width)
				require.Less(t, in["editor"].Height, initial["editor"].Height)
				require.Less(t, in["editor"].Width, initial["editor"].Width)

				applyZoom(t, way, zoomOut, 4)
				out := sizes(t)
				require.Greater(t, out["sidebar"].Height, initial["sidebar"].Height)
				require.Equal(t, initial["sidebar"].Width, out["sidebar"].Width)
				require.Greater(t, out["notelist"].Height, initial["notelist"].Height)
				require.Equal(t, initial["notelist"].Width, out["notelist"].Width)
				require.Greater(t, out["editor"].Height, initial["editor"].Height)
				require.Greater(t, out["editor"].Width, initial["editor"].Width)

				applyZoom(t, way, zoomReset, 1)
				require.Equal(t, initial, sizes(t))
			},
		})
	}

	// Last: switching the layout makes the cached element references stale.
	c.Cases = append(c.Cases, suite.Case{Name: "application_layout", Run: func(t *suite.T) {
		t.Check(t.Menu.Top(menu.Path{"View", "Change application layout"}))
		t.Check(t.Keyboard.Press("esc", 1))
	}})
	return c
}

func sizes(t *suite.T) map[string]suite.Size {
	out := make(map[string]suite.Size, 3)
	for name, el := range map[string]core.Element{"sidebar": t.Sidebar, "notelist": t.NoteList, "editor": t.Editor} {
		s, err := t.Size(el)
		t.Check(err)
		out[name] = s
	}
	return out
}
