package scenario

import (
	"fmt"
	"strings"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/joplin-runner/pkg/api"
	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
	"github.com/devicelab-dev/joplin-runner/pkg/menu"
	"github.com/devicelab-dev/joplin-runner/pkg/suite"
)

// Editor locators.
const (
	propertyValuesPath   = "//div[@class='note-property-box']/*[2]"
	propertyButtonPath   = "//div[@class='note-property-box']/../..//button"
	codeMirrorParentPath = "//div[@class='codeMirrorEditor']/.."
	viewerParentPath     = "//iframe[@class='noteTextViewer']/.."
)

// dateLayout is how the application renders timestamps.
const dateLayout = "02/01/2006 15:04"

// validDates accepts the current and the previous minute.
func validDates(now time.Time) []string {
	return []string{now.Add(-time.Minute).Format(dateLayout), now.Format(dateLayout)}
}

func toolbarButtons(t *suite.T) []core.Element {
	toolbar, err := t.Editor.FindElement(core.ByClassName, "editor-toolbar")
	t.Check(err)
	buttons, err := toolbar.FindElements(core.ByClassName, "button")
	t.Check(err)
	return buttons
}

// Header covers the note header and the properties dialog.
func Header() suite.Class {
	return suite.Class{
		Name: "Header",
		SetUp: func(e *suite.Env) error {
			// the created note only shows up in the selected notebook
			_, _, err := e.SelectRandomNotebook()
			return err
		},
		Cases: []suite.Case{{Name: "note_properties", Run: func(t *suite.T) {
			id := t.IDs.Next()
			_, err := t.API.AddNote(api.Note{ID: id, Title: t.Name()})
			t.Check(err)

			note, err := t.FindPresent(core.ByXPath, suite.NotePath(id))
			t.Check(err)
			t.Check(note.Click())
			valid := validDates(time.Now())

			label, err := t.Editor.FindElement(core.ByClassName, "updated-time-label")
			t.Check(err)
			text, err := label.Text()
			t.Check(err)
			require.Contains(t, valid, text)

			buttons := toolbarButtons(t)
			require.NotEmpty(t, buttons)
			t.Check(buttons[len(buttons)-1].Click())
			defer func() {
				// close the dialog, ok or cancel does not matter
				button, err := t.Editor.FindElement(core.ByXPath, propertyButtonPath)
				if err == nil {
					err = button.Click()
				}
				if err != nil {
					logger.Warn("close note properties: %v", err)
				}
			}()

			props, err := t.Editor.FindElements(core.ByXPath, propertyValuesPath)
			t.Check(err)
			if len(props) == 0 {
				// the dialog can be empty at first
				props, err = t.Editor.FindElements(core.ByXPath, propertyValuesPath)
				t.Check(err)
			}
			require.GreaterOrEqual(t, len(props), 7, "note properties")

			texts := make([]string, len(props))
			for i, p := range props {
				texts[i], err = p.Text()
				t.Check(err)
			}
			require.Contains(t, valid, texts[0], "created")
			require.Contains(t, valid, texts[1], "updated")
			require.Equal(t, "Markdown", texts[5])
			require.Equal(t, id, texts[6])
		}}},
	}
}

func toggleLayout(t *suite.T, way string) error {
	switch way {
	case WayButton:
		buttons := toolbarButtons(t)
		if len(buttons) < 3 {
			return fmt.Errorf("editor toolbar has %d buttons", len(buttons))
		}
		return buttons[2].Click()
	case WayHotkey:
		return t.Keyboard.Hotkey("ctrl", "l")
	case WayTopMenu:
		return t.Menu.Top(menu.Path{"View", "Toggle editor layout"})
	}
	return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported way %q", way))
}

// Editor covers the editor layout.
func Editor() suite.Class {
	c := suite.Class{
		Name: "Editor",
		SetUp: func(e *suite.Env) error {
			// the editor is only rendered for a selected note
			_, err := e.SelectRandomNote()
			return err
		},
	}

	for _, way := range []string{WayButton, WayHotkey, WayTopMenu} {
		way := way
		c.Cases = append(c.Cases, suite.Case{
			Name: "toggle_layout_" + way,
			Run: func(t *suite.T) {
				editor, err := t.Editor.FindElement(core.ByXPath, codeMirrorParentPath)
				t.Check(err)
				viewer, err := t.Editor.FindElement(core.ByXPath, viewerParentPath)
				t.Check(err)

				check := func(wantEditor, wantViewer bool) {
					shown, err := editor.Displayed()
					t.Check(err)
					require.Equal(t, wantEditor, shown, "editor displayed")
					style, err := viewer.Attribute("style")
					t.Check(err)
					require.Equal(t, wantViewer, !strings.Contains(style, "max-width: 1px"), "viewer displayed")
				}

				// split, editor only, viewer only, split
				check(true, true)
				t.Check(toggleLayout(t, way))
				check(true, false)
				t.Check(toggleLayout(t, way))
				check(false, true)
				t.Check(toggleLayout(t, way))
				check(true, true)
			},
		})
	}
	return c
}
