package scenario

import (
	"fmt"

	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/joplin-runner/pkg/api"
	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
	"github.com/devicelab-dev/joplin-runner/pkg/menu"
	"github.com/devicelab-dev/joplin-runner/pkg/suite"
	"github.com/devicelab-dev/joplin-runner/pkg/wait"
)

// Sidebar locators.
const (
	syncButtonPath   = "//button/span[contains(@class, 'icon-sync')]"
	addNotebookPath  = "//div[@data-folder-id]/following-sibling::button"
	notebooksDivPath = "//div[starts-with(@class, 'folders')]"
	allNotesClass    = "all-notes"
	tagBarPath       = "//div[@class='tag-bar']/a"
	tagTitlePath     = "//div/i[contains(@class, 'icon-tags')]/.."
	tagsClass        = "tags"
)

// Context menu positions, one-based.
const (
	tagContextDelete = 1
	tagContextRename = 2
)

// Sidebar checks the static parts of the sidebar.
func Sidebar() suite.Class {
	return suite.Class{
		Name: "Sidebar",
		Cases: []suite.Case{
			{Name: "synchronise_button", Run: func(t *suite.T) {
				_, err := t.Sidebar.FindElement(core.ByXPath, syncButtonPath)
				t.Check(err)
			}},
		},
	}
}

type notebookState struct {
	note       core.Element
	notebook   core.Element
	notebookID string
}

// addNotebook opens the new notebook dialog the given way and fills it in.
// A non-nil parent creates a sub-notebook.
func addNotebook(t *suite.T, name, way string, parent core.Element) error {
	logger.Debug("UI: add notebook name=%q way=%s", name, way)

	switch way {
	case WayButton:
		button, err := t.Sidebar.FindElement(core.ByXPath, addNotebookPath)
		if err != nil {
			return err
		}
		if err := button.Click(); err != nil {
			return err
		}
	case WayRightClick:
		target := parent
		if target == nil {
			target = t.NotebooksTitle
		}
		if err := target.ContextClick(); err != nil {
			return err
		}
		if err := t.ChooseContext(menu.NotebookMenu, "New"); err != nil {
			return err
		}
	case WayTopMenu:
		if parent == nil {
			if err := t.Menu.Top(menu.Path{"File", "New notebook"}); err != nil {
				return err
			}
			break
		}
		if err := parent.Click(); err != nil {
			return err
		}
		if err := t.WaitFor(hasClass(parent, "selected")); err != nil {
			return err
		}
		if err := t.Menu.Top(menu.Path{"File", "New sub-notebook"}); err != nil {
			return err
		}
	default:
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported way %q", way))
	}

	return t.FillModalDialog(name, suite.DialogOptions{Notebook: true})
}

func notebookCount(t *suite.T, delta int, msg string, action func() error) {
	before, err := t.NotebookCountAPI()
	t.Check(err)
	t.Check(action())
	t.Check(t.WaitFor(wait.Count(t.NotebookCountAPI, before+delta), wait.Message(msg)))
}

// Notebook covers creating, renaming, deleting and collapsing notebooks.
func Notebook() suite.Class {
	st := &notebookState{}
	c := suite.Class{
		Name: "Notebook",
		SetUp: func(e *suite.Env) error {
			sel, err := e.SelectRandomNote()
			if err != nil {
				return err
			}
			st.note, st.notebook, st.notebookID = sel.Note, sel.Notebook, sel.NotebookID
			return nil
		},
	}

	for _, way := range []string{WayButton, WayRightClick, WayTopMenu} {
		way := way
		c.Cases = append(c.Cases, suite.Case{
			Name: "add_notebook_" + way,
			Run: func(t *suite.T) {
				notebookCount(t, 1, fmt.Sprintf("Adding notebook by %s failed.", way), func() error {
					return addNotebook(t, t.Name(), way, nil)
				})
			},
		})
	}
	for _, way := range []string{WayRightClick, WayTopMenu} {
		way := way
		c.Cases = append(c.Cases, suite.Case{
			Name: "add_sub_notebook_" + way,
			Run: func(t *suite.T) {
				notebookCount(t, 1, fmt.Sprintf("Adding notebook by %s failed.", way), func() error {
					return addNotebook(t, t.Name(), way, st.notebook)
				})
			},
		})
	}

	c.Cases = append(c.Cases,
		suite.Case{Name: "delete_notebook", Run: func(t *suite.T) {
			el, _, err := t.SelectRandomNotebook(st.notebookID)
			t.Check(err)
			notebookCount(t, -1, "Deleting notebook by right click failed.", func() error {
				if err := el.ContextClick(); err != nil {
					return err
				}
				if err := t.ChooseContext(menu.NotebookMenu, "Delete"); err != nil {
					return err
				}
				// confirm button is left of cancel
				return t.Menu.ChooseEntry(1, "left", menu.KeyConfirm)
			})
		}},
		suite.Case{Name: "rename_notebook", Run: func(t *suite.T) {
			name := t.Name()
			t.Check(st.notebook.ContextClick())
			t.Check(t.ChooseContext(menu.NotebookMenu, "Rename"))
			t.Check(t.FillModalDialog(name, suite.DialogOptions{Notebook: true}))

			renamed := func() (string, error) {
				nbs, err := t.API.Notebooks()
				if err != nil {
					return "", err
				}
				for _, nb := range nbs {
					if nb.ID == st.notebookID {
						return nb.Title, nil
					}
				}
				return "", fmt.Errorf("notebook %s vanished", st.notebookID)
			}
			t.Check(t.WaitFor(wait.Equal(renamed, name), wait.Message("Renaming notebook failed.")))
		}},
		suite.Case{Name: "notebook_collapsing", Run: func(t *suite.T) {
			div, err := t.Sidebar.FindElement(core.ByXPath, notebooksDivPath)
			t.Check(err)
			assertToggles(t, div, t.NotebooksTitle.Click)
		}},
		suite.Case{Name: "show_all_notes", Run: func(t *suite.T) {
			button, err := t.Sidebar.FindElement(core.ByClassName, allNotesClass)
			t.Check(err)
			t.Check(button.Click())
			uiMatchesAPI := func() (bool, error) {
				notes, err := t.Notes()
				if err != nil {
					return false, err
				}
				n, err := t.NoteCountAPI()
				return len(notes) == n, err
			}
			t.Check(t.WaitFor(uiMatchesAPI, wait.Message("Note list does not show all notes.")))
		}},
	)
	return c
}

// addTag opens the tag dialog the given way and enters name.
func addTag(t *suite.T, name, way string, note core.Element) error {
	logger.Debug("UI: add tag name=%q way=%s", name, way)

	switch way {
	case WayBottomBar:
		bar, err := t.Editor.FindElement(core.ByXPath, tagBarPath)
		if err != nil {
			return err
		}
		if err := bar.Click(); err != nil {
			return err
		}
	case WayHotkey:
		if err := t.Keyboard.Hotkey("ctrl", "alt", "t"); err != nil {
			return err
		}
	case WayRightClick:
		if err := note.ContextClick(); err != nil {
			return err
		}
		if err := t.ChooseContext(menu.NoteMenu, "Add tags"); err != nil {
			return err
		}
	case WayTopMenu:
		if err := t.Menu.Top(menu.Path{"Note", "Tags"}); err != nil {
			return err
		}
	default:
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported way %q", way))
	}
	return t.FillModalDialog(name, suite.DialogOptions{Tag: true})
}

// Tag covers adding, renaming, deleting and collapsing tags.
func Tag() suite.Class {
	var note core.Element
	c := suite.Class{
		Name: "Tag",
		SetUp: func(e *suite.Env) error {
			sel, err := e.SelectRandomNote()
			if err != nil {
				return err
			}
			note = sel.Note
			// one tag so the rename and delete cases have something to work on
			tag, err := e.API.AddTag(api.Tag{Title: e.Class})
			if err != nil {
				return err
			}
			return e.API.TagNote(tag.ID, sel.NoteID)
		},
		// tags outlive their notes
		TearDown: func(e *suite.Env) error {
			return e.API.DeleteAllTags()
		},
	}

	// Late loading of the note count label can steal the focus while the
	// top menu is open, so these cases get a second run.
	for _, way := range []string{WayBottomBar, WayHotkey, WayRightClick, WayTopMenu} {
		way := way
		c.Cases = append(c.Cases, suite.Case{
			Name:  "add_tag_" + way,
			Retry: true,
			Run: func(t *suite.T) {
				before, err := t.TagCountAPI()
				t.Check(err)
				t.Check(addTag(t, t.Name(), way, note))
				t.Check(t.WaitFor(wait.Count(t.TagCountAPI, before+1),
					wait.Message(fmt.Sprintf("Adding tag by %s failed.", way))))
			},
		})
	}

	c.Cases = append(c.Cases,
		suite.Case{Name: "rename_tag", Run: func(t *suite.T) {
			name := t.Name()
			el, id, err := t.RandomTag()
			t.Check(err)
			t.Check(el.ContextClick())
			t.Check(t.Menu.ChooseEntryDefault(tagContextRename))
			t.Check(t.FillModalDialog(name, suite.DialogOptions{}))

			title := func() (string, error) {
				tags, err := t.API.Tags()
				if err != nil {
					return "", err
				}
				for _, tag := range tags {
					if tag.ID == id {
						return tag.Title, nil
					}
				}
				return "", fmt.Errorf("tag %s vanished", id)
			}
			t.Check(t.WaitFor(wait.Equal(title, name), wait.Message("Renaming tag failed.")))
		}},
		suite.Case{Name: "delete_tag", Run: func(t *suite.T) {
			el, _, err := t.RandomTag()
			t.Check(err)
			before, err := t.TagCountAPI()
			t.Check(err)

			t.Check(el.ContextClick())
			t.Check(t.Menu.ChooseEntryDefault(tagContextDelete))
			t.Check(t.Menu.ChooseEntry(1, "left", menu.KeyConfirm))
			t.Check(t.WaitFor(wait.Count(t.TagCountAPI, before-1),
				wait.Message("Deleting tag by right click failed.")))
		}},
		suite.Case{Name: "tag_collapsing", Run: func(t *suite.T) {
			title, err := t.Sidebar.FindElement(core.ByXPath, tagTitlePath)
			t.Check(err)
			tags, err := t.Sidebar.FindElement(core.ByClassName, tagsClass)
			t.Check(err)
			assertToggles(t, tags, title.Click)
		}},
	)
	return c
}

// assertToggles checks that el is shown, hidden by toggle, and shown again by a second toggle.
func assertToggles(t *suite.T, el core.Element, toggle func() error) {
	for i, want := range []bool{true, false, true} {
		shown, err := el.Displayed()
		t.Check(err)
		require.Equal(t, want, shown, "visibility after %d toggles", i)
		if i < 2 {
			t.Check(toggle())
		}
	}
}
