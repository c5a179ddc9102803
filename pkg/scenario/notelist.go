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
	"github.com/devicelab-dev/joplin-runner/pkg/wait"
)

// Note list locators.
const (
	newNoteButtonClass = "new-note-button"
	newTodoButtonClass = "new-todo-button"
	titleInputPath     = "//input[@class='title-input']"
)

// todoCheckboxPath locates the checkbox next to a to-do in the note list.
func todoCheckboxPath(id string) string {
	return suite.NotePath(id) + "/..//input"
}

// addNote creates a note or to-do the given way and types its title.
func addNote(t *suite.T, title, way string, todo bool) error {
	logger.Debug("UI: add note title=%q way=%s todo=%v", title, way, todo)

	switch way {
	case WayButton:
		class := newNoteButtonClass
		if todo {
			class = newTodoButtonClass
		}
		button, err := t.NoteList.FindElement(core.ByClassName, class)
		if err != nil {
			return err
		}
		if err := button.Click(); err != nil {
			return err
		}
	case WayHotkey:
		key := "n"
		if todo {
			key = "t"
		}
		if err := t.Keyboard.Hotkey("ctrl", key); err != nil {
			return err
		}
	case WayTopMenu:
		entry := "New note"
		if todo {
			entry = "New to-do"
		}
		if err := t.Menu.Top(menu.Path{"File", entry}); err != nil {
			return err
		}
	default:
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported way %q", way))
	}

	// the new note focuses its title
	input, err := t.Editor.FindElement(core.ByXPath, titleInputPath)
	if err != nil {
		return err
	}
	return input.SendKeys(title)
}

func noteCount(t *suite.T, delta int, msg string, action func() error) {
	before, err := t.NoteCountAPI()
	t.Check(err)
	t.Check(action())
	t.Check(t.WaitFor(wait.Count(t.NoteCountAPI, before+delta), wait.Message(msg)))
}

type noteState struct {
	note       core.Element
	noteID     string
	notebook   core.Element
	notebookID string
}

// Note covers creating, deleting and editing notes from the note list.
func Note() suite.Class {
	st := &noteState{}
	c := suite.Class{
		Name: "Note",
		SetUp: func(e *suite.Env) error {
			sel, err := e.SelectRandomNote()
			if err != nil {
				return err
			}
			st.note, st.noteID = sel.Note, sel.NoteID
			st.notebook, st.notebookID = sel.Notebook, sel.NotebookID
			return nil
		},
	}

	for _, kind := range []string{"note", "todo"} {
		for _, way := range []string{WayButton, WayHotkey, WayTopMenu} {
			kind, way := kind, way
			c.Cases = append(c.Cases, suite.Case{
				Name: "add_" + kind + "_" + way,
				Run: func(t *suite.T) {
					noteCount(t, 1, fmt.Sprintf("Adding note by %s failed.", way), func() error {
						return addNote(t, t.Name(), way, kind == "todo")
					})
				},
			})
		}
	}

	// Deleting shifts the note list under the cursor of the following case,
	// so these get a second run.
	for _, way := range []suite.DeleteWay{suite.DeleteByHotkey, suite.DeleteByRightClick} {
		way := way
		c.Cases = append(c.Cases, suite.Case{
			Name:  "delete_note_" + string(way),
			Retry: true,
			Run: func(t *suite.T) {
				id := t.IDs.Next()
				_, err := t.API.AddNote(api.Note{ID: id, ParentID: st.notebookID, Title: t.Name()})
				t.Check(err)
				t.Check(st.notebook.Click())
				el, err := t.FindPresent(core.ByXPath, suite.NotePath(id))
				t.Check(err)

				noteCount(t, -1, fmt.Sprintf("Deleting note by %s failed.", way), func() error {
					return t.DeleteNote(el, way)
				})
				notes, err := t.API.Notes()
				t.Check(err)
				for _, n := range notes {
					require.NotEqual(t, id, n.ID, "a different note got deleted")
				}
			},
		})
	}

	c.Cases = append(c.Cases,
		suite.Case{Name: "duplicate_note", Run: func(t *suite.T) {
			original, err := t.API.Note(st.noteID)
			t.Check(err)
			noteCount(t, 1, "Duplicating note by right click failed.", func() error {
				if err := st.note.ContextClick(); err != nil {
					return err
				}
				return t.ChooseContext(menu.NoteMenu, "Duplicate")
			})

			notes, err := t.API.Notes()
			t.Check(err)
			var copies []api.Note
			for _, n := range notes {
				if strings.HasPrefix(n.Title, original.Title) {
					copies = append(copies, n)
				}
			}
			require.Len(t, copies, 2)
			require.Equal(t, copies[0].ParentID, copies[1].ParentID)
			require.Equal(t, copies[0].Body, copies[1].Body)
		}},
		suite.Case{Name: "switch_type", Run: func(t *suite.T) {
			isTodo := func() (bool, error) {
				n, err := t.API.Note(st.noteID)
				return bool(n.IsTodo), err
			}
			initial, err := isTodo()
			t.Check(err)

			for _, want := range []bool{!initial, initial} {
				t.Check(st.note.ContextClick())
				t.Check(t.ChooseContext(menu.NoteMenu, "Switch between note and to-do"))
				t.Check(t.WaitFor(wait.Equal(isTodo, want), wait.Message("Switching note type failed.")))
			}
		}},
		suite.Case{Name: "complete_todo", Run: func(t *suite.T) {
			id := t.IDs.Next()
			_, err := t.API.AddNote(api.Note{ID: id, ParentID: st.notebookID, Title: t.Name(), IsTodo: true})
			t.Check(err)
			t.Check(st.notebook.Click())
			checkbox, err := t.FindPresent(core.ByXPath, todoCheckboxPath(id))
			t.Check(err)

			completed := func() (time.Time, error) {
				n, err := t.API.Note(id)
				return n.CompletedAt(), err
			}
			done := func() (bool, error) {
				at, err := completed()
				return !at.IsZero(), err
			}
			at, err := completed()
			t.Check(err)
			require.True(t, at.IsZero(), "new to-do is already completed")

			// the API stores milliseconds
			start := time.Now().Truncate(time.Millisecond)
			t.Check(checkbox.Click())
			end := time.Now()
			t.Check(t.WaitFor(done, wait.Message("Completing to-do failed.")))
			at, err = completed()
			t.Check(err)
			require.False(t, at.Before(start), "completed %s before the click at %s", at, start)
			require.False(t, at.After(end), "completed %s after the click ended at %s", at, end)

			t.Check(checkbox.Click())
			t.Check(t.WaitFor(wait.Not(done), wait.Message("Reopening to-do failed.")))
		}},
	)
	return c
}
