package scenario

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/joplin-runner/pkg/api"
	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/driver/mock"
	"github.com/devicelab-dev/joplin-runner/pkg/menu"
	"github.com/devicelab-dev/joplin-runner/pkg/suite"
)

// hookKeyboard lets the fake application react to key presses.
type hookKeyboard struct {
	*mock.Keyboard
	on func(key string)
}

func (k *hookKeyboard) Press(key string, presses int) error {
	if err := k.Keyboard.Press(key, presses); err != nil {
		return err
	}
	for i := 0; i < presses; i++ {
		k.on(key)
	}
	return nil
}

// hook routes every key press of s, menus included, through on.
func hook(s *suite.Suite, a *app, on func(key string)) {
	s.Keyboard = &hookKeyboard{Keyboard: a.kb, on: on}
	s.Menu = menu.NewNavigator(s.Keyboard, menu.TopMenu)
}

// titleInput renders the title of a freshly created note; typing into it
// saves the note.
func titleInput(a *app) *mock.Element {
	input := mock.NewElement("title-input", "")
	input.OnKeys = func(text string) {
		a.srv.AddNote(api.Note{Title: text})
	}
	a.editor.SetChildren(core.ByXPath, titleInputPath, input)
	return input
}

// classNote returns the note every class starts with.
func classNote(t *testing.T, a *app) api.Note {
	t.Helper()
	for _, n := range a.srv.Notes() {
		if n.Title == "Note" {
			return n
		}
	}
	t.Fatal("class note missing")
	return api.Note{}
}

func noteTitles(a *app) []string {
	var titles []string
	for _, n := range a.srv.Notes() {
		titles = append(titles, n.Title)
	}
	return titles
}

func TestNote_Add(t *testing.T) {
	tests := []struct {
		name string
		keys []string
	}{
		{"add_note_hotkey", []string{"ctrl+n"}},
		{"add_todo_hotkey", []string{"ctrl+t"}},
		{"add_note_top_menu", []string{"alt", "down", "enter"}},
		{"add_todo_top_menu", []string{"alt", "down", "down", "enter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, a := newApp(t)
			c := Note()
			env := setUpClass(t, s, c)
			input := titleInput(a)
			a.kb.Reset()

			ct := runCase(t, env, c, tt.name)

			require.NoError(t, ct.Err())
			assert.Equal(t, tt.keys, a.kb.Events)
			assert.Equal(t, []string{tt.name}, input.Typed)
			assert.Contains(t, noteTitles(a), tt.name)
		})
	}
}

func TestNote_AddByButton(t *testing.T) {
	s, a := newApp(t)
	c := Note()
	env := setUpClass(t, s, c)
	titleInput(a)
	note := mock.NewElement("new-note", "")
	todo := mock.NewElement("new-todo", "")
	a.notelist.SetChildren(core.ByClassName, newNoteButtonClass, note)
	a.notelist.SetChildren(core.ByClassName, newTodoButtonClass, todo)

	require.NoError(t, runCase(t, env, c, "add_todo_button").Err())
	assert.Equal(t, 0, note.Clicks)
	assert.Equal(t, 1, todo.Clicks)
	assert.Contains(t, noteTitles(a), "add_todo_button")
}

func TestNote_AddWithoutEffectTimesOut(t *testing.T) {
	s, a := newApp(t)
	c := Note()
	env := setUpClass(t, s, c)
	titleInput(a).OnKeys = nil

	ct := runCase(t, env, c, "add_note_hotkey")

	require.True(t, ct.Failed())
	assert.ErrorIs(t, ct.Err(), core.ErrWaitTimeout)
	assert.Contains(t, ct.Err().Error(), "Adding note by hotkey failed.")
}

func TestNote_DeleteByRightClick(t *testing.T) {
	s, a := newApp(t)
	c := Note()
	env := setUpClass(t, s, c)
	a.kb.Reset()

	// confirming the dialog deletes the note the case created
	var deleted string
	hook(s, a, func(key string) {
		if key != "left" {
			return
		}
		for _, n := range a.srv.Notes() {
			if n.Title == "delete_note_right_click" {
				deleted = n.ID
				a.srv.RemoveNote(n.ID)
			}
		}
	})

	ct := runCase(t, env, c, "delete_note_right_click")

	require.NoError(t, ct.Err())
	require.NotEmpty(t, deleted)
	want := []string{"down", "down", "down", "down", "down", "down", "down", "down", "enter", "left", "enter"}
	assert.Equal(t, want, a.kb.Events)
	assert.Equal(t, 1, a.page.items[suite.NotePath(deleted)].ContextClicks)
	assert.Contains(t, noteTitles(a), "Note")
}

func TestNote_DeleteWithoutEffectTimesOut(t *testing.T) {
	s, a := newApp(t)
	c := Note()
	env := setUpClass(t, s, c)

	ct := runCase(t, env, c, "delete_note_hotkey")

	require.True(t, ct.Failed())
	assert.Contains(t, ct.Err().Error(), "Deleting note by hotkey failed.")
	assert.Contains(t, a.kb.Events, "delete")
}

func TestNote_Duplicate(t *testing.T) {
	s, a := newApp(t)
	c := Note()
	env := setUpClass(t, s, c)
	original := classNote(t, a)
	a.kb.Reset()

	hook(s, a, func(key string) {
		if key == "enter" {
			a.srv.AddNote(api.Note{ParentID: original.ParentID, Title: original.Title + " - Copy", Body: original.Body})
		}
	})

	require.NoError(t, runCase(t, env, c, "duplicate_note").Err())
	assert.Equal(t, []string{"down", "down", "down", "enter"}, a.kb.Events)
}

func TestNote_SwitchType(t *testing.T) {
	s, a := newApp(t)
	c := Note()
	env := setUpClass(t, s, c)
	id := classNote(t, a).ID
	a.kb.Reset()

	hook(s, a, func(key string) {
		if key == "enter" {
			a.srv.UpdateNote(id, func(n *api.Note) { n.IsTodo = !n.IsTodo })
		}
	})

	require.NoError(t, runCase(t, env, c, "switch_type").Err())
	assert.Equal(t, 2, a.kb.Count("enter"))
	assert.Equal(t, 10, a.kb.Count("down"))
	assert.False(t, bool(classNote(t, a).IsTodo))
}

func TestNote_SwitchTypeWithoutEffectFails(t *testing.T) {
	s, a := newApp(t)
	c := Note()
	env := setUpClass(t, s, c)

	ct := runCase(t, env, c, "switch_type")

	require.True(t, ct.Failed())
	assert.Contains(t, ct.Err().Error(), "Switching note type failed.")
	assert.Equal(t, 1, a.kb.Count("enter"))
}

// checkboxID extracts the note ID from a to-do checkbox locator.
func checkboxID(value string) (string, bool) {
	if !strings.HasSuffix(value, "/..//input") {
		return "", false
	}
	rest := strings.TrimPrefix(value, "//a[@data-id='")
	return rest[:strings.Index(rest, "'")], true
}

func TestNote_CompleteTodo(t *testing.T) {
	s, a := newApp(t)
	c := Note()
	env := setUpClass(t, s, c)

	var checkbox *mock.Element
	a.page.created = func(value string, el *mock.Element) {
		id, ok := checkboxID(value)
		if !ok {
			return
		}
		checkbox = el
		el.OnClick = func() {
			a.srv.UpdateNote(id, func(n *api.Note) {
				if n.TodoCompleted == 0 {
					n.TodoCompleted = time.Now().UnixMilli()
				} else {
					n.TodoCompleted = 0
				}
			})
		}
	}

	require.NoError(t, runCase(t, env, c, "complete_todo").Err())
	require.NotNil(t, checkbox)
	assert.Equal(t, 2, checkbox.Clicks)

	var todo api.Note
	for _, n := range a.srv.Notes() {
		if n.Title == "complete_todo" {
			todo = n
		}
	}
	assert.True(t, bool(todo.IsTodo))
	assert.True(t, todo.CompletedAt().IsZero())
}

func TestNote_CompleteTodoLateTimestampFails(t *testing.T) {
	s, a := newApp(t)
	c := Note()
	env := setUpClass(t, s, c)

	// the fake records a completion time an hour ahead
	a.page.created = func(value string, el *mock.Element) {
		if id, ok := checkboxID(value); ok {
			el.OnClick = func() {
				a.srv.UpdateNote(id, func(n *api.Note) {
					n.TodoCompleted = time.Now().Add(time.Hour).UnixMilli()
				})
			}
		}
	}

	ct := runCase(t, env, c, "complete_todo")

	require.True(t, ct.Failed())
	assert.Contains(t, ct.Err().Error(), "after the click")
}
