package scenario

import (
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/joplin-runner/pkg/api"
	"github.com/devicelab-dev/joplin-runner/pkg/api/apitest"
	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/driver/mock"
	"github.com/devicelab-dev/joplin-runner/pkg/menu"
	"github.com/devicelab-dev/joplin-runner/pkg/suite"
)

// page resolves every notebook and note locator to a stable element, so
// items created during a case can be found without registering them first.
type page struct {
	*mock.Session
	mu    sync.Mutex
	items map[string]*mock.Element

	// created, when set, wires up every item on first lookup.
	created func(value string, el *mock.Element)
}

func (p *page) item(value string) (*mock.Element, bool) {
	if !strings.HasPrefix(value, "//div[@data-folder-id=") && !strings.HasPrefix(value, "//a[@data-id=") {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.items[value]
	if !ok {
		el = mock.NewElement(value, "")
		p.items[value] = el
		if p.created != nil {
			p.created(value, el)
		}
	}
	return el, true
}

func (p *page) FindElement(by core.By, value string) (core.Element, error) {
	if el, ok := p.item(value); ok {
		return el, nil
	}
	return p.Session.FindElement(by, value)
}

func (p *page) FindElements(by core.By, value string) ([]core.Element, error) {
	if el, ok := p.item(value); ok {
		return []core.Element{el}, nil
	}
	return p.Session.FindElements(by, value)
}

type app struct {
	page     *page
	kb       *mock.Keyboard
	srv      *apitest.Server
	sidebar  *mock.Element
	title    *mock.Element
	notelist *mock.Element
	editor   *mock.Element
}

func newApp(t *testing.T) (*suite.Suite, *app) {
	t.Helper()
	a := &app{
		page:     &page{Session: mock.NewSession(), items: make(map[string]*mock.Element)},
		kb:       mock.NewKeyboard(),
		srv:      apitest.NewServer(t),
		sidebar:  mock.NewElement("sidebar", ""),
		title:    mock.NewElement("title", "Notebooks"),
		notelist: mock.NewElement("notelist", ""),
		editor:   mock.NewElement("editor", ""),
	}
	a.sidebar.SetChildren(core.ByXPath, suite.NotebooksTitlePath, a.title)
	a.page.Set(core.ByClassName, suite.SidebarClass, a.sidebar)
	a.page.Set(core.ByClassName, suite.NoteListClass, a.notelist)
	a.page.Set(core.ByClassName, suite.EditorClass, a.editor)

	return &suite.Suite{
		Session:      a.page,
		API:          a.srv.Client(),
		Keyboard:     a.kb,
		Pointer:      a.kb,
		Menu:         menu.NewNavigator(a.kb, menu.TopMenu),
		FindTimeout:  50 * time.Millisecond,
		SetupTimeout: 50 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		Rand:         rand.New(rand.NewSource(1)),
	}, a
}

// setUpClass runs the shared and the class set up the way the runner does.
func setUpClass(t *testing.T, s *suite.Suite, c suite.Class) *suite.Env {
	t.Helper()
	env := suite.NewEnv(s, c.Name)
	require.NoError(t, env.SetUp())
	if c.SetUp != nil {
		require.NoError(t, c.SetUp(env))
	}
	return env
}

// runCase runs the named case on its own goroutine and returns its T.
func runCase(t *testing.T, env *suite.Env, c suite.Class, name string) *suite.T {
	t.Helper()
	for _, tc := range c.Cases {
		if tc.Name != name {
			continue
		}
		tt := suite.NewT(env, tc.Name)
		done := make(chan struct{})
		go func() {
			defer close(done)
			tc.Run(tt)
		}()
		<-done
		return tt
	}
	t.Fatalf("no case %s in %s", name, c.Name)
	return nil
}

func TestAll_UniqueNames(t *testing.T) {
	names := suite.Names(All())
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		assert.False(t, seen[n], "duplicate case %s", n)
		seen[n] = true
	}
	for _, c := range All() {
		assert.NotEmpty(t, c.Cases, c.Name)
	}
	assert.True(t, seen["Go/focus_top_menu_note_body"])
	assert.True(t, seen["Editor/toggle_layout_button"])
	assert.True(t, seen["Note/add_todo_top_menu"])
	assert.True(t, seen["Note/delete_note_right_click"])
}

func TestAll_Select(t *testing.T) {
	classes, err := suite.Select(All(), "Notebook/add_notebook_top_menu")
	require.NoError(t, err)
	assert.Equal(t, []string{"Notebook/add_notebook_top_menu"}, suite.Names(classes))

	classes, err = suite.Select(All(), "View")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	// the layout switch invalidates cached elements
	last := classes[0].Cases[len(classes[0].Cases)-1]
	assert.Equal(t, "application_layout", last.Name)
}

// notebookDialog renders the notebook dialog; enter creates the notebook.
func notebookDialog(a *app) *mock.Element {
	dialog := mock.NewElement("dialog", "")
	input := mock.NewElement("input", "")
	input.OnKeys = func(text string) {
		if text == core.KeyEnter {
			a.srv.AddNotebook(api.Notebook{Title: input.Attrs["value"]})
		}
	}
	dialog.SetChildren(core.ByTagName, "input", input)
	a.page.Set(core.ByXPath, "//div[@class='dialog-root']", dialog)
	return input
}

func TestNotebook_AddByTopMenu(t *testing.T) {
	s, a := newApp(t)
	c := Notebook()
	env := setUpClass(t, s, c)
	notebookDialog(a)
	a.kb.Reset()

	tt := runCase(t, env, c, "add_notebook_top_menu")

	require.NoError(t, tt.Err())
	assert.Equal(t, []string{"alt", "down", "down", "down", "enter"}, a.kb.Events)
	var titles []string
	for _, nb := range a.srv.Notebooks() {
		titles = append(titles, nb.Title)
	}
	assert.Contains(t, titles, "add_notebook_top_menu")
}

func TestNotebook_AddWithoutEffectTimesOut(t *testing.T) {
	s, a := newApp(t)
	c := Notebook()
	env := setUpClass(t, s, c)
	input := notebookDialog(a)
	input.OnKeys = nil

	tt := runCase(t, env, c, "add_notebook_top_menu")

	require.True(t, tt.Failed())
	assert.ErrorIs(t, tt.Err(), core.ErrWaitTimeout)
	assert.Contains(t, tt.Err().Error(), "Adding notebook by top_menu failed.")
}

// goWindow adds the editor regions the Go class reads.
func goWindow(a *app) (title, body *mock.Element) {
	title = mock.NewElement("title-input", "")
	body = mock.NewElement("body", "")
	a.editor.SetChildren(core.ByClassName, "title-input", title)
	a.editor.SetChildren(core.ByClassName, "codeMirrorEditor", body)
	return title, body
}

func TestGo_SetUp(t *testing.T) {
	s, a := newApp(t)
	goWindow(a)
	setUpClass(t, s, Go())

	var titles []string
	for _, n := range a.srv.Notes() {
		titles = append(titles, n.Title)
	}
	assert.ElementsMatch(t, []string{"Go", "hotkey", "top_menu"}, titles)
	assert.Len(t, a.srv.Notebooks(), 2)
}

func TestGo_FocusByTopMenu(t *testing.T) {
	s, a := newApp(t)
	goWindow(a)
	c := Go()
	env := setUpClass(t, s, c)

	a.sidebar.Attrs["outerHTML"] = `<div class="rli-sideBar"><a id="x"></a></div>`
	active := mock.NewElement("active", "")
	active.Attrs["outerHTML"] = `<a id="x"></a>`
	a.page.Active = active
	a.kb.Reset()

	tt := runCase(t, env, c, "focus_top_menu_sidebar")

	require.NoError(t, tt.Err())
	assert.Equal(t, []string{"alt", "right", "right", "right", "down", "down", "enter", "enter"}, a.kb.Events)
}

func TestGo_FocusElsewhereFails(t *testing.T) {
	s, a := newApp(t)
	_, body := goWindow(a)
	c := Go()
	env := setUpClass(t, s, c)

	body.Attrs["outerHTML"] = `<div class="codeMirrorEditor"></div>`
	active := mock.NewElement("active", "")
	active.Attrs["outerHTML"] = `<input class="title-input">`
	a.page.Active = active

	tt := runCase(t, env, c, "focus_hotkey_note_body")

	assert.True(t, tt.Failed())
	assert.Contains(t, a.kb.Events, "ctrl+shift+b")
}

func TestView_AppTitle(t *testing.T) {
	s, a := newApp(t)
	c := View()
	env := setUpClass(t, s, c)
	a.page.ScriptResult = func(string, []interface{}) (interface{}, error) { return "Joplin", nil }

	tt := runCase(t, env, c, "app_title")
	assert.NoError(t, tt.Err())
}

func TestView_ToggleSidebar(t *testing.T) {
	s, a := newApp(t)
	c := View()
	env := setUpClass(t, s, c)
	a.kb.Reset()

	// f10 hides and shows the sidebar
	kb := &toggleKeyboard{Keyboard: a.kb, key: "f10", el: a.sidebar}
	s.Keyboard = kb

	tt := runCase(t, env, c, "toggle_sidebar_hotkey")
	require.NoError(t, tt.Err())
	assert.Equal(t, 2, a.kb.Count("f10"))
	assert.False(t, a.sidebar.Hidden)
}

type toggleKeyboard struct {
	*mock.Keyboard
	key string
	el  *mock.Element
}

func (k *toggleKeyboard) Press(key string, presses int) error {
	if key == k.key {
		for i := 0; i < presses; i++ {
			k.el.Hidden = !k.el.Hidden
		}
	}
	return k.Keyboard.Press(key, presses)
}

// zoomLevel replays the zoom hotkeys recorded so far.
func zoomLevel(kb *mock.Keyboard) int {
	level := 0
	for _, e := range kb.Events {
		switch e {
		case "ctrl+shift+=":
			level++
		case "ctrl+-":
			level--
		case "ctrl+0":
			level = 0
		}
	}
	return level
}

func TestView_ZoomByHotkey(t *testing.T) {
	s, a := newApp(t)
	c := View()
	env := setUpClass(t, s, c)

	a.page.ScriptResult = func(_ string, args []interface{}) (interface{}, error) {
		f := 1 + 0.1*float64(zoomLevel(a.kb))
		if args[0] == a.editor {
			return []interface{}{1000 / f, 1000 / f}, nil
		}
		return []interface{}{300.0, 1000 / f}, nil
	}

	tt := runCase(t, env, c, "zoom_hotkey")
	require.NoError(t, tt.Err())
	assert.Equal(t, 0, zoomLevel(a.kb))
}

func TestView_ZoomByTopMenuSkipped(t *testing.T) {
	s, _ := newApp(t)
	c := View()
	env := setUpClass(t, s, c)

	tt := runCase(t, env, c, "zoom_top_menu")
	skipped, reason := tt.Skipped()
	assert.True(t, skipped)
	assert.NotEmpty(t, reason)
}

func TestHeader_NoteProperties(t *testing.T) {
	s, a := newApp(t)
	c := Header()
	env := setUpClass(t, s, c)

	label := mock.NewElement("updated", time.Now().Format(dateLayout))
	a.editor.SetChildren(core.ByClassName, "updated-time-label", label)

	props := make([]core.Element, 7)
	values := make([]*mock.Element, 7)
	for i := range props {
		values[i] = mock.NewElement("prop", "")
		props[i] = values[i]
	}
	open := mock.NewElement("properties", "")
	open.OnClick = func() {
		values[0].Content, values[1].Content, values[5].Content = label.Content, label.Content, "Markdown"
		for _, n := range a.srv.Notes() {
			if n.Title == "note_properties" {
				values[6].Content = n.ID
			}
		}
		a.editor.SetChildren(core.ByXPath, propertyValuesPath, props...)
	}
	toolbar := mock.NewElement("toolbar", "")
	toolbar.SetChildren(core.ByClassName, "button",
		mock.NewElement("b0", ""), mock.NewElement("b1", ""), mock.NewElement("b2", ""), open)
	a.editor.SetChildren(core.ByClassName, "editor-toolbar", toolbar)
	closeButton := mock.NewElement("close", "")
	a.editor.SetChildren(core.ByXPath, propertyButtonPath, closeButton)

	tt := runCase(t, env, c, "note_properties")

	require.NoError(t, tt.Err())
	assert.Equal(t, 1, closeButton.Clicks)
	require.NotEmpty(t, values[6].Content)
}

func TestEditor_ToggleLayout(t *testing.T) {
	s, a := newApp(t)
	c := Editor()
	env := setUpClass(t, s, c)

	editor := mock.NewElement("cm", "")
	viewer := mock.NewElement("viewer", "")
	a.editor.SetChildren(core.ByXPath, codeMirrorParentPath, editor)
	a.editor.SetChildren(core.ByXPath, viewerParentPath, viewer)

	// split, editor, viewer, split
	states := []struct {
		editor bool
		viewer bool
	}{{true, true}, {true, false}, {false, true}}
	step := 0
	apply := func() {
		st := states[step%len(states)]
		editor.Hidden = !st.editor
		viewer.Attrs["style"] = "flex: 1"
		if !st.viewer {
			viewer.Attrs["style"] = "max-width: 1px"
		}
	}
	apply()
	layout := mock.NewElement("layout", "")
	layout.OnClick = func() {
		step++
		apply()
	}
	toolbar := mock.NewElement("toolbar", "")
	toolbar.SetChildren(core.ByClassName, "button",
		mock.NewElement("b0", ""), mock.NewElement("b1", ""), layout)
	a.editor.SetChildren(core.ByClassName, "editor-toolbar", toolbar)

	tt := runCase(t, env, c, "toggle_layout_button")
	require.NoError(t, tt.Err())
	assert.Equal(t, 3, layout.Clicks)

	// a layout button that does nothing fails the first check after it
	layout.OnClick = nil
	tt = runCase(t, env, c, "toggle_layout_button")
	assert.True(t, tt.Failed())
}

func TestValidDates(t *testing.T) {
	now := time.Date(2020, 3, 4, 10, 0, 30, 0, time.UTC)
	assert.Equal(t, []string{"04/03/2020 09:59", "04/03/2020 10:00"}, validDates(now))
}
