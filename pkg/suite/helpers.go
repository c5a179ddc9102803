package suite

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/api"
	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
	"github.com/devicelab-dev/joplin-runner/pkg/menu"
	"github.com/devicelab-dev/joplin-runner/pkg/wait"
)

// Locators used by the helpers.
const (
	notebookItemClass = "list-item-container"
	noteItemPath      = "//div[contains(@class, '-list-item')]"
	notebookDialog    = "//div[@class='dialog-root']"
	modalDialog       = "//div[@class='modal-layer'][contains(@style, 'display: flex')]"
)

// maxClear bounds the backspaces sent to empty a dialog input.
const maxClear = 512

// NotebookPath locates a notebook in the sidebar.
func NotebookPath(id string) string {
	return fmt.Sprintf("//div[@data-folder-id='%s']", id)
}

// NotePath locates a note in the note list.
func NotePath(id string) string {
	return fmt.Sprintf("//a[@data-id='%s']", id)
}

// TagPath locates a tag in the sidebar.
func TagPath(id string) string {
	return fmt.Sprintf("//div[@data-tag-id='%s']", id)
}

func (e *Env) find(state wait.ElementState, by core.By, value string, opts []wait.Option) (core.Element, error) {
	base := []wait.Option{wait.Timeout(e.findTimeout())}
	if e.PollInterval > 0 {
		base = append(base, wait.Interval(e.PollInterval))
	}
	return wait.Element(e.Session, by, value, state, append(base, opts...)...)
}

// FindPresent waits until an element is attached to the DOM.
func (e *Env) FindPresent(by core.By, value string, opts ...wait.Option) (core.Element, error) {
	return e.find(wait.Present, by, value, opts)
}

// FindVisible waits until an element is displayed.
func (e *Env) FindVisible(by core.By, value string, opts ...wait.Option) (core.Element, error) {
	return e.find(wait.Visible, by, value, opts)
}

// FindClickable waits until an element is displayed and enabled.
func (e *Env) FindClickable(by core.By, value string, opts ...wait.Option) (core.Element, error) {
	return e.find(wait.Clickable, by, value, opts)
}

// WaitFor polls cond with the suite's poll interval.
func (e *Env) WaitFor(cond wait.Condition, opts ...wait.Option) error {
	var base []wait.Option
	if e.PollInterval > 0 {
		base = append(base, wait.Interval(e.PollInterval))
	}
	return wait.For(cond, append(base, opts...)...)
}

// IsFocused reports whether element is the active element.
func (e *Env) IsFocused(element core.Element) (bool, error) {
	v, err := e.Session.ExecuteScript("return arguments[0] === document.activeElement;", element)
	if err != nil {
		return false, err
	}
	ok, _ := v.(bool)
	return ok, nil
}

// ChooseContext selects name from an open context menu described by layout.
// Context menus open with nothing highlighted, so the first entry is one
// down press away.
func (e *Env) ChooseContext(layout menu.Layout, name string) error {
	i, err := layout.Index(name)
	if err != nil {
		return err
	}
	return e.Menu.ChooseEntryDefault(i + 1)
}

// Size is the rendered size of an element in CSS pixels.
type Size struct {
	Width  float64
	Height float64
}

// Size returns the bounding box size of element.
func (e *Env) Size(element core.Element) (Size, error) {
	v, err := e.Session.ExecuteScript(
		"const r = arguments[0].getBoundingClientRect(); return [r.width, r.height];", element)
	if err != nil {
		return Size{}, err
	}
	dims, ok := v.([]interface{})
	if !ok || len(dims) != 2 {
		return Size{}, fmt.Errorf("unexpected bounding box %v", v)
	}
	w, wok := dims[0].(float64)
	h, hok := dims[1].(float64)
	if !wok || !hok {
		return Size{}, fmt.Errorf("unexpected bounding box %v", v)
	}
	return Size{Width: w, Height: h}, nil
}

// DocumentTitle returns the title of the application window.
func (e *Env) DocumentTitle() (string, error) {
	v, err := e.Session.ExecuteScript("return document.title;")
	if err != nil {
		return "", err
	}
	title, _ := v.(string)
	return title, nil
}

// Notebooks returns the notebook entries of the sidebar.
func (e *Env) Notebooks() ([]core.Element, error) {
	logger.Debug("UI: get notebooks")
	items, err := e.Sidebar.FindElements(core.ByClassName, notebookItemClass)
	if err != nil {
		return nil, err
	}
	// the first item is "All notes"
	if len(items) == 0 {
		return nil, nil
	}
	return items[1:], nil
}

// Notes returns the notes and to-dos of the note list.
func (e *Env) Notes() ([]core.Element, error) {
	logger.Debug("UI: get notes")
	return e.NoteList.FindElements(core.ByXPath, noteItemPath)
}

// ScrollVertical scrolls element by height pixels.
func (e *Env) ScrollVertical(element core.Element, height int) error {
	_, err := e.Session.ExecuteScript("arguments[0].scrollBy(0, arguments[1])", element, height)
	return err
}

// DeleteWay selects how a note is deleted.
type DeleteWay string

// Supported ways to delete a note.
const (
	DeleteByHotkey     DeleteWay = "hotkey"
	DeleteByRightClick DeleteWay = "right_click"
)

// DeleteNote deletes the note behind element and confirms the dialog.
func (e *Env) DeleteNote(element core.Element, way DeleteWay) error {
	logger.Debug("UI: delete note way=%s", way)

	switch way {
	case DeleteByHotkey:
		if err := element.Click(); err != nil {
			return err
		}
		if err := e.Keyboard.Press("delete", 1); err != nil {
			return err
		}
	case DeleteByRightClick:
		if err := element.ContextClick(); err != nil {
			return err
		}
		if err := e.ChooseContext(menu.NoteMenu, "Delete"); err != nil {
			return err
		}
	default:
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported delete way %q", way))
	}

	// the confirm button is left of cancel
	return e.Menu.ChooseEntry(1, "left", "enter")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// SelectRandomNotebook clicks a random notebook that is neither excluded
// nor a direct child of an excluded one.
func (e *Env) SelectRandomNotebook(exclude ...string) (core.Element, string, error) {
	notebooks, err := e.API.Notebooks()
	if err != nil {
		return nil, "", err
	}
	var candidates []api.Notebook
	for _, nb := range notebooks {
		if contains(exclude, nb.ID) || contains(exclude, nb.ParentID) {
			continue
		}
		candidates = append(candidates, nb)
	}
	if len(candidates) == 0 {
		return nil, "", fmt.Errorf("no notebook left to select")
	}
	id := candidates[e.rand().Intn(len(candidates))].ID

	el, err := e.Sidebar.FindElement(core.ByXPath, NotebookPath(id))
	if err != nil {
		return nil, "", err
	}
	if err := el.Click(); err != nil {
		return nil, "", err
	}
	return el, id, nil
}

// NoteSelection is the result of SelectRandomNote.
type NoteSelection struct {
	Note       core.Element
	NoteID     string
	Notebook   core.Element
	NotebookID string
}

// SelectRandomNote opens the notebook of a random note and clicks the note.
func (e *Env) SelectRandomNote(exclude ...string) (NoteSelection, error) {
	var sel NoteSelection

	notes, err := e.API.Notes()
	if err != nil {
		return sel, err
	}
	var candidates []api.Note
	for _, n := range notes {
		if !contains(exclude, n.ID) {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return sel, fmt.Errorf("no note left to select")
	}
	note := candidates[e.rand().Intn(len(candidates))]

	nb, err := e.FindPresent(core.ByXPath, NotebookPath(note.ParentID))
	if err != nil {
		return sel, err
	}
	if err := nb.Click(); err != nil {
		return sel, err
	}
	el, err := e.FindPresent(core.ByXPath, NotePath(note.ID))
	if err != nil {
		return sel, err
	}
	if err := el.Click(); err != nil {
		return sel, err
	}
	return NoteSelection{Note: el, NoteID: note.ID, Notebook: nb, NotebookID: note.ParentID}, nil
}

// RandomTag returns a random tag element without clicking it.
func (e *Env) RandomTag() (core.Element, string, error) {
	tags, err := e.API.Tags()
	if err != nil {
		return nil, "", err
	}
	if len(tags) == 0 {
		return nil, "", fmt.Errorf("no tag to select")
	}
	id := tags[e.rand().Intn(len(tags))].ID
	el, err := e.Session.FindElement(core.ByXPath, TagPath(id))
	if err != nil {
		return nil, "", err
	}
	return el, id, nil
}

// DialogOptions configure FillModalDialog.
type DialogOptions struct {
	ConfirmByButton   bool // click the first button instead of pressing enter
	Notebook          bool // the notebook dialog instead of the generic modal layer
	Tag               bool // commit the typed tag with enter before confirming
	WaitBeforeConfirm time.Duration
}

// FillModalDialog replaces the text of the visible dialog's input and confirms it.
func (e *Env) FillModalDialog(text string, opts DialogOptions) error {
	path := modalDialog
	if opts.Notebook {
		path = notebookDialog
	}
	dialog, err := e.FindVisible(core.ByXPath, path)
	if err != nil {
		return err
	}
	field, err := dialog.FindElement(core.ByTagName, "input")
	if err != nil {
		return err
	}

	// clearing by backspace works where Clear() does not
	for i := 0; ; i++ {
		value, err := field.Attribute("value")
		if err != nil {
			return err
		}
		if value == "" {
			break
		}
		if i >= maxClear {
			return fmt.Errorf("dialog input not cleared after %d backspaces", maxClear)
		}
		if err := field.SendKeys(core.KeyBackspace); err != nil {
			return err
		}
	}
	if err := field.SendKeys(text); err != nil {
		return err
	}
	if opts.WaitBeforeConfirm > 0 {
		time.Sleep(opts.WaitBeforeConfirm)
	}
	if opts.Tag {
		if err := field.SendKeys(core.KeyEnter); err != nil {
			return err
		}
	}
	if opts.ConfirmByButton {
		button, err := dialog.FindElement(core.ByTagName, "button")
		if err != nil {
			return err
		}
		return button.Click()
	}
	return field.SendKeys(core.KeyEnter)
}

// NotebookCountAPI counts notebooks through the data API.
func (e *Env) NotebookCountAPI() (int, error) {
	nbs, err := e.API.Notebooks()
	return len(nbs), err
}

// NoteCountAPI counts notes through the data API.
func (e *Env) NoteCountAPI() (int, error) {
	notes, err := e.API.Notes()
	return len(notes), err
}

// TagCountAPI counts tags through the data API.
func (e *Env) TagCountAPI() (int, error) {
	tags, err := e.API.Tags()
	return len(tags), err
}
