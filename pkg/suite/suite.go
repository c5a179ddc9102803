// Package suite holds the shared handles UI cases run against.
//
// A Suite is built once per run. Every class gets its own Env with a fresh
// ID generator and the main window regions cached at class setup. Cases
// receive a T that works with testify's require and assert packages.
package suite

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/api"
	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/idgen"
	"github.com/devicelab-dev/joplin-runner/pkg/input"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
	"github.com/devicelab-dev/joplin-runner/pkg/menu"
	"github.com/devicelab-dev/joplin-runner/pkg/wait"
)

// Main window regions.
const (
	SidebarClass       = "rli-sideBar"
	NoteListClass      = "rli-noteList"
	EditorClass        = "rli-editor"
	NotebooksTitlePath = "//div[@data-folder-id]"
)

// Default timeouts.
const (
	DefaultFindTimeout  = time.Second
	DefaultSetupTimeout = 10 * time.Second
)

// Suite is the set of handles shared by every class of a run.
type Suite struct {
	Session  core.Session
	API      *api.Client
	Keyboard input.Keyboard
	Pointer  input.Pointer
	Menu     *menu.Navigator

	FindTimeout  time.Duration // Find* helpers
	SetupTimeout time.Duration // sidebar wait at class setup
	PollInterval time.Duration

	// Rand picks random notebooks, notes and tags. Seeded from the clock when nil.
	Rand *rand.Rand
}

func (s *Suite) findTimeout() time.Duration {
	if s.FindTimeout <= 0 {
		return DefaultFindTimeout
	}
	return s.FindTimeout
}

func (s *Suite) setupTimeout() time.Duration {
	if s.SetupTimeout <= 0 {
		return DefaultSetupTimeout
	}
	return s.SetupTimeout
}

func (s *Suite) rand() *rand.Rand {
	if s.Rand == nil {
		seed := time.Now().UnixNano()
		logger.Debug("random seed: %d", seed)
		s.Rand = rand.New(rand.NewSource(seed))
	}
	return s.Rand
}

// Env is the per-class view of a Suite.
type Env struct {
	*Suite

	Class string
	IDs   *idgen.Generator

	Sidebar        core.Element
	NotebooksTitle core.Element
	NoteList       core.Element
	Editor         core.Element
}

// NewEnv creates the environment of one class.
func NewEnv(s *Suite, class string) *Env {
	return &Env{
		Suite: s,
		Class: class,
		IDs:   idgen.New(),
	}
}

// SetUp creates a notebook and a note named after the class and caches
// the main window regions.
func (e *Env) SetUp() error {
	logger.Debug("Setting up class %s", e.Class)

	if _, err := e.API.AddNotebook(api.Notebook{Title: e.Class}); err != nil {
		return fmt.Errorf("add class notebook: %w", err)
	}
	if _, err := e.API.AddNote(api.Note{Title: e.Class}); err != nil {
		return fmt.Errorf("add class note: %w", err)
	}

	sidebar, err := e.FindPresent(core.ByClassName, SidebarClass, wait.Timeout(e.setupTimeout()))
	if err != nil {
		return fmt.Errorf("sidebar: %w", err)
	}
	e.Sidebar = sidebar

	if e.NotebooksTitle, err = sidebar.FindElement(core.ByXPath, NotebooksTitlePath); err != nil {
		return fmt.Errorf("notebooks title: %w", err)
	}
	if e.NoteList, err = e.Session.FindElement(core.ByClassName, NoteListClass); err != nil {
		return fmt.Errorf("note list: %w", err)
	}
	if e.Editor, err = e.Session.FindElement(core.ByClassName, EditorClass); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	return nil
}

// TearDown deletes every notebook, and with them every note.
func (e *Env) TearDown() error {
	logger.Debug("Tearing down class %s", e.Class)
	return e.API.DeleteAllNotebooks()
}
