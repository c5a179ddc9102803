// Package menu models application menus as trees and navigates them with
// key presses.
package menu

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
)

// Entry is a named menu item with optional children. Sibling names are unique.
type Entry struct {
	Name       string  `yaml:"name"`
	Subentries []Entry `yaml:"entries,omitempty"`
}

// E is shorthand for building layouts.
func E(name string, sub ...Entry) Entry {
	return Entry{Name: name, Subentries: sub}
}

// Index returns the zero-based position of the child called name.
func (e Entry) Index(name string) (int, error) {
	return index(e.Subentries, name)
}

// IsLeaf reports whether e has no children.
func (e Entry) IsLeaf() bool {
	return len(e.Subentries) == 0
}

// Layout is the ordered root level of a menu.
type Layout []Entry

// Index returns the zero-based position of the root entry called name.
func (l Layout) Index(name string) (int, error) {
	return index(l, name)
}

// Names lists the root entry names in order.
func (l Layout) Names() []string {
	return names(l)
}

// Validate checks that no two siblings share a name anywhere in the tree.
func (l Layout) Validate() error {
	return validate(l, "")
}

func validate(entries []Entry, parent string) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("menu entry without name under %q", parent))
		}
		if seen[e.Name] {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("duplicate menu entry %q under %q", e.Name, parent))
		}
		seen[e.Name] = true
		if err := validate(e.Subentries, joinPath(parent, e.Name)); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + " > " + name
}

func index(entries []Entry, name string) (int, error) {
	for i, e := range entries {
		if e.Name == name {
			return i, nil
		}
	}
	return -1, core.NewMenuResolutionError(name, names(entries))
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// LoadLayout reads a YAML list of {name, entries} nodes and validates it.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu layout: %w", err)
	}
	return ParseLayout(data)
}

// ParseLayout parses and validates YAML layout data.
func ParseLayout(data []byte) (Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, core.ErrInvalidConfig.WithCause(err).WithMessage("parse menu layout")
	}
	if len(l) == 0 {
		return nil, core.ErrInvalidConfig.WithMessage("menu layout is empty")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}
