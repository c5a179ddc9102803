package suite

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
)

// Case is a single UI test.
type Case struct {
	Name string
	// Retry runs a failed case once more after refocusing the window.
	Retry bool
	Run   func(t *T)
}

// Class groups cases that share fixtures.
type Class struct {
	Name string
	// SetUp runs after the common class setup, TearDown before the common teardown.
	SetUp    func(e *Env) error
	TearDown func(e *Env) error
	Cases    []Case
}

// CaseID is the Class/Case identifier used by filters and reports.
func CaseID(class, name string) string {
	return class + "/" + name
}

// Select returns the classes and cases matching filter.
//
// An empty filter selects everything, "Class" one class and "Class/Case"
// one case. A filter that matches nothing is an error.
func Select(classes []Class, filter string) ([]Class, error) {
	if filter == "" {
		return classes, nil
	}
	className, caseName, single := strings.Cut(filter, "/")

	for _, c := range classes {
		if c.Name != className {
			continue
		}
		if !single {
			return []Class{c}, nil
		}
		for _, tc := range c.Cases {
			if tc.Name == caseName {
				sel := c
				sel.Cases = []Case{tc}
				return []Class{sel}, nil
			}
		}
		return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("class %s has no case %q", className, caseName))
	}
	return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("no class %q", className))
}

// Names lists every Class/Case identifier.
func Names(classes []Class) []string {
	var out []string
	for _, c := range classes {
		for _, tc := range c.Cases {
			out = append(out, CaseID(c.Name, tc.Name))
		}
	}
	return out
}
