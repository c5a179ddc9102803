package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/menu"
)

var menuCommand = &cli.Command{
	Name:  "menu",
	Usage: "Print the menu tree with the key sequence of every leaf",
	Description: `Resolve every leaf of the menu layout through the navigator and print the
keys it would press. Useful to check a layout file or a skip map without
starting the application.

Examples:
  joplin-runner menu
  joplin-runner menu --layout menu.yaml
  joplin-runner menu --skip Go=1`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "layout",
			Usage: "YAML menu layout (default: the built-in top menu)",
		},
		&cli.StringSliceFlag{
			Name:  "skip",
			Usage: "Disabled entries to skip below a parent (Parent=N)",
		},
	},
	Action: func(c *cli.Context) error {
		layout := menu.TopMenu
		if path := c.String("layout"); path != "" {
			var err error
			if layout, err = menu.LoadLayout(path); err != nil {
				return err
			}
		}
		skip, err := parseSkip(c.StringSlice("skip"))
		if err != nil {
			return err
		}
		return printMenu(os.Stdout, layout, skip)
	},
}

func parseSkip(values []string) (menu.SkipMap, error) {
	skip := make(menu.SkipMap, len(values))
	for _, v := range values {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("invalid skip %q, want Parent=N", v))
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 0 {
			return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("invalid skip count in %q", v))
		}
		skip[parts[0]] = n
	}
	return skip, nil
}

// recorder is a keyboard that only remembers what it was asked to press.
type recorder struct {
	keys []string
}

func (r *recorder) Press(key string, presses int) error {
	for i := 0; i < presses; i++ {
		r.keys = append(r.keys, key)
	}
	return nil
}

func (r *recorder) Hotkey(keys ...string) error {
	r.keys = append(r.keys, strings.Join(keys, "+"))
	return nil
}

// compact folds runs of the same key into key×n.
func compact(keys []string) string {
	var out []string
	for i := 0; i < len(keys); {
		j := i
		for j < len(keys) && keys[j] == keys[i] {
			j++
		}
		if n := j - i; n > 1 {
			out = append(out, fmt.Sprintf("%s×%d", keys[i], n))
		} else {
			out = append(out, keys[i])
		}
		i = j
	}
	return strings.Join(out, " ")
}

func printMenu(w io.Writer, layout menu.Layout, skip menu.SkipMap) error {
	if err := layout.Validate(); err != nil {
		return err
	}
	rec := &recorder{}
	nav := menu.NewNavigator(rec, layout)

	var walk func(entries []menu.Entry, path menu.Path) error
	walk = func(entries []menu.Entry, path menu.Path) error {
		for _, e := range entries {
			p := append(append(menu.Path{}, path...), e.Name)
			indent := strings.Repeat("  ", len(path))
			if !e.IsLeaf() {
				fmt.Fprintf(w, "%s%s%s%s\n", indent, color(colorBold), e.Name, color(colorReset))
				if err := walk(e.Subentries, p); err != nil {
					return err
				}
				continue
			}
			rec.keys = nil
			if err := nav.Top(p, menu.WithSkip(skip)); err != nil {
				fmt.Fprintf(w, "%s%s  %s%v%s\n", indent, e.Name, color(colorRed), err, color(colorReset))
				continue
			}
			fmt.Fprintf(w, "%s%-*s %s%s%s\n", indent, 32-len(indent), e.Name, color(colorGray), compact(rec.keys), color(colorReset))
		}
		return nil
	}
	return walk(nav.Layout(), nil)
}
