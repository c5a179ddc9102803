package input

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/devicelab-dev/joplin-runner/pkg/logger"
)

// DefaultPause between two injected events.
const DefaultPause = 100 * time.Millisecond

// keysyms maps key names to X keysym names understood by xdotool.
var keysyms = map[string]string{
	"alt":       "alt",
	"ctrl":      "ctrl",
	"shift":     "shift",
	"enter":     "Return",
	"return":    "Return",
	"esc":       "Escape",
	"escape":    "Escape",
	"tab":       "Tab",
	"space":     "space",
	"backspace": "BackSpace",
	"delete":    "Delete",
	"del":       "Delete",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"home":      "Home",
	"end":       "End",
	"pageup":    "Prior",
	"pagedown":  "Next",
	"+":         "plus",
	"-":         "minus",
	"=":         "equal",
	",":         "comma",
	".":         "period",
	"/":         "slash",
}

// Keysym translates a key name to its X keysym.
func Keysym(key string) (string, error) {
	k := strings.ToLower(key)
	if sym, ok := keysyms[k]; ok {
		return sym, nil
	}
	if len(k) >= 2 && len(k) <= 3 && k[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(k[1:], "%d", &n); err == nil && n >= 1 && n <= 24 {
			return fmt.Sprintf("F%d", n), nil
		}
	}
	if len(key) == 1 {
		return key, nil
	}
	return "", fmt.Errorf("unknown key %q", key)
}

// Runner executes a command. Replaced in tests.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = os.Environ()
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// XDoTool drives the X server named by $DISPLAY through the xdotool binary.
type XDoTool struct {
	Binary  string
	limiter *rate.Limiter
	run     Runner
}

// Option configures XDoTool.
type Option func(*XDoTool)

// WithPause sets the minimum time between two events.
func WithPause(d time.Duration) Option {
	return func(x *XDoTool) {
		if d <= 0 {
			x.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		x.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(x *XDoTool) { x.run = r }
}

// NewXDoTool creates an xdotool backed device.
func NewXDoTool(opts ...Option) *XDoTool {
	x := &XDoTool{
		Binary:  "xdotool",
		limiter: rate.NewLimiter(rate.Every(DefaultPause), 1),
		run:     execRunner,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func (x *XDoTool) exec(args ...string) error {
	ctx := context.Background()
	if err := x.limiter.Wait(ctx); err != nil {
		return err
	}
	return x.run(ctx, x.Binary, args...)
}

// Press implements Keyboard.
func (x *XDoTool) Press(key string, presses int) error {
	if presses <= 0 {
		return nil
	}
	sym, err := Keysym(key)
	if err != nil {
		return err
	}
	logger.Debug("press %s x%d", key, presses)
	for i := 0; i < presses; i++ {
		if err := x.exec("key", "--clearmodifiers", sym); err != nil {
			return fmt.Errorf("press %s: %w", key, err)
		}
	}
	return nil
}

// Hotkey implements Keyboard.
func (x *XDoTool) Hotkey(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	syms := make([]string, len(keys))
	for i, k := range keys {
		sym, err := Keysym(k)
		if err != nil {
			return err
		}
		syms[i] = sym
	}
	logger.Debug("hotkey %s", strings.Join(keys, "+"))
	if err := x.exec("key", "--clearmodifiers", strings.Join(syms, "+")); err != nil {
		return fmt.Errorf("hotkey %s: %w", strings.Join(keys, "+"), err)
	}
	return nil
}

// Click implements Pointer.
func (x *XDoTool) Click() error {
	if err := x.exec("click", "1"); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}
