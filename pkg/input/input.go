// Package input injects OS-level keyboard and pointer events.
//
// Application menus and some dialogs cannot be reached through the browser
// session, so they are driven the way a user would drive them: with real
// key presses delivered to the focused window.
package input

// Keyboard presses keys by name ("alt", "down", "enter", "esc", "a", ...).
type Keyboard interface {
	// Press presses and releases key presses times. Zero presses is a no-op.
	Press(key string, presses int) error
	// Hotkey holds keys down in order and releases them in reverse.
	Hotkey(keys ...string) error
}

// Pointer clicks at the current pointer position.
type Pointer interface {
	Click() error
}
