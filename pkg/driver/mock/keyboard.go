package mock

import "strings"

// Keyboard records OS-level input events instead of injecting them.
// Every key press is one entry in Events, hotkeys are joined with "+".
type Keyboard struct {
	Events []string
	Clicks int

	// FailAfter makes the n-th and later presses fail (1-indexed). 0 = never fail.
	FailAfter int
	Err       error
}

// NewKeyboard creates an empty recorder.
func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// Press records key presses times.
func (k *Keyboard) Press(key string, presses int) error {
	for i := 0; i < presses; i++ {
		if k.FailAfter > 0 && len(k.Events)+1 >= k.FailAfter {
			return k.Err
		}
		k.Events = append(k.Events, key)
	}
	return nil
}

// Hotkey records a key chord.
func (k *Keyboard) Hotkey(keys ...string) error {
	k.Events = append(k.Events, strings.Join(keys, "+"))
	return nil
}

// Click records a pointer click at the current position.
func (k *Keyboard) Click() error {
	k.Clicks++
	return nil
}

// Count returns how many times key was pressed.
func (k *Keyboard) Count(key string) int {
	n := 0
	for _, e := range k.Events {
		if e == key {
			n++
		}
	}
	return n
}

// Reset clears the recording.
func (k *Keyboard) Reset() {
	k.Events = nil
	k.Clicks = 0
}
