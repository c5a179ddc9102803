package wait

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/driver/mock"
)

func TestCount(t *testing.T) {
	notebooks := 2
	cond := Count(func() (int, error) { return notebooks, nil }, 3)

	ok, err := cond()
	require.NoError(t, err)
	assert.False(t, ok)

	notebooks = 3
	ok, err = cond()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCount_FetchErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	err := For(Count(func() (int, error) { return 0, boom }, 1))
	assert.Same(t, boom, err)
}

func TestEqualAndNot(t *testing.T) {
	title := "old"
	cond := Equal(func() (string, error) { return title, nil }, "new")

	ok, _ := cond()
	assert.False(t, ok)
	ok, _ = Not(cond)()
	assert.True(t, ok)

	title = "new"
	ok, _ = cond()
	assert.True(t, ok)
}

func TestBool(t *testing.T) {
	ok, err := Bool(func() bool { return true })()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestElement_WaitsForAppearance(t *testing.T) {
	sess := mock.NewSession()
	dialog := mock.NewElement("dialog", "")

	go func() {
		time.Sleep(30 * time.Millisecond)
		sess.Set(core.ByXPath, "//div[@class='dialog-root']", dialog)
	}()

	el, err := Element(sess, core.ByXPath, "//div[@class='dialog-root']", Visible,
		Timeout(time.Second), Interval(5*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "dialog", el.ID())
	assert.Greater(t, sess.Lookups, 1)
}

func TestElement_PresentIgnoresVisibility(t *testing.T) {
	sess := mock.NewSession()
	hidden := mock.NewElement("sidebar", "")
	hidden.Hidden = true
	sess.Set(core.ByClassName, "rli-sideBar", hidden)

	el, err := Element(sess, core.ByClassName, "rli-sideBar", Present)
	require.NoError(t, err)
	assert.Equal(t, "sidebar", el.ID())
}

func TestElement_ClickableRequiresEnabled(t *testing.T) {
	sess := mock.NewSession()
	button := mock.NewElement("ok", "OK")
	button.Disable = true
	sess.Set(core.ByTagName, "button", button)

	_, err := Element(sess, core.ByTagName, "button", Clickable,
		Timeout(20*time.Millisecond), Interval(5*time.Millisecond))
	require.ErrorIs(t, err, core.ErrWaitTimeout)
	assert.Contains(t, err.Error(), "button")
}

func TestElement_FindErrorPropagates(t *testing.T) {
	sess := mock.NewSession()
	sess.FindErr = errors.New("invalid session id")

	_, err := Element(sess, core.ByCSS, ".x", Present)
	assert.EqualError(t, err, "invalid session id")
}
