package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
	"github.com/devicelab-dev/joplin-runner/pkg/menu"
	"github.com/devicelab-dev/joplin-runner/pkg/wait"
)

// Locators of the options screen. Text-free where possible so a localised
// build still matches.
const (
	sidebarClass   = "rli-sideBar"
	clipperTabPath = "//a/span[text()='Web Clipper']"
	tokenPath      = "//span[string-length(text())=128]"
)

// ActivateTimeout bounds how long the app may take to show its main window.
var ActivateTimeout = 10 * time.Second

// Activate reads the API token from the options screen and makes sure the
// clipper service is running. The options screen is left again afterwards.
func Activate(s core.Session, nav *menu.Navigator, c *Client) error {
	if _, err := wait.Element(s, core.ByClassName, sidebarClass, wait.Present,
		wait.Timeout(ActivateTimeout), wait.Message("main window did not load")); err != nil {
		return err
	}

	if err := nav.Top(menu.Path{"Tools", "Options"}); err != nil {
		return fmt.Errorf("open options: %w", err)
	}

	tab, err := wait.Element(s, core.ByXPath, clipperTabPath, wait.Clickable, wait.Timeout(5*time.Second))
	if err != nil {
		return err
	}
	if err := tab.Click(); err != nil {
		return fmt.Errorf("open web clipper tab: %w", err)
	}

	tokenEl, err := wait.Element(s, core.ByXPath, tokenPath, wait.Present, wait.Timeout(5*time.Second))
	if err != nil {
		return err
	}
	token, err := tokenEl.Text()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	c.SetToken(token)
	logger.Info("API token discovered")

	buttons, err := s.FindElements(core.ByTagName, "button")
	if err != nil {
		return err
	}
	if len(buttons) == 0 {
		return core.ErrElementNotFound.WithMessage("options screen has no buttons")
	}

	if err := c.Ping(); err != nil {
		if !errors.Is(err, core.ErrAPIUnavailable) {
			return err
		}
		logger.Info("Clipper service not running, enabling it")
		// first button enables the service
		if err := buttons[0].Click(); err != nil {
			return fmt.Errorf("enable clipper service: %w", err)
		}
		if err := wait.For(func() (bool, error) { return c.Ping() == nil, nil },
			wait.Timeout(5*time.Second), wait.Message("clipper service did not start")); err != nil {
			return err
		}
	}

	// last button leaves the options screen
	return buttons[len(buttons)-1].Click()
}
