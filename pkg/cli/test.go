package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/joplin-runner/pkg/api"
	"github.com/devicelab-dev/joplin-runner/pkg/config"
	"github.com/devicelab-dev/joplin-runner/pkg/core"
	"github.com/devicelab-dev/joplin-runner/pkg/display"
	"github.com/devicelab-dev/joplin-runner/pkg/driver/cdp"
	"github.com/devicelab-dev/joplin-runner/pkg/driver/webdriver"
	"github.com/devicelab-dev/joplin-runner/pkg/executor"
	"github.com/devicelab-dev/joplin-runner/pkg/input"
	"github.com/devicelab-dev/joplin-runner/pkg/logger"
	"github.com/devicelab-dev/joplin-runner/pkg/menu"
	"github.com/devicelab-dev/joplin-runner/pkg/report"
	"github.com/devicelab-dev/joplin-runner/pkg/scenario"
	"github.com/devicelab-dev/joplin-runner/pkg/setup"
	"github.com/devicelab-dev/joplin-runner/pkg/suite"
)

var testCommand = &cli.Command{
	Name:  "test",
	Usage: "Run the UI cases against the desktop application",
	Description: `Run every case, one class or a single case.

The debug directory receives:
  - test.log      the runner and child process log
  - report.json   per-case status, kept current while running
  - output.mp4    a recording of the display (unless --no-recording)
  - <time>_<Class>.<case>_*  screenshots and the browser log of failed cases

Examples:
  joplin-runner test
  joplin-runner test --testname Notebook
  joplin-runner test --testname Notebook/add_notebook_top_menu
  joplin-runner test --backend cdp --verbosity 1`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "debug-dir",
			Usage:   "Directory for the log, the report and failure artifacts",
			Value:   "debug",
			EnvVars: []string{"JOPLIN_RUNNER_DEBUG_DIR"},
		},
		&cli.BoolFlag{
			Name:  "no-xvfb",
			Usage: "Use the current $DISPLAY instead of starting Xvfb",
		},
		&cli.BoolFlag{
			Name:  "no-recording",
			Usage: "Do not record the display",
		},
		&cli.IntFlag{
			Name:    "verbosity",
			Usage:   "0 quiet, 1 one character per case, 2 one line per case, 3 adds debug output",
			Value:   2,
			EnvVars: []string{"JOPLIN_RUNNER_VERBOSITY"},
		},
		&cli.StringFlag{
			Name:    "testname",
			Aliases: []string{"t"},
			Usage:   "Run only Class or Class/case",
		},
		&cli.StringFlag{
			Name:    "backend",
			Usage:   "Session backend: webdriver or cdp (overrides the config)",
			EnvVars: []string{"JOPLIN_RUNNER_BACKEND"},
		},
	},
	Action: runTest,
}

// RunConfig holds the resolved options of the test command.
type RunConfig struct {
	DebugDir   string
	Xvfb       bool
	Recording  bool
	Verbosity  int
	TestName   string
	ConfigPath string
	Backend    string
}

func runTest(c *cli.Context) error {
	cfg := &RunConfig{
		DebugDir:   c.String("debug-dir"),
		Xvfb:       !c.Bool("no-xvfb"),
		Recording:  !c.Bool("no-recording"),
		Verbosity:  c.Int("verbosity"),
		TestName:   c.String("testname"),
		ConfigPath: c.String("config"),
		Backend:    c.String("backend"),
	}
	return executeTest(cfg)
}

// loadConfig reads the workspace config and applies command line overrides.
func loadConfig(rc *RunConfig) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if rc.ConfigPath != "" {
		cfg, err = config.Load(rc.ConfigPath)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rc.Backend != "" {
		cfg.Backend = rc.Backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadLayout(cfg *config.Config) (menu.Layout, error) {
	if cfg.MenuLayout == "" {
		return menu.TopMenu, nil
	}
	return menu.LoadLayout(cfg.MenuLayout)
}

func executeTest(rc *RunConfig) error {
	// 1. Create debug directory and logging
	if err := os.MkdirAll(rc.DebugDir, 0o755); err != nil {
		return fmt.Errorf("failed to create debug directory: %w", err)
	}
	if err := logger.Init(filepath.Join(rc.DebugDir, "test.log")); err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	}
	logger.SetLevel(logger.LevelFromVerbosity(rc.Verbosity))
	defer logger.Close()

	logger.Info("=== Test execution started ===")
	logger.Info("Debug directory: %s", rc.DebugDir)

	// 2. Resolve config and cases before anything is started
	cfg, err := loadConfig(rc)
	if err != nil {
		return err
	}
	layout, err := loadLayout(cfg)
	if err != nil {
		return err
	}
	classes, err := suite.Select(scenario.All(), rc.TestName)
	if err != nil {
		return err
	}
	logger.Info("Backend: %s, %d classes selected", cfg.Backend, len(classes))

	// 3. Display
	if rc.Xvfb {
		x := display.NewXvfb(cfg.Display)
		if err := x.Start(); err != nil {
			return err
		}
		defer x.Close()
	}
	if rc.Recording {
		rec := display.NewRecording(filepath.Join(rc.DebugDir, "output.mp4"), cfg.Display)
		if err := rec.Start(); err != nil {
			logger.Warn("Recording disabled: %v", err)
		} else {
			defer func() {
				if err := rec.Stop(); err != nil {
					logger.Warn("Failed to stop recording: %v", err)
				}
			}()
		}
	}

	// 4. Application session
	appPath, err := setup.App(cfg)
	if err != nil {
		return err
	}
	session, stop, err := openSession(cfg, appPath)
	if err != nil {
		return err
	}
	defer stop()

	// 5. Shared handles
	kb := input.NewXDoTool(input.WithPause(cfg.KeyDelay))
	nav := menu.NewNavigator(kb, layout)
	client := api.NewClient(cfg.API.BaseURL, api.WithToken(cfg.API.Token))
	if cfg.API.Token == "" {
		if err := api.Activate(session, nav, client); err != nil {
			return fmt.Errorf("failed to activate data API: %w", err)
		}
	} else if err := client.Ping(); err != nil {
		return err
	}

	s := &suite.Suite{
		Session:      session,
		API:          client,
		Keyboard:     kb,
		Pointer:      kb,
		Menu:         nav,
		FindTimeout:  cfg.Timeouts.Find,
		SetupTimeout: cfg.Timeouts.Startup,
		PollInterval: cfg.Timeouts.PollInterval,
	}

	// 6. Run
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p := newProgress(os.Stdout, rc.Verbosity)
	runner := executor.New(s, executor.RunnerConfig{
		DebugDir:      rc.DebugDir,
		Artifacts:     core.DefaultArtifactConfig(),
		Out:           p.durationWriter(),
		Grab:          display.Grab,
		RunnerVersion: Version,
		Backend:       cfg.Backend,
		App:           report.App{Path: appPath, Version: cfg.App.Version},
		OnCaseStart:   p.caseStart,
		OnCaseEnd:     p.caseEnd,
	})
	result, err := runner.Run(ctx, classes)
	if err != nil {
		logger.Error("Run failed: %v", err)
		return err
	}
	logger.Info("Run completed: %d passed, %d failed, %d errored, %d skipped, %d flaky",
		result.Passed, result.Failed, result.Errored, result.Skipped, result.Flaky)

	p.summary(result)
	if !result.Success() {
		return errCasesFailed
	}
	return nil
}

// openSession starts the application through the configured backend. The
// returned stop closes the session and any helper process.
func openSession(cfg *config.Config, appPath string) (core.Session, func(), error) {
	if cfg.Backend == config.BackendCDP {
		s, err := cdp.Launch(cdp.LaunchOptions{
			Binary:  appPath,
			Args:    cfg.App.Args,
			Port:    cfg.CDPPort,
			Startup: cfg.Timeouts.Startup,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { closeSession(s) }, nil
	}

	driverPath, err := setup.Chromedriver(cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := webdriver.NewService(driverPath, cfg.Chromedriver.Port)
	if err := svc.Start(); err != nil {
		return nil, nil, err
	}
	stopService := func() {
		if err := svc.Stop(); err != nil {
			logger.Warn("Failed to stop chromedriver: %v", err)
		}
	}

	s, err := webdriver.Connect(svc.URL(), webdriver.ChromeOptions{Binary: appPath, Args: cfg.App.Args})
	if err != nil {
		stopService()
		return nil, nil, err
	}
	return s, func() {
		closeSession(s)
		stopService()
	}, nil
}

func closeSession(s core.Session) {
	if err := s.Close(); err != nil {
		logger.Warn("Failed to close session: %v", err)
	}
}
