// Package main provides nbprobe - browser conformance checks for IQ# notebooks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"

	"github.com/umputun/nbprobe/pkg/config"
	"github.com/umputun/nbprobe/pkg/discovery"
	"github.com/umputun/nbprobe/pkg/launcher"
	"github.com/umputun/nbprobe/pkg/notebook"
	"github.com/umputun/nbprobe/pkg/notify"
	"github.com/umputun/nbprobe/pkg/progress"
	"github.com/umputun/nbprobe/pkg/render"
	"github.com/umputun/nbprobe/pkg/report"
	"github.com/umputun/nbprobe/pkg/status"
	"github.com/umputun/nbprobe/pkg/suite"
	"github.com/umputun/nbprobe/pkg/web"
)

// opts holds all command-line options. zero values fall back to the config file.
type opts struct {
	Checks     []string      `short:"c" long:"check" description:"check to run, repeatable (default: all)"`
	URL        string        `short:"u" long:"url" env:"NBPROBE_URL" description:"notebook server url, skips runtime dir discovery"`
	Token      string        `long:"token" env:"NBPROBE_TOKEN" description:"notebook server token"`
	RuntimeDir string        `long:"runtime-dir" description:"jupyter runtime directory to discover servers in"`
	ServerCmd  string        `long:"server-cmd" description:"start the notebook server with this command and stop it on exit"`
	Wait       time.Duration `short:"w" long:"wait" description:"max time to wait for the server"`
	Engine     string        `short:"e" long:"engine" description:"browser engine: playwright, chromedp or rod"`
	Browser    string        `short:"b" long:"browser" description:"playwright browser: chromium, firefox or webkit"`
	Headed     bool          `long:"headed" description:"show the browser window"`
	ExecPath   string        `long:"exec-path" description:"browser binary for chromedp and rod"`
	Install    bool          `long:"install" description:"install playwright driver and browser before launch"`
	Parallel   int           `short:"j" long:"parallel" description:"checks to run at once, each in its own browser"`
	Fixture    string        `short:"f" long:"fixture" description:"fixture file overriding the built-in one"`
	Report     string        `short:"r" long:"report" description:"write report to file (.json or .md)"`
	Progress   string        `long:"progress" description:"progress log file"`
	Serve      bool          `short:"s" long:"serve" description:"start web dashboard for real-time streaming"`
	Port       int           `short:"p" long:"port" default:"8080" description:"web dashboard port"`
	Watch      bool          `long:"watch" description:"keep running and probe every newly started server"`
	List       bool          `short:"l" long:"list" description:"list checks and exit"`
	NoColor    bool          `long:"no-color" description:"disable color output"`
	Debug      bool          `short:"d" long:"debug" description:"log browser session details"`
	Version    bool          `short:"v" long:"version" description:"print version and exit"`
}

var revision = "unknown"

// errChecksFailed makes the process exit with 1 after the report was already printed.
var errChecksFailed = errors.New("checks failed")

// errServerExited cancels the probe when a server started with --server-cmd dies.
var errServerExited = errors.New("notebook server exited")

func main() {
	fmt.Printf("nbprobe %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if o.Version {
		os.Exit(0)
	}
	if o.List {
		for _, c := range suite.Checks() {
			fmt.Printf("  %-8s %s\n", c.Name, c.Description)
		}
		os.Exit(0)
	}

	restore := disableCtrlCEcho()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, o)
	cancel()
	restore()
	if err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts) error {
	cfg, err := config.Load("") // empty string uses default location
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	s, err := resolve(cfg, o)
	if err != nil {
		return err
	}

	baseLog, err := progress.NewLogger(progress.Config{
		Path:    o.Progress,
		Server:  s.serverLabel(),
		Engine:  string(s.launch.Engine),
		Checks:  s.checkNames(),
		NoColor: o.NoColor,
		Colors:  cfg.Colors,
	})
	if err != nil {
		return fmt.Errorf("create progress logger: %w", err)
	}
	defer baseLog.Close()

	notifier, err := notify.New(cfg.Notify, baseLog)
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}

	p := &prober{settings: s, base: baseLog, notifier: notifier}

	if o.Serve {
		srv, srvErr := web.NewServer(web.ServerConfig{Port: o.Port, Server: s.serverLabel(), Engine: string(s.launch.Engine)}, nil)
		if srvErr != nil {
			return fmt.Errorf("create web server: %w", srvErr)
		}
		p.dashboard = srv
		go func() {
			if srvErr := srv.Start(ctx); srvErr != nil {
				fmt.Fprintf(os.Stderr, "web server error: %v\n", srvErr)
			}
		}()
		baseLog.Print("web dashboard: http://localhost:%d", o.Port)
	}

	baseLog.Print("progress log: %s", baseLog.Path())

	if s.serverCmd != "" {
		proc, startErr := launcher.Start(ctx, launcher.Options{
			Command: s.serverCmd,
			Env:     s.serverEnv(),
			Output:  func(line string) { baseLog.Print("[server] %s", line) },
		})
		if startErr != nil {
			return fmt.Errorf("start notebook server: %w", startErr)
		}
		defer func() {
			if stopErr := proc.Stop(); stopErr != nil {
				baseLog.Warn("stop notebook server: %v", stopErr)
			}
		}()
		baseLog.Print("started notebook server, pid %d", proc.PID())

		var cancel context.CancelCauseFunc
		ctx, cancel = context.WithCancelCause(ctx)
		defer cancel(nil)
		go func() {
			select {
			case <-proc.Done():
				if exitErr := proc.Err(); exitErr != nil {
					cancel(fmt.Errorf("%w: %w", errServerExited, exitErr))
					return
				}
				cancel(errServerExited)
			case <-ctx.Done():
			}
		}()
	}

	if s.watch {
		err = p.watch(ctx)
	} else {
		var rep *report.Report
		rep, err = p.probe(ctx, s.registry())
		if err == nil && !rep.Passed() {
			err = errChecksFailed
		}
	}

	baseLog.Print("completed in %s", baseLog.Elapsed())
	return err
}

// settings are the options and config merged, flags win over config values.
type settings struct {
	checks       []suite.Check
	fixture      *suite.Fixture
	serverURL    string
	serverToken  string
	runtimeDir   string
	serverCmd    string
	wait         time.Duration
	pollInterval time.Duration
	session      notebook.Options
	launch       notebook.LaunchOptions
	runner       suite.Config
	reportPath   string
	watch        bool
	debug        bool
	noColor      bool
}

func resolve(cfg *config.Config, o opts) (settings, error) {
	names := o.Checks
	if len(names) == 0 {
		names = cfg.Checks
	}
	checks, err := suite.Select(names)
	if err != nil {
		return settings{}, err
	}

	fixture, err := suite.LoadFixture(firstNonEmpty(o.Fixture, cfg.Fixture))
	if err != nil {
		return settings{}, fmt.Errorf("load fixture: %w", err)
	}

	engine, err := notebook.ParseEngine(firstNonEmpty(o.Engine, cfg.Engine))
	if err != nil {
		return settings{}, err
	}

	s := settings{
		checks:       checks,
		fixture:      fixture,
		serverURL:    firstNonEmpty(o.URL, cfg.ServerURL),
		serverToken:  firstNonEmpty(o.Token, cfg.ServerToken),
		runtimeDir:   firstNonEmpty(o.RuntimeDir, cfg.RuntimeDir),
		serverCmd:    firstNonEmpty(o.ServerCmd, cfg.ServerCmd),
		wait:         cfg.ServerWait(),
		pollInterval: cfg.ServerPollInterval(),
		launch: notebook.LaunchOptions{
			Engine:   engine,
			Browser:  firstNonEmpty(o.Browser, cfg.Browser),
			Headless: cfg.Headless && !o.Headed,
			ExecPath: o.ExecPath,
			Install:  o.Install,
		},
		runner: suite.Config{
			Parallel:     cfg.Parallel,
			CellTimeout:  cfg.CellTimeout(),
			DebugTimeout: cfg.DebugTimeout(),
			Fixture:      fixture,
		},
		reportPath: o.Report,
		watch:      o.Watch,
		debug:      o.Debug,
		noColor:    o.NoColor,
	}
	if o.Wait > 0 {
		s.wait = o.Wait
	}
	if o.Parallel > 0 {
		s.runner.Parallel = o.Parallel
	}
	s.session = notebook.Options{
		Kernel:       cfg.Kernel,
		InitTimeout:  cfg.SessionTimeout(),
		PollInterval: cfg.OutputPollInterval(),
		Launch:       s.launch,
	}

	if s.serverToken != "" && s.serverURL == "" {
		return settings{}, errors.New("--token requires --url")
	}
	if s.watch && s.serverURL != "" {
		return settings{}, errors.New("--watch discovers servers in the runtime dir, it can't be used with --url")
	}
	if s.watch && s.serverCmd != "" {
		return settings{}, errors.New("--watch waits for servers started elsewhere, it can't be used with --server-cmd")
	}
	return s, nil
}

// registry picks the static server if one is configured, the runtime dir otherwise.
func (s settings) registry() discovery.Registry {
	if s.serverURL != "" {
		return discovery.NewStaticRegistry(s.serverURL, s.serverToken)
	}
	return discovery.NewRuntimeRegistry(s.runtimeDir)
}

// serverLabel describes where the server comes from, never showing the token.
func (s settings) serverLabel() string {
	if s.serverURL != "" {
		return discovery.ServerRecord{URL: s.serverURL, Token: s.serverToken}.Redacted()
	}
	dir := s.runtimeDir
	if dir == "" {
		dir = discovery.RuntimeDir()
	}
	return "runtime dir " + dir
}

// serverEnv points a launched server at the runtime dir nbprobe discovers servers in.
func (s settings) serverEnv() []string {
	if s.runtimeDir == "" {
		return nil
	}
	return []string{"JUPYTER_RUNTIME_DIR=" + s.runtimeDir}
}

func (s settings) checkNames() []string {
	res := make([]string, len(s.checks))
	for i, c := range s.checks {
		res[i] = c.Name
	}
	return res
}

// prober runs the checks against discovered servers and reports the outcome.
type prober struct {
	settings
	base      *progress.Logger
	notifier  *notify.Service
	dashboard *web.Server // nil without --serve
}

// probe waits for a server from reg, runs all checks and reports. the returned error is
// set only when the run was interrupted, failed checks are in the report.
func (p *prober) probe(ctx context.Context, reg discovery.Registry) (*report.Report, error) {
	log, observer := p.logger(ctx)

	rep := &report.Report{
		Engine:  string(p.launch.Engine),
		Browser: p.launch.Browser,
		Kernel:  p.session.Kernel,
		Started: time.Now(),
	}

	log.SetPhase(status.PhaseDiscover)
	log.PrintSection(status.NewGenericSection("discover"))
	server, err := discovery.WaitForServer(ctx, reg, discovery.WaitOptions{Wait: p.wait, Interval: p.pollInterval, Log: log})
	if err != nil {
		err = withCause(ctx, err)
		rep.Error = err.Error()
		log.Error("%v", err)
		return rep, p.finish(ctx, rep, log)
	}
	rep.Server = server.Redacted()
	log.Print("server %s (%s)", server.Redacted(), server.Source)

	log.SetPhase(status.PhaseCheck)
	log.PrintSection(status.NewGenericSection("checks"))
	runner := suite.New(p.runner, p.opener(server, log), log)
	if observer != nil {
		runner.SetObserver(observer)
	}
	results, runErr := runner.Run(ctx, p.checks)
	rep.Results = results
	if runErr != nil {
		runErr = withCause(ctx, runErr)
		rep.Error = runErr.Error()
	}

	if err := p.finish(ctx, rep, log); err != nil {
		return rep, err
	}
	return rep, runErr
}

// logger returns the logger for one probe. with the dashboard enabled every probe gets a
// fresh run and the lines are broadcast to it.
func (p *prober) logger(ctx context.Context) (web.Logger, suite.Observer) {
	if p.dashboard == nil {
		return p.base, nil
	}

	run, err := web.NewRun(uuid.NewString(), p.checkNames())
	if err != nil {
		p.base.Warn("dashboard disabled for this run: %v", err)
		return p.base, nil
	}
	if prev := p.dashboard.Run(); prev != nil {
		// connected clients reconnect and land on the new run
		closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = prev.Close(closeCtx)
		cancel()
	}
	p.dashboard.SetRun(run)
	bl := web.NewBroadcastLogger(p.base, run)
	return bl, bl
}

// opener starts a fresh notebook session on server for every check.
func (p *prober) opener(server discovery.ServerRecord, log web.Logger) suite.Opener {
	opts := p.session
	if p.debug {
		opts.Log = log
	}
	return func(ctx context.Context) (suite.Session, error) {
		s, err := notebook.Open(ctx, server, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// finish prints the report, writes it to the report file, sends notifications and
// completes the dashboard run.
func (p *prober) finish(ctx context.Context, rep *report.Report, log web.Logger) error {
	rep.Duration = time.Since(rep.Started)

	log.SetPhase(status.PhaseReport)
	log.PrintSection(status.NewGenericSection("report"))

	md := rep.Markdown()
	out, err := render.Markdown(md, render.Options{NoColor: p.noColor})
	if err != nil {
		log.Warn("render report: %v", err)
		out = md
	}
	// the dashboard gets the report from run.Finish, not as output lines
	p.base.PrintRaw("%s", strings.TrimLeft(out, "\n"))

	var errs []error
	if p.reportPath != "" {
		if err := rep.Write(p.reportPath); err != nil {
			log.Error("write report: %v", err)
			errs = append(errs, err)
		} else {
			log.Print("report written to %s", p.reportPath)
		}
	}

	if p.dashboard != nil {
		if run := p.dashboard.Run(); run != nil {
			if err := run.Finish(rep); err != nil {
				log.Warn("publish report: %v", err)
			}
		}
	}

	// notifications must go out even when the run was interrupted
	p.notifier.Send(context.WithoutCancel(ctx), rep.NotifyResult())

	if rep.Passed() {
		log.Print("%s", rep.Summary())
	} else {
		log.Error("%s", rep.Summary())
	}
	return errors.Join(errs...)
}

// watch probes every server that starts after nbprobe, until ctx is canceled.
func (p *prober) watch(ctx context.Context) error {
	dir := p.runtimeDir
	if dir == "" {
		dir = discovery.RuntimeDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create runtime dir: %w", err)
	}

	w, err := discovery.NewWatcher(dir)
	if err != nil {
		return fmt.Errorf("watch runtime dir: %w", err)
	}
	p.base.SetPhase(status.PhaseDiscover)
	p.base.Print("watching %s for new notebook servers", dir)

	err = w.Run(ctx, func(path string) {
		p.base.Print("new server file %s", path)
		if _, probeErr := p.probe(ctx, discovery.NewFileRegistry(path)); probeErr != nil && ctx.Err() == nil {
			p.base.Error("probe %s: %v", path, probeErr)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// withCause adds the cancellation cause of ctx to err, e.g. the exit of a launched server.
func withCause(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		return err
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(err, cause) {
		return fmt.Errorf("%w: %w", err, cause)
	}
	return err
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
