package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/psichat/internal/app"
	"github.com/felixgeelhaar/psichat/internal/config"
	"github.com/felixgeelhaar/psichat/internal/notify"
	"github.com/felixgeelhaar/psichat/internal/telemetry"
	"github.com/felixgeelhaar/psichat/internal/ux"
	"github.com/felixgeelhaar/psichat/internal/version"
)

// CommandContext holds the global flags of one invocation.
type CommandContext struct {
	// Output control
	Format  string
	NoColor bool

	// Configuration
	Environment string
	ConfigFile  string
	EnvFile     string
	LogLevel    string
}

// NewCommandContext extracts command context from cobra.Command flags.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	flags := cmd.Flags()

	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}
	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return nil, err
	}
	env, err := flags.GetString("env")
	if err != nil {
		return nil, err
	}
	configFile, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Format:      format,
		NoColor:     noColor,
		Environment: env,
		ConfigFile:  configFile,
		EnvFile:     envFile,
		LogLevel:    logLevel,
	}, nil
}

// Print writes data to the command output in the selected format.
func (c *CommandContext) Print(cmd *cobra.Command, data any) error {
	f, err := ux.NewFormatter(c.Format, &ux.FormatterOptions{
		Writer:  cmd.OutOrStdout(),
		NoColor: c.NoColor,
	})
	if err != nil {
		return err
	}
	return f.Format(data)
}

// runtime builds the App lazily, once per process.
type runtime struct {
	appOpts  []app.Option
	prompter ux.Prompter

	mu          sync.Mutex
	app         *app.App
	unsubscribe func()
	span        trace.Span
}

// load resolves configuration, wires the App and rehydrates the session.
// Notifications are echoed to stderr.
func (rt *runtime) load(cmd *cobra.Command) (*app.App, *CommandContext, error) {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create command context: %w", err)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.app != nil {
		return rt.app, cc, nil
	}

	cfg, err := config.Load(config.LoadOptions{
		Environment: cc.Environment,
		File:        cc.ConfigFile,
		EnvFile:     cc.EnvFile,
		LogLevel:    cc.LogLevel,
	})
	if err != nil {
		return nil, nil, err
	}

	opts := append([]app.Option{app.WithUserAgent(version.GetInfo().UserAgent())}, rt.appOpts...)
	a, err := app.New(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}

	stderr := cmd.ErrOrStderr()
	rt.unsubscribe = a.Notifications.Subscribe(func(ev notify.Event) {
		if ev.Type == notify.EventCreated {
			printNotice(stderr, ev.Notification, cc.NoColor)
		}
	})

	// Backend calls made by the command become children of its span.
	ctx, span := telemetry.StartCommandSpan(cmd.Context(), cmd.CommandPath())
	cmd.SetContext(ctx)
	rt.span = span

	a.Start(ctx)
	rt.app = a
	return a, cc, nil
}

// guard loads the App and requires the session to be allowed on path.
func (rt *runtime) guard(cmd *cobra.Command, path string) (*app.App, *CommandContext, error) {
	a, cc, err := rt.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	if _, err := a.Require(path); err != nil {
		return nil, nil, err
	}
	return a, cc, nil
}

// mute stops echoing notifications, for full-screen views.
func (rt *runtime) mute() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.unsubscribe != nil {
		rt.unsubscribe()
		rt.unsubscribe = nil
	}
}

// finish ends the command span with the outcome of the command.
func (rt *runtime) finish(err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.span == nil {
		return
	}
	if err != nil {
		telemetry.RecordError(rt.span, err)
	} else {
		telemetry.RecordSuccess(rt.span)
	}
	rt.span.End()
	rt.span = nil
}

func (rt *runtime) close(ctx context.Context) {
	rt.finish(nil)
	rt.mute()
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.app != nil {
		_ = rt.app.Close(ctx)
	}
}

var noticeColors = map[notify.Kind]lipgloss.Color{
	notify.KindSuccess: lipgloss.Color("46"),
	notify.KindError:   lipgloss.Color("196"),
	notify.KindWarning: lipgloss.Color("226"),
	notify.KindInfo:    lipgloss.Color("86"),
}

func printNotice(w io.Writer, n notify.Notification, noColor bool) {
	title := n.Title
	if !noColor {
		title = lipgloss.NewStyle().Bold(true).Foreground(noticeColors[n.Kind]).Render(title)
	}
	fmt.Fprintf(w, "%s: %s\n", title, n.Message)
}
