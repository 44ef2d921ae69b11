package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/agenda/internal/app/bootstrap"
	"github.com/wolfman30/agenda/internal/bookingapi"
	appconfig "github.com/wolfman30/agenda/internal/config"
	"github.com/wolfman30/agenda/internal/dashboard"
	"github.com/wolfman30/agenda/internal/notify"
	"github.com/wolfman30/agenda/internal/observability/metrics"
	"github.com/wolfman30/agenda/internal/session"
	"github.com/wolfman30/agenda/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":      {"login [-email E -password P | -oauth [-redirect URL]]", cmdLogin},
	"logout":     {"logout", cmdLogout},
	"whoami":     {"whoami", cmdWhoami},
	"list":       {"list [-q TEXT] [-status S] [-day D|all] [-from DATE] [-to DATE] [-upcoming] [-json]", cmdList},
	"confirm":    {"confirm ID", cmdConfirm},
	"cancel":     {"cancel ID", cmdCancel},
	"reschedule": {"reschedule ID DATE TIME", cmdReschedule},
	"create":     {"create -name N -phone P -date D -time T [-email E]", cmdCreate},
	"export":     {"export [-o FILE] [filter flags]", cmdExport},
	"open-days":  {"open-days -owner ID [-count N] [-window DAYS]", cmdOpenDays},
	"times":      {"times -owner ID -date DATE", cmdTimes},
	"book":       {"book -link URL -name N -phone P -date D -time T [-email E]", cmdBook},
	"chat":       {"chat -link URL", cmdChat},
	"profile":    {"profile [-set FILE.json]", cmdProfile},
	"share-link": {"share-link", cmdShareLink},
	"trial":      {"trial", cmdTrial},
	"suggest":    {"suggest", cmdSuggest},
	"stats":      {"stats", cmdStats},
	"watch":      {"watch [-metrics ADDR]", cmdWatch},
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: agenda <command> [flags]")
	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		usage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "agenda: unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}

	cfg := appconfig.Load()
	a, err := newApp(ctx, cfg, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "agenda: %v\n", err)
		return 1
	}
	defer a.close()

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		a.logger.Debug("command failed", "command", args[0], "error", err)
		fmt.Fprintf(stderr, "agenda %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

// app carries the wired dependencies shared by every command.
type app struct {
	cfg      *appconfig.Config
	logger   *logging.Logger
	in       *bufio.Reader
	out      io.Writer
	errOut   io.Writer
	notifier notify.Notifier
	registry *prometheus.Registry
	metrics  *metrics.ClientMetrics
	redis    *redis.Client
	sessions *session.Manager
	api      *bookingapi.Client
}

func newApp(ctx context.Context, cfg *appconfig.Config, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: stderr})
	registry := prometheus.NewRegistry()
	m := metrics.NewClientMetrics(registry)

	var redisClient *redis.Client
	if cfg.SessionStore == "redis" || cfg.RealtimeTransport == "redis" {
		redisClient = bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	}

	store, err := bootstrap.BuildSessionStore(cfg, redisClient)
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(bootstrap.BuildAuthenticator(cfg, logger), store, logger)
	if err := sessions.Restore(ctx); err != nil {
		logger.Warn("could not restore session", "error", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		in:       bufio.NewReader(stdin),
		out:      stdout,
		errOut:   stderr,
		notifier: notify.NewWriterNotifier(stderr),
		registry: registry,
		metrics:  m,
		redis:    redisClient,
		sessions: sessions,
		api:      bootstrap.BuildAPIClient(cfg, sessions.TokenSource(ctx), m, logger),
	}, nil
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func (a *app) dashboard(opts ...dashboard.Option) *dashboard.Dashboard {
	opts = append([]dashboard.Option{dashboard.WithMetrics(a.metrics)}, opts...)
	return dashboard.New(a.api, a.sessions, a.notifier, a.logger, opts...)
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}
