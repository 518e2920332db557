package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"github.com/utilitywarehouse/rpm-mirror/internal/journald"
	"github.com/utilitywarehouse/rpm-mirror/mirrorsync"
)

const metricsNamespace = "rpm_mirror"

var (
	// injected at build time with the linker
	version = "dev"

	loggerLevel = new(slog.LevelVar)
	logger      *slog.Logger

	levelStrings = map[string]slog.Level{
		"trace": slog.Level(-8),
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}

	// detectSupervisor reports whether the process was launched by a
	// service supervisor, swapped out in tests
	detectSupervisor = journald.RunningUnderInit

	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Sources: cli.EnvVars("RPM_MIRROR_CONFIG"),
			Value:   "/etc/mirror.yml",
			Usage:   "Absolute path to the config file.",
		},
		&cli.BoolFlag{
			Name:  "check",
			Usage: "Validate the config file and exit without syncing anything.",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Sources: cli.EnvVars("LOG_LEVEL"),
			Value:   "info",
			Usage:   "Log level",
		},
		&cli.StringFlag{
			Name:  "journal",
			Value: "auto",
			Usage: "Also send logs to the systemd journal (auto|on|off). auto enables it when running as a service.",
		},
		&cli.BoolFlag{
			Name:  "prune-orphans",
			Usage: "After syncing, remove mirror dirs under base_path no longer referenced in the config.",
		},
		&cli.StringFlag{
			Name:    "metrics-textfile",
			Sources: cli.EnvVars("RPM_MIRROR_METRICS_TEXTFILE"),
			Usage:   "Write sync metrics to this file in node_exporter textfile collector format.",
		},
	}
)

func init() {
	loggerLevel.Set(slog.LevelInfo)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: loggerLevel,
	}))

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

// setupLogger rebuilds the process logger, attaching the systemd journal
// handler according to the given mode.
func setupLogger(journalMode string) error {
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: loggerLevel,
	})

	var attach bool
	switch journalMode {
	case "off":
	case "on":
		attach = true
	case "auto":
		attach = detectSupervisor() && journald.Available()
	default:
		return fmt.Errorf("invalid journal mode '%s', must be one of auto, on, off", journalMode)
	}

	if attach {
		handler = journald.Tee(handler, journald.NewHandler(loggerLevel))
	}

	logger = slog.New(handler)
	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "rpm-mirror",
		Usage:   "rpm-mirror is a tool to sync local mirrors of remote RPM package repositories.",
		Version: version,
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {

			// set log level according to argument
			if v, ok := levelStrings[strings.ToLower(c.String("log-level"))]; ok {
				loggerLevel.Set(v)
			}

			if err := setupLogger(c.String("journal")); err != nil {
				logger.Error("unable to set up logger", "err", err)
				os.Exit(1)
			}

			conf, err := parseConfigFile(c.String("config"))
			if err != nil {
				logger.Error("unable to parse config file", "path", c.String("config"), "err", err)
				os.Exit(1)
			}

			if err := conf.Validate(logger); err != nil {
				// individual violations are already logged by Validate
				logger.Error("config validation failed", "path", c.String("config"))
				os.Exit(1)
			}

			if c.Bool("check") {
				logger.Info("config is valid", "path", c.String("config"))
				return nil
			}

			var registry *prometheus.Registry
			textfilePath := c.String("metrics-textfile")
			if textfilePath != "" {
				registry = prometheus.NewRegistry()
				mirrorsync.EnableMetrics(metricsNamespace, registry)
			}

			// path to resolve dnf and createrepo_c
			syncENV := []string{fmt.Sprintf("PATH=%s", os.Getenv("PATH"))}

			syncer := mirrorsync.New(*conf, logger.With("logger", "rpm-mirror"), syncENV)

			// a term signal stops the run between repository steps
			runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := syncer.Run(runCtx); err != nil {
				logger.Error("sync pass aborted", "err", err)
			}

			if c.Bool("prune-orphans") {
				syncer.PruneOrphans()
			}

			if registry != nil {
				if err := writeMetricsTextfile(registry, textfilePath); err != nil {
					logger.Error("unable to write metrics textfile", "path", textfilePath, "err", err)
				}
			}

			// per-repository failures are logged only, a completed run
			// always exits 0
			return nil
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		logger.Error("failed to run app", "err", err)
		os.Exit(1)
	}
}
