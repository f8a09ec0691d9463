// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/z5labs/otelcompose"
	"github.com/z5labs/otelcompose/config"
	"github.com/z5labs/otelcompose/internal/lifecycle"
	"github.com/z5labs/otelcompose/internal/otelslog"
	"github.com/z5labs/otelcompose/internal/try"
	"github.com/z5labs/otelcompose/pipeline"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	configEnv   = "OTEL_EXPERIMENTAL_CONFIG_FILE"
	logLevelEnv = "OTEL_LOG_LEVEL"
)

var errMissingConfig = errors.New("a configuration file must be given with --config or " + configEnv)

// UnknownLogLevelError occurs when the log level is not one of
// none, debug, info, warn or error.
type UnknownLogLevelError struct {
	Level string
}

// Error implements the error interface.
func (e UnknownLogLevelError) Error() string {
	return fmt.Sprintf("unknown log level: %s", e.Level)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	lc := &lifecycle.Context{}
	ctx = lifecycle.NewContext(ctx, lc)

	cmd, err := newRootCmd(stdout, stderr)
	if err == nil {
		cmd.SetArgs(args)
		err = cmd.ExecuteContext(ctx)
	}
	err = errors.Join(err, lc.Exit().Run(context.WithoutCancel(ctx)))
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, "error:", err)
	return 1
}

type cli struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer

	log  *zap.Logger
	node config.Node
	cfg  *otelcompose.Configuration
}

func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, error) {
	c := &cli{
		v:      viper.New(),
		stdout: stdout,
		stderr: stderr,
	}

	root := &cobra.Command{
		Use:               "otelcompose",
		Short:             "Validate and inspect OpenTelemetry configuration documents",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: c.load,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.String("config", "", "path to the configuration document (env "+configEnv+")")
	flags.String("log-level", "", "none, debug, info, warn or error; defaults to the document's log_level (env "+logLevelEnv+")")

	err := errors.Join(
		c.v.BindPFlag("config", flags.Lookup("config")),
		c.v.BindPFlag("log-level", flags.Lookup("log-level")),
		c.v.BindEnv("config", configEnv),
		c.v.BindEnv("log-level", logLevelEnv),
	)
	if err != nil {
		return nil, err
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "validate",
			Short: "Compose the configured pipeline and shut it down again",
			Args:  cobra.NoArgs,
			RunE:  c.validate,
		},
		&cobra.Command{
			Use:   "inspect",
			Short: "Print the propagator fields, resource and providers of the configured pipeline",
			Args:  cobra.NoArgs,
			RunE:  c.inspect,
		},
	)
	return root, nil
}

func (c *cli) load(cmd *cobra.Command, args []string) (err error) {
	defer try.Recover(&err)

	path := c.v.GetString("config")
	if path == "" {
		return errMissingConfig
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	c.node, err = config.LoadFile(os.DirFS(filepath.Dir(abs)), filepath.Base(abs), config.FormatOf(abs))
	if err != nil {
		return err
	}

	level := c.v.GetString("log-level")
	if n := c.node.Get("log_level"); level == "" && n.Exists() && !n.IsNull() {
		level, err = n.AsString()
		if err != nil {
			return UnknownLogLevelError{Level: fmt.Sprint(n.Interface())}
		}
	}
	c.log, err = newLogger(c.stderr, level)
	if err != nil {
		return err
	}

	lc, _ := lifecycle.FromContext(cmd.Context())
	lc.OnExit(lifecycle.HookFunc(func(ctx context.Context) error {
		// syncing a terminal fails on some platforms
		c.log.Sync()
		return nil
	}))

	c.cfg, err = otelcompose.New(
		otelcompose.WithLogger(otelslog.New(zapHandler(c.stderr, c.log.Level()))),
		otelcompose.WithHTTPClientLogger(c.log),
	)
	return err
}

func newLogger(w io.Writer, level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	switch strings.ToLower(level) {
	case "none":
		return zap.NewNop(), nil
	case "", "info":
		lvl = zapcore.InfoLevel
	case "all", "verbose", "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		return nil, UnknownLogLevelError{Level: level}
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	return zap.New(core), nil
}

// zapHandler mirrors the zap level for the slog records of the composer.
func zapHandler(w io.Writer, lvl zapcore.Level) slog.Handler {
	var sl slog.Level
	switch {
	case lvl == zapcore.InvalidLevel:
		return slog.DiscardHandler
	case lvl <= zapcore.DebugLevel:
		sl = slog.LevelDebug
	case lvl == zapcore.InfoLevel:
		sl = slog.LevelInfo
	case lvl == zapcore.WarnLevel:
		sl = slog.LevelWarn
	default:
		sl = slog.LevelError
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: sl})
}

func (c *cli) compose(ctx context.Context) (*pipeline.Pipeline, error) {
	pl, err := c.cfg.Create(ctx, c.node)
	if err != nil {
		return nil, err
	}

	lc, _ := lifecycle.FromContext(ctx)
	lc.OnExit(lifecycle.HookFunc(pl.Shutdown))

	c.log = zap.New(zapcore.NewTee(c.log.Core(), pl.ZapCore("otelcompose")))
	return pl, nil
}

func (c *cli) validate(cmd *cobra.Command, args []string) error {
	_, err := c.compose(cmd.Context())
	if err != nil {
		return err
	}

	c.log.Debug("configuration is valid", zap.String("config", c.v.GetString("config")))
	fmt.Fprintln(c.stdout, "configuration is valid")
	return nil
}

func (c *cli) inspect(cmd *cobra.Command, args []string) error {
	pl, err := c.compose(cmd.Context())
	if err != nil {
		return err
	}

	fields := pl.Propagator().Fields()
	slices.Sort(fields)

	fmt.Fprintf(c.stdout, "propagator fields: %s\n", strings.Join(fields, ","))
	fmt.Fprintf(c.stdout, "resource schema url: %s\n", pl.Resource().SchemaURL())
	fmt.Fprintln(c.stdout, "resource attributes:")
	for _, kv := range pl.Resource().Attributes() {
		fmt.Fprintf(c.stdout, "  %s=%s\n", kv.Key, kv.Value.Emit())
	}
	fmt.Fprintf(c.stdout, "tracer provider: %s\n", enabled(pl.TracerProvider() != nil))
	fmt.Fprintf(c.stdout, "meter provider: %s\n", enabled(pl.MeterProvider() != nil))
	fmt.Fprintf(c.stdout, "logger provider: %s\n", enabled(pl.LoggerProvider() != nil))

	c.log.Info("inspected configuration", zap.Strings("propagator_fields", fields))
	return nil
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
