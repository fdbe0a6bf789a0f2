package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/examlayout/internal/editor"
	"github.com/pavelanni/examlayout/internal/events"
	appI18n "github.com/pavelanni/examlayout/internal/i18n"
	"github.com/pavelanni/examlayout/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "examlayout",
		Short:        "Edit the slot, page and section structure of exams",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("db", "examlayout.db", "SQLite database path")
	pf.String("db-driver", "sqlite", "Database driver (sqlite, postgres)")
	pf.String("dsn", "", "Database DSN; overrides --db")
	pf.String("redis-addr", "", "Redis address for the event stream (empty disables it)")
	pf.String("redis-password", "", "Redis password")
	pf.String("redis-stream", events.DefaultStream, "Redis stream name for events")
	pf.Int64("redis-max-len", 10000, "Approximate maximum length of the event stream (0 = unbounded)")
	pf.StringP("lang", "l", "en", "Language for labels and messages (en, ru)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "text", "Log format (text, json)")

	serve := serveCmd()
	root.AddCommand(
		serve,
		importCmd(),
		showCmd(),
		exportCmd(),
		addCmd(),
		moveCmd(),
		removeCmd(),
		pageBreakCmd(),
		repaginateCmd(),
		sectionCmd(),
		attemptCmd(),
		eventsCmd(),
	)

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `examlayout --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMLAYOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examlayout")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examlayout")
	v.AddConfigPath("/etc/examlayout")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// app is what every command works with once flags are resolved.
type app struct {
	v      *viper.Viper
	store  *store.Store
	editor *editor.Editor
	redis  *events.RedisSink
}

// setup configures logging and i18n, opens the store and wires the event sinks.
func setup(cmd *cobra.Command) (*app, error) {
	v := viperForCmd(cmd)
	setupLogging(v)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = appI18n.WithLocalizer(ctx, appI18n.NewLocalizer(v.GetString("lang")))
	cmd.SetContext(ctx)
	db, err := openStore(ctx, v)
	if err != nil {
		return nil, err
	}

	a := &app{v: v, store: db}
	sinks := events.Multi{db, events.NewLogSink(slog.Default())}
	if addr := v.GetString("redis-addr"); addr != "" {
		rs, err := events.NewRedisSink(ctx, addr, v.GetString("redis-password"),
			v.GetString("redis-stream"), v.GetInt64("redis-max-len"))
		if err != nil {
			db.Close()
			return nil, err
		}
		a.redis = rs
		sinks = append(sinks, rs)
		slog.Info("publishing events to redis", "addr", addr, "stream", v.GetString("redis-stream"))
	}
	a.editor = editor.New(db, sinks)
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("failed to close redis", "error", err)
		}
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}

func openStore(ctx context.Context, v *viper.Viper) (*store.Store, error) {
	driver, err := store.ParseDriver(v.GetString("db-driver"))
	if err != nil {
		return nil, err
	}
	var db *store.Store
	if dsn := v.GetString("dsn"); dsn != "" || driver != store.DriverSQLite {
		db, err = store.Open(ctx, driver, dsn)
	} else {
		db, err = store.New(v.GetString("db"))
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	slog.Debug("database opened", "driver", driver)
	return db, nil
}
