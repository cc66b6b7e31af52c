package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/interop-runtime/config"
	"github.com/wippyai/interop-runtime/interoptest"
	"github.com/wippyai/interop-runtime/native"
	"github.com/wippyai/interop-runtime/session"
	"github.com/wippyai/interop-runtime/transcoder"
)

var (
	// Global flags
	profilePath string
	installDir  string
	product     string
	logLevel    string
	hide        bool
	offline     bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "interop",
	Short: "Drive a simulation application through its interop library",
	Long: `interop opens a session on a locally installed simulation application
(fdtd, mode, device or interconnect) and exchanges values with it.

Settings come from an optional YAML profile, overridden by flags. With
--offline an in-memory application is used instead of the native library.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&profilePath, "profile", "p", "", "YAML session profile")
	pf.StringVar(&installDir, "install-dir", "", "application install directory (default $"+config.EnvInstallDir+")")
	pf.StringVar(&product, "product", "", "application to start: fdtd, mode, device or interconnect")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&hide, "hide", false, "start the application without its window")
	pf.BoolVar(&offline, "offline", false, "use the in-memory application")

	rootCmd.AddCommand(evalCmd, getCmd, putCmd, objectsCmd, propsCmd, shellCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	shutdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// shutdown closes sessions left open by an interrupted command, then the
// native libraries they ran on.
func shutdown() {
	if err := session.CloseAll(); err != nil {
		logger.Warn("closing sessions failed", zap.Error(err))
	}
	if err := native.Shutdown(); err != nil {
		logger.Warn("unloading libraries failed", zap.Error(err))
	}
	_ = logger.Sync()
}

func initLogger() error {
	level := logLevel
	if level == "" {
		level = "warn"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger = l
	session.SetLogger(l.Named("session"))
	native.SetLogger(l.Named("native"))
	transcoder.SetLogger(l.Named("transcoder"))
	interoptest.SetLogger(l.Named("offline"))
	return nil
}

// loadProfile applies command-line overrides on top of the profile file.
func loadProfile() (*config.Profile, error) {
	p, err := config.LoadProfile(profilePath)
	if err != nil {
		return nil, err
	}
	if installDir != "" {
		p.InstallDir = installDir
	}
	if product != "" {
		p.Product = product
	}
	if hide {
		p.Hide = true
	}
	if logLevel == "" && p.LogLevel != "" {
		logLevel = p.LogLevel
		if err := initLogger(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func openSession(ctx context.Context) (*session.Session, error) {
	p, err := loadProfile()
	if err != nil {
		return nil, err
	}
	opts := session.FromProfile(p)
	opts.Logger = logger.Named("session")
	opts.Warn = func(w session.Warning) {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+w.Message))
	}

	if offline {
		return session.Open(ctx, interoptest.New(), p.Product, opts)
	}
	return session.OpenNative(ctx, p.Product, opts)
}

// withSession runs fn on a fresh session that is closed afterwards.
func withSession(cmd *cobra.Command, fn func(context.Context, *session.Session) error) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()
	return fn(ctx, s)
}
