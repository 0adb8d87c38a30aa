// Package commands implements the CLI commands for answerstream.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/answerstream/internal/application"
	"github.com/jbctechsolutions/answerstream/internal/infrastructure/config"
	"github.com/jbctechsolutions/answerstream/internal/presentation/cli/output"
)

// Version information - set at build time via ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// annotationOffline marks commands that run without the application container.
const annotationOffline = "answerstream/offline"

// shutdownGrace bounds how long Execute waits for a running command after a signal.
const shutdownGrace = 10 * time.Second

// errReported is returned by commands that already showed their failure.
// Execute exits non-zero without printing it again.
var errReported = errors.New("failure already reported")

// GlobalFlags holds the global CLI flags.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	Verbose    bool
}

// AppContext holds the application runtime context.
type AppContext struct {
	Config     *config.Config
	Formatter  *output.Formatter
	Flags      *GlobalFlags
	Container  *application.Container
	ctx        context.Context
	cancelFunc context.CancelFunc
}

var (
	globalFlags GlobalFlags
	appCtx      *AppContext
	appCtxMu    sync.RWMutex
)

// NewRootCmd creates the root command for the answerstream CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "answerstream",
		Short: "Answerstream - stream cleaned, scored answers from Bedrock and OpenAI models",
		Long: `Answerstream streams answers from Bedrock and OpenAI chat models to a client.

Every partial answer is cleaned and delivered as a JSON envelope while the
model is still generating. The final answer is scored for relevance against
the retrieved context it was grounded in.

Key features:
  • Streaming delivery to stdout, WebSocket clients or API Gateway connections
  • Answer and question cleanup (repetition, bullet and keyword removal)
  • Word coverage and token intersection relevance scoring
  • Per-stream metrics stored in SQLite`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || isOffline(cmd) {
				return nil
			}
			return initializeApp(cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "config file path (default: ~/.answerstream/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Output, "output", "o", "text", "output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewModelsCmd())
	rootCmd.AddCommand(NewCleanCmd())
	rootCmd.AddCommand(NewScoreCmd())
	rootCmd.AddCommand(NewAskCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewMetricsCmd())

	return rootCmd
}

// offline marks cmd as runnable without configuration or providers.
func offline(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationOffline] = "true"
	return cmd
}

func isOffline(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationOffline] == "true" {
			return true
		}
	}
	return false
}

// newFormatter builds a formatter for w honoring the --output flag.
func newFormatter(w io.Writer) (*output.Formatter, error) {
	format, err := output.ParseFormat(globalFlags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(
		output.WithWriter(w),
		output.WithFormat(format),
		output.WithColor(format != output.FormatJSON && output.IsColorSupported()),
	), nil
}

// initializeApp loads configuration and builds the application container.
func initializeApp(w io.Writer) error {
	formatter, err := newFormatter(w)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(globalFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	container, err := application.NewContainer(cfg, globalFlags.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	appCtxMu.Lock()
	appCtx = &AppContext{
		Config:     cfg,
		Formatter:  formatter,
		Flags:      &globalFlags,
		Container:  container,
		ctx:        ctx,
		cancelFunc: cancel,
	}
	appCtxMu.Unlock()

	return nil
}

// loadConfig loads configuration from the specified file or default location.
func loadConfig(configPath string) (*config.Config, error) {
	loader, err := config.NewLoader("")
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}

	return loader.Load(configPath)
}

// GetAppContext returns the current application context.
// Returns nil if the app hasn't been initialized.
func GetAppContext() *AppContext {
	appCtxMu.RLock()
	defer appCtxMu.RUnlock()
	return appCtx
}

// GetFormatter returns the output formatter.
// Creates a default formatter if app context is not initialized.
func GetFormatter() *output.Formatter {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()

	if ctx != nil {
		return ctx.Formatter
	}
	return output.NewFormatter(output.WithColor(output.IsColorSupported()))
}

// GetContainer returns the application container.
// Returns nil if the app hasn't been initialized.
func GetContainer() *application.Container {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()

	if ctx != nil {
		return ctx.Container
	}
	return nil
}

// appContext returns the context canceled on shutdown.
func appContext() context.Context {
	appCtxMu.RLock()
	defer appCtxMu.RUnlock()

	if appCtx != nil && appCtx.ctx != nil {
		return appCtx.ctx
	}
	return context.Background()
}

// requireContainer returns the container or an error when initialization was skipped.
func requireContainer() (*application.Container, error) {
	c := GetContainer()
	if c == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return c, nil
}

// Shutdown cancels running work and releases the container.
func Shutdown() {
	appCtxMu.Lock()
	defer appCtxMu.Unlock()

	if appCtx == nil {
		return
	}
	if appCtx.cancelFunc != nil {
		appCtx.cancelFunc()
	}
	if appCtx.Container != nil {
		_ = appCtx.Container.Close()
	}
	appCtx = nil
}

// Execute runs the root command with graceful shutdown support.
func Execute() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		rootCmd := NewRootCmd()
		errChan <- rootCmd.Execute()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			if !errors.Is(err, errReported) {
				GetFormatter().Error("%s", err.Error())
			}
			Shutdown()
			os.Exit(1)
		}
	case sig := <-sigChan:
		formatter := GetFormatter()
		formatter.Warning("Received signal %v, shutting down...", sig)

		appCtxMu.RLock()
		if appCtx != nil && appCtx.cancelFunc != nil {
			appCtx.cancelFunc()
		}
		appCtxMu.RUnlock()

		select {
		case <-errChan:
		case <-time.After(shutdownGrace):
		}
		Shutdown()
		os.Exit(130)
	}

	Shutdown()
}
