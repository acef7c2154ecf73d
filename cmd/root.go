package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
	"github.com/spf13/cobra"

	"github.com/s0up4200/dhparkeren/config"
	"github.com/s0up4200/dhparkeren/filter"
	"github.com/s0up4200/dhparkeren/metrics"
	"github.com/s0up4200/dhparkeren/parkeren"
)

// skipClientAnnotation marks commands that run without config or session
const skipClientAnnotation = "skip-client"

var (
	cfgFile   string
	cfg       *config.Config
	logger    = zerolog.Nop()
	logWriter io.Closer
	client    *parkeren.Client
	filters   *filter.Manager
	recorder  *metrics.Recorder

	// Command flags
	dryRun    bool
	noConfirm bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dhparkeren",
	Short: "Manage visitor parking reservations in The Hague",
	Long: `dhparkeren is a CLI for the visitor parking service of The Hague.
It shows your balance and history, manages favorite license plates and
creates, extends and deletes parking reservations.`,
	SilenceUsage:       true,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: closeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		// PersistentPostRunE does not run when a command fails.
		_ = closeApp(rootCmd, nil)
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "d", false, "show what would change without calling the service")
	rootCmd.PersistentFlags().BoolVarP(&noConfirm, "yes", "y", false, "skip confirmation prompts")

	// Add subcommands
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reservationsCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)
}

// initializeApp loads the configuration and opens the scoped client
func initializeApp(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipClientAnnotation] == "true" {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logWriter = setupLogger(cfg.Logging)

	filters = filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filter); err != nil {
		return fmt.Errorf("invalid filter preset: %w", err)
	}

	var opts []parkeren.Option
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
		opts = append(opts, parkeren.WithRecorder(recorder))
	}

	client, err = parkeren.NewClient(cfg.ParkerenConfig(), cfg.Secrets(), logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	if err := client.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	logger.Debug().
		Str("base_url", cfg.Client.BaseURL).
		Object("account", cfg.Secrets()).
		Msg("Client ready")
	return nil
}

// closeApp ends the session, prints metrics and flushes the logger. It is
// safe to call more than once.
func closeApp(cmd *cobra.Command, args []string) error {
	var err error
	if client != nil {
		err = client.Close()
		client = nil
	}

	if recorder != nil {
		fmt.Fprintln(os.Stderr, "\nRequest metrics:")
		if werr := recorder.WriteSummary(os.Stderr); werr != nil {
			logger.Warn().Err(werr).Msg("Failed to write metrics summary")
		}
		recorder = nil
	}

	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}
	return err
}

// setupLogger configures the zerolog logger. Output goes through a diode
// writer so logging never blocks requests; the returned closer flushes it.
func setupLogger(cfg config.LoggingConfig) (zerolog.Logger, io.Closer) {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if cfg.Format != "json" {
		fd := os.Stderr.Fd()
		tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		out = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    !cfg.Color || !tty,
		}
	}

	w := diode.NewWriter(out, 1000, 10*time.Millisecond, func(missed int) {
		fmt.Fprintf(os.Stderr, "Logger dropped %d messages\n", missed)
	})

	return zerolog.New(w).With().Timestamp().Logger(), w
}

// confirm asks a yes/no question unless --yes was given
func confirm(question string) bool {
	if noConfirm {
		return true
	}
	fmt.Printf("%s [y/N]: ", question)
	var response string
	_, _ = fmt.Scanln(&response)
	return strings.EqualFold(strings.TrimSpace(response), "y")
}
