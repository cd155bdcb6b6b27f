// Package main is the entrypoint for the hiveline CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	// Import steps to register them
	_ "github.com/hiveline/hiveline/internal/step/get"
	_ "github.com/hiveline/hiveline/internal/step/put"
	_ "github.com/hiveline/hiveline/internal/step/shell"
	_ "github.com/hiveline/hiveline/internal/step/sql"

	"github.com/hiveline/hiveline/internal/config"
	"github.com/hiveline/hiveline/internal/connector/ssh"
	"github.com/hiveline/hiveline/internal/executor"
	"github.com/hiveline/hiveline/internal/output"
	"github.com/hiveline/hiveline/internal/runbook"
	"github.com/hiveline/hiveline/internal/session"
	"github.com/hiveline/hiveline/internal/step"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags
var (
	debug   bool
	noColor bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "hiveline",
	Short: "Hiveline - Remote SQL sessions for Hadoop edge nodes",
	Long: `Hiveline runs SQL through the Beeline client on a remote Hadoop
edge node over SSH, parses result grids into tables, transfers files,
and scripts batches of statements as YAML runbooks.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output with detailed diagnostics")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(stepsCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(daysCmd)
	rootCmd.AddCommand(monthsCmd)
	rootCmd.AddCommand(partitionsCmd)
}

// newOutput builds the terminal writer honoring the global flags.
func newOutput() *output.Output {
	out := output.New(os.Stdout)
	out.SetColor(!noColor)
	out.SetDebug(debug)
	return out
}

// newLogger builds the diagnostic logger. It stays quiet unless --debug
// is set.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// loadConfig reads the persisted configuration.
func loadConfig() (config.Config, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(path)
}

// connect builds the SSH connector and session from the configuration.
// The caller owns the returned connector and must Close it.
func connect(cfg config.Config) (*ssh.Connector, *session.Session, error) {
	log := newLogger()

	opts := []ssh.Option{ssh.WithLogger(log)}
	if cfg.SSH.Password != "" {
		opts = append(opts, ssh.WithPassword(cfg.SSH.Password))
	}
	if cfg.SSH.KeyFile != "" {
		opts = append(opts, ssh.WithKeyFile(cfg.SSH.KeyFile))
	}

	conn := ssh.New(cfg.SSH.Host, cfg.SSH.Port, cfg.SSH.User, opts...)

	sess, err := session.New(cfg, conn, session.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}

	return conn, sess, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
		cancel()
	}()

	return ctx, cancel
}

// runCmd executes a runbook
var runCmd = &cobra.Command{
	Use:   "run <runbook.yaml>",
	Short: "Run a runbook",
	Long: `Execute the steps of a runbook against the configured cluster.

Examples:
  hiveline run refresh.yaml
  hiveline run refresh.yaml --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runRunbook,
}

var dryRun bool

func init() {
	runCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would run without executing")
}

func runRunbook(cmd *cobra.Command, args []string) error {
	rbPath := args[0]

	if _, err := os.Stat(rbPath); os.IsNotExist(err) {
		return fmt.Errorf("runbook not found: %s", rbPath)
	}

	rb, err := runbook.ParseFile(rbPath)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, sess, err := connect(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	exec := executor.New(&step.Env{Session: sess, Conn: conn})
	exec.DryRun = dryRun
	exec.Output = newOutput()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := exec.Run(ctx, rb)
	if err != nil {
		return err
	}
	if !result.Success {
		os.Exit(1)
	}

	return nil
}

// validateCmd validates runbooks without running them
var validateCmd = &cobra.Command{
	Use:   "validate <runbook.yaml> [runbook2.yaml ...]",
	Short: "Validate one or more runbooks",
	Long: `Parse and validate runbooks without executing them.

This checks for:
  - Valid YAML syntax
  - Required fields (steps)
  - Known step types

Examples:
  hiveline validate refresh.yaml
  hiveline validate *.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateRunbooks,
}

func validateRunbooks(cmd *cobra.Command, args []string) error {
	var hasErrors bool

	for _, rbPath := range args {
		if err := validateRunbook(rbPath); err != nil {
			fmt.Printf("FAIL: %s - %v\n", rbPath, err)
			hasErrors = true
		} else {
			fmt.Printf("OK: %s\n", rbPath)
		}
	}

	if hasErrors {
		return fmt.Errorf("one or more runbooks failed validation")
	}

	fmt.Printf("\nAll %d runbook(s) valid.\n", len(args))
	return nil
}

func validateRunbook(rbPath string) error {
	if _, err := os.Stat(rbPath); os.IsNotExist(err) {
		return fmt.Errorf("not found")
	}

	rb, err := runbook.ParseFile(rbPath)
	if err != nil {
		return err
	}

	var errs []string
	for _, s := range rb.Steps {
		if err := runbook.ResolveType(s); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", s.String(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d error(s): %s", len(errs), errs[0])
	}

	return nil
}

// stepsCmd lists available step types
var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List available step types",
	Long:  `Display a list of all step types that can be used in runbooks.`,
	Run: func(cmd *cobra.Command, args []string) {
		names := step.List()
		if len(names) == 0 {
			fmt.Println("No step types registered.")
			return
		}

		fmt.Println("Available step types:")
		fmt.Println()
		for _, name := range names {
			fmt.Printf("  - %s\n", name)
		}
		fmt.Println()
		fmt.Printf("Total: %d step types\n", len(names))
	},
}
