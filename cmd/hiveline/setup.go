package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hiveline/hiveline/internal/config"
)

// setupCmd writes the configuration file
var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create or update the configuration file",
	Long: `Interactively prompt for connection settings and write them to
~/` + config.FileName + `. With --defaults, placeholder values are written
instead for later editing.

Examples:
  hiveline setup
  hiveline setup --defaults`,
	RunE: runSetup,
}

var useDefaults bool

func init() {
	setupCmd.Flags().BoolVar(&useDefaults, "defaults", false, "Write placeholder values without prompting")
}

func runSetup(cmd *cobra.Command, args []string) error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Configuration already exists at %s. Overwrite? [y/N] ", path)
		answer, _ := reader.ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := config.Placeholder()

	if !useDefaults {
		w := &wizard{reader: reader}
		w.fill(&cfg)
		if w.err != nil {
			return w.err
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration incomplete: %w", err)
		}
	}

	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", path)
	if useDefaults {
		fmt.Println("Edit the file to set real connection values.")
	}
	return nil
}

// wizard prompts for each config field, showing the current value as
// the default. The first read error stops all further prompts.
type wizard struct {
	reader *bufio.Reader
	err    error
}

func (w *wizard) fill(cfg *config.Config) {
	fmt.Println("Connection settings (press Enter to keep the shown value):")

	w.stringField("SSH host", &cfg.SSH.Host)
	w.intField("SSH port", &cfg.SSH.Port)
	w.stringField("SSH user", &cfg.SSH.User)
	w.stringField("SSH password (empty to use a key file)", &cfg.SSH.Password)
	w.stringField("SSH private key file", &cfg.SSH.KeyFile)
	w.stringField("Cluster env script", &cfg.Beeline.EnvPath)
	w.stringField("Kerberos keytab path", &cfg.Beeline.KeytabPath)
	w.stringField("Kerberos principal", &cfg.Beeline.Principal)
	w.stringField("Beeline binary path", &cfg.Beeline.BinPath)
	w.stringField("Default queue", &cfg.Beeline.DefaultQueue)
	w.stringField("Remote upload directory", &cfg.Transfer.RemoteDir)
	w.stringField("HDFS export directory", &cfg.Transfer.ExportDir)
	w.stringField("Query log directory (empty to disable)", &cfg.LogDir)
}

func (w *wizard) prompt(label, current string) string {
	if w.err != nil {
		return current
	}

	fmt.Printf("  %s [%s]: ", label, current)
	line, err := w.reader.ReadString('\n')
	if err != nil {
		w.err = fmt.Errorf("failed to read input: %w", err)
		return current
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
}

func (w *wizard) stringField(label string, field *string) {
	*field = w.prompt(label, *field)
}

func (w *wizard) intField(label string, field *int) {
	s := w.prompt(label, strconv.Itoa(*field))
	n, err := strconv.Atoi(s)
	if err != nil {
		if w.err == nil {
			w.err = fmt.Errorf("%s: %q is not a number", label, s)
		}
		return
	}
	*field = n
}
