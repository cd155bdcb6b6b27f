package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/hiveline/hiveline/internal/output"
	"github.com/hiveline/hiveline/internal/session"
)

// historyFile keeps REPL history across sessions.
const historyFile = ".hiveline_history"

// shellCmd starts the interactive REPL
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive SQL shell",
	Long: `Open a prompt that sends statements to the remote client. Statements
may span multiple lines and are dispatched when a line ends with ';'.
Lines starting with '!' run as shell commands on the edge node.
Exit with Ctrl-D.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, sess, err := connect(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := signalContext()
	defer cancel()

	// Connect up front so auth problems surface before the first prompt.
	if err := conn.Connect(ctx); err != nil {
		return err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:            filepath.Join(home, historyFile),
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	out := newOutput()
	out.Info("Connected to %s. End statements with ';', Ctrl-D to exit.", conn.String())

	for {
		// Gather a multi-line statement terminated by a ;
		rl.SetPrompt("hiveline> ")
		var lines []string
		for {
			line, err := rl.Readline()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				if err == readline.ErrInterrupt {
					return nil
				}
				return err
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			lines = append(lines, line)
			if strings.HasSuffix(line, ";") || strings.HasPrefix(lines[0], "!") {
				break
			}
			rl.SetPrompt("       -> ")
		}

		statement := strings.Join(lines, "\n")
		_ = rl.SaveHistory(statement)

		dispatch(ctx, sess, out, statement)
	}
}

// dispatch sends one REPL input to the cluster and prints the outcome.
// Errors are printed, not returned: one bad statement should not end
// the session.
func dispatch(ctx context.Context, sess *session.Session, out *output.Output, statement string) {
	if rest, ok := strings.CutPrefix(statement, "!"); ok {
		stdout, err := sess.RunShell(ctx, rest)
		if stdout != "" {
			out.Raw(stdout)
		}
		if err != nil {
			out.Error("%v", err)
		}
		return
	}

	res, err := sess.RunSQL(ctx, statement)
	if err != nil {
		out.Error("%v", err)
		return
	}

	if res.Table != nil && !res.Table.Empty() {
		out.Table(res.Table, res.RowLine)
	} else if res.Raw != "" {
		out.Raw(res.Raw)
	} else if res.RowLine != "" {
		out.Raw(res.RowLine)
	}
}
