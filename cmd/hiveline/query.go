package main

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hiveline/hiveline/internal/session"
)

// Query flags
var (
	queryQueue   string
	queryTimeout int
	queryNoLog   bool
)

// sqlCmd runs one SQL statement
var sqlCmd = &cobra.Command{
	Use:   "sql <statement>",
	Short: "Run one SQL statement and print the result",
	Long: `Dispatch a single SQL statement to the remote client and print the
parsed result table.

Examples:
  hiveline sql "SELECT * FROM events LIMIT 10"
  hiveline sql "SELECT COUNT(*) FROM events" --queue analytics
  hiveline sql "DROP TABLE scratch" --no-log`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

// execCmd runs one shell command
var execCmd = &cobra.Command{
	Use:   "exec <command>",
	Short: "Run one shell command on the edge node",
	Long: `Execute a shell command on the remote host and print its output.
Commands that touch HDFS get the cluster environment prepended.

Examples:
  hiveline exec "hdfs dfs -ls /tmp"
  hiveline exec "df -h"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	for _, c := range []*cobra.Command{sqlCmd, execCmd} {
		c.Flags().StringVarP(&queryQueue, "queue", "q", "", "Scheduler queue to submit to")
		c.Flags().IntVarP(&queryTimeout, "timeout", "t", 0, "Seconds to wait before cancelling (0 = no limit)")
		c.Flags().BoolVar(&queryNoLog, "no-log", false, "Skip the query log for this statement")
	}
}

func queryOptions() []session.RunOption {
	opts := []session.RunOption{}
	if queryQueue != "" {
		opts = append(opts, session.WithQueue(queryQueue))
	}
	if queryTimeout > 0 {
		opts = append(opts, session.WithTimeout(time.Duration(queryTimeout)*time.Second))
	}
	if queryNoLog {
		opts = append(opts, session.WithLog(false))
	}
	return opts
}

func runSQL(cmd *cobra.Command, args []string) error {
	statement := strings.Join(args, " ")

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

	out := newOutput()

	res, err := sess.RunSQL(ctx, statement, queryOptions()...)
	if err != nil {
		var qerr *session.QueryError
		if errors.As(err, &qerr) && debug && qerr.Output != "" {
			out.Raw(qerr.Output)
		}
		return err
	}

	if res.Table != nil && !res.Table.Empty() {
		out.Table(res.Table, res.RowLine)
	} else if res.Raw != "" {
		out.Raw(res.Raw)
	} else if res.RowLine != "" {
		out.Raw(res.RowLine)
	}

	if res.LogPath != "" {
		out.Debug("logged to %s", res.LogPath)
	}

	return nil
}

func runExec(cmd *cobra.Command, args []string) error {
	command := strings.Join(args, " ")

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

	out := newOutput()

	stdout, err := sess.RunShell(ctx, command, queryOptions()...)
	if stdout != "" {
		out.Raw(stdout)
	}
	return err
}
