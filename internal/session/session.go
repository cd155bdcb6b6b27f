// Package session assembles SQL and shell commands for the remote
// cluster, dispatches them through a connector, and turns the captured
// text back into structured results. It is a synchronous, blocking
// wrapper: one statement in, one parsed result out, no retries.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiveline/hiveline/internal/config"
	"github.com/hiveline/hiveline/internal/connector"
	"github.com/hiveline/hiveline/internal/querylog"
	"github.com/hiveline/hiveline/internal/sqltext"
	"github.com/hiveline/hiveline/internal/table"
)

// Session runs statements against the cluster through a connector.
type Session struct {
	cfg  config.Config
	conn connector.Connector
	log  zerolog.Logger
	qlog *querylog.Writer
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the diagnostic logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// New creates a session over an already-configured connector. When the
// config names a log directory, executed statements are recorded there.
func New(cfg config.Config, conn connector.Connector, opts ...Option) (*Session, error) {
	s := &Session{
		cfg:  cfg,
		conn: conn,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.LogDir != "" {
		qlog, err := querylog.New(cfg.LogDir)
		if err != nil {
			return nil, err
		}
		s.qlog = qlog
	}

	return s, nil
}

// runOptions hold per-statement execution parameters.
type runOptions struct {
	queue    string
	timeout  time.Duration
	logQuery bool
}

// RunOption configures a single statement execution.
type RunOption func(*runOptions)

// WithQueue overrides the scheduler queue for this statement.
func WithQueue(queue string) RunOption {
	return func(o *runOptions) {
		o.queue = queue
	}
}

// WithTimeout bounds the statement's execution time. Zero means
// unbounded, which is the default.
func WithTimeout(d time.Duration) RunOption {
	return func(o *runOptions) {
		o.timeout = d
	}
}

// WithLog enables or disables the query log for this statement.
func WithLog(enabled bool) RunOption {
	return func(o *runOptions) {
		o.logQuery = enabled
	}
}

// Result is the parsed outcome of one SQL statement.
type Result struct {
	// Table is the parsed result grid; empty for statements that
	// return no grid (DDL, INSERT).
	Table *table.Table

	// RowCount is the client-reported row count, falling back to the
	// number of parsed rows when no summary line was present.
	RowCount int

	// Raw is the extracted grid text (or plain output) as received.
	Raw string

	// RowLine is the client's summary line, e.g. "3 rows selected".
	RowLine string

	// LogPath is the query log file the statement was recorded to,
	// empty when logging is off.
	LogPath string
}

// QueryError reports a statement the remote client rejected or failed.
type QueryError struct {
	Statement string
	Message   string
	ExitCode  int
	Output    string
}

func (e *QueryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("statement failed with exit code %d", e.ExitCode)
}

// ShellError reports a remote shell command that exited non-zero.
type ShellError struct {
	Cmd      string
	ExitCode int
	Stderr   string
}

func (e *ShellError) Error() string {
	msg := fmt.Sprintf("command failed with exit code %d: %s", e.ExitCode, e.Cmd)
	if e.Stderr != "" {
		msg += "\nstderr: " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (s *Session) options(opts []RunOption) runOptions {
	o := runOptions{
		queue:    s.cfg.Beeline.DefaultQueue,
		logQuery: s.qlog != nil,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// RunSQL executes one SQL statement through the remote client and parses
// the result grid. Failures carry the captured output in a *QueryError.
func (s *Session) RunSQL(ctx context.Context, sql string, opts ...RunOption) (*Result, error) {
	o := s.options(opts)

	if err := s.conn.Connect(ctx); err != nil {
		return nil, err
	}

	statement := sqltext.Clean(sql)
	cmd := s.sqlCommand(statement, o.queue)

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	s.log.Debug().Str("queue", o.queue).Str("statement", statement).Msg("dispatching sql")

	res, err := s.conn.Execute(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("dispatch to %s: %w", s.conn.String(), err)
	}

	grid, rowLine, errMsg := table.Extract(res.Stdout)
	s.log.Debug().Dur("took", time.Since(start)).Int("exit", res.ExitCode).Msg("sql finished")

	logPath := ""
	if o.logQuery && s.qlog != nil {
		output := grid
		if errMsg != "" {
			output = errMsg
		}
		path, logErr := s.qlog.Record(statement, output, rowLine)
		if logErr != nil {
			s.log.Warn().Err(logErr).Msg("query log write failed")
		} else {
			logPath = path
		}
	}

	if errMsg != "" || res.ExitCode != 0 {
		return nil, &QueryError{
			Statement: statement,
			Message:   errMsg,
			ExitCode:  res.ExitCode,
			Output:    res.Stdout,
		}
	}

	tbl, reported := table.Parse(grid)
	rowCount := reported
	if rowCount < 0 {
		rowCount = tbl.NumRows()
	}

	return &Result{
		Table:    tbl,
		RowCount: rowCount,
		Raw:      grid,
		RowLine:  rowLine,
		LogPath:  logPath,
	}, nil
}

// RunShell executes a shell command on the remote host. Commands that
// touch HDFS get the cluster environment and Kerberos ticket prepended,
// mirroring what an analyst would type by hand.
func (s *Session) RunShell(ctx context.Context, cmd string, opts ...RunOption) (string, error) {
	o := s.options(opts)

	if err := s.conn.Connect(ctx); err != nil {
		return "", err
	}

	full := cmd
	if needsClusterEnv(cmd) {
		full = s.clusterPrefix() + cmd
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	s.log.Debug().Str("cmd", cmd).Msg("dispatching shell command")

	res, err := s.conn.Execute(ctx, full)
	if err != nil {
		return "", fmt.Errorf("dispatch to %s: %w", s.conn.String(), err)
	}

	if o.logQuery && s.qlog != nil {
		if _, logErr := s.qlog.Record(cmd, res.Stdout, ""); logErr != nil {
			s.log.Warn().Err(logErr).Msg("query log write failed")
		}
	}

	if res.ExitCode != 0 {
		return res.Stdout, &ShellError{Cmd: cmd, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	return res.Stdout, nil
}

// sqlCommand builds the one-shot client invocation for a statement.
func (s *Session) sqlCommand(statement, queue string) string {
	var sb strings.Builder
	sb.WriteString(s.clusterPrefix())
	sb.WriteString(s.cfg.Beeline.BinPath)
	if queue != "" {
		sb.WriteString(" --hiveconf mapreduce.job.queuename=")
		sb.WriteString(queue)
	}
	sb.WriteString(" -e ")
	sb.WriteString(shellQuote(statement + ";"))
	return sb.String()
}

// clusterPrefix sources the cluster environment and obtains a Kerberos
// ticket, the preamble every hadoop-facing command needs.
func (s *Session) clusterPrefix() string {
	return fmt.Sprintf("source %s; kinit -kt %s %s; ",
		s.cfg.Beeline.EnvPath, s.cfg.Beeline.KeytabPath, s.cfg.Beeline.Principal)
}

func needsClusterEnv(cmd string) bool {
	lower := strings.ToLower(cmd)
	return strings.Contains(lower, "hdfs") || strings.Contains(lower, "hadoop")
}

// shellQuote quotes a string for safe use in shell commands.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
