// Package export moves whole tables between the cluster and the local
// machine as CSV. Exports stage the table into an HDFS directory, merge
// the parts into one remote file, and download it; imports go the other
// way, ending in a LOAD DATA into a managed table.
package export

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hiveline/hiveline/internal/config"
	"github.com/hiveline/hiveline/internal/connector"
	"github.com/hiveline/hiveline/internal/session"
)

// Exporter runs table export and import pipelines.
type Exporter struct {
	cfg      config.Config
	sess     *session.Session
	conn     connector.Connector
	log      zerolog.Logger
	progress func(step string)
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the diagnostic logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Exporter) {
		e.log = log
	}
}

// WithProgress installs a callback invoked once per pipeline step with a
// human-readable description.
func WithProgress(fn func(step string)) Option {
	return func(e *Exporter) {
		e.progress = fn
	}
}

// New creates an Exporter sharing the given session and connector.
func New(cfg config.Config, sess *session.Session, conn connector.Connector, opts ...Option) *Exporter {
	e := &Exporter{
		cfg:      cfg,
		sess:     sess,
		conn:     conn,
		log:      zerolog.Nop(),
		progress: func(string) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Columns fetches the column names of a table via DESCRIBE.
func (e *Exporter) Columns(ctx context.Context, tableName string) ([]string, error) {
	res, err := e.sess.RunSQL(ctx, "DESCRIBE "+tableName, session.WithLog(false))
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", tableName, err)
	}
	cols := res.Table.Column("col_name")
	if len(cols) == 0 {
		return nil, fmt.Errorf("describe %s returned no columns", tableName)
	}
	// Partition metadata follows a blank/comment divider; stop there.
	var out []string
	for _, c := range cols {
		if c == "" || strings.HasPrefix(c, "#") {
			break
		}
		out = append(out, c)
	}
	return out, nil
}

// Export dumps a table to a local CSV file and returns its path.
func (e *Exporter) Export(ctx context.Context, tableName, localDir string) (string, error) {
	e.progress("fetching column headers")
	cols, err := e.Columns(ctx, tableName)
	if err != nil {
		return "", err
	}

	stageDir := path.Join(e.cfg.Transfer.ExportDir, tableName)
	remoteCSV := path.Join(e.cfg.Transfer.RemoteDir, tableName+".csv")

	e.progress("staging table into HDFS")
	selects := make([]string, len(cols))
	for i, c := range cols {
		selects[i] = fmt.Sprintf("COALESCE(%s, '')", c)
	}
	stage := fmt.Sprintf(
		"INSERT OVERWRITE DIRECTORY '%s' ROW FORMAT DELIMITED FIELDS TERMINATED BY ',' SELECT %s FROM %s",
		stageDir, strings.Join(selects, ", "), tableName)
	if _, err := e.sess.RunSQL(ctx, stage, session.WithLog(false)); err != nil {
		return "", fmt.Errorf("stage %s: %w", tableName, err)
	}

	e.progress("merging parts into one CSV")
	merge := fmt.Sprintf("echo %s > %s; hdfs dfs -cat %s/* >> %s",
		shellQuote(strings.Join(cols, ",")), remoteCSV, stageDir, remoteCSV)
	if _, err := e.sess.RunShell(ctx, merge, session.WithLog(false)); err != nil {
		return "", fmt.Errorf("merge parts: %w", err)
	}

	e.progress("cleaning up HDFS staging")
	if _, err := e.sess.RunShell(ctx, "hdfs dfs -rm -r "+stageDir, session.WithLog(false)); err != nil {
		e.log.Warn().Err(err).Str("dir", stageDir).Msg("failed to remove staging directory")
	}

	e.progress("downloading CSV")
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", localDir, err)
	}
	localPath := filepath.Join(localDir, tableName+".csv")
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	defer f.Close()

	if err := e.conn.Download(ctx, remoteCSV, f); err != nil {
		return "", err
	}
	return localPath, nil
}

// Import loads a local CSV (first line headers) into a managed table,
// creating the table when it does not exist and truncating it otherwise.
func (e *Exporter) Import(ctx context.Context, localCSV, tableName string) error {
	cols, err := readHeader(localCSV)
	if err != nil {
		return err
	}

	fileName := sanitize(tableName) + ".csv"
	remoteCSV := path.Join(e.cfg.Transfer.RemoteDir, fileName)
	hdfsPath := path.Join(e.cfg.Transfer.ExportDir, fileName)

	e.progress("uploading CSV")
	f, err := os.Open(localCSV)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localCSV, err)
	}
	defer f.Close()
	if err := e.conn.Upload(ctx, f, remoteCSV, 0o644); err != nil {
		return err
	}

	e.progress("stripping header row")
	if _, err := e.sess.RunShell(ctx, fmt.Sprintf("sed -i '1d' %s", remoteCSV), session.WithLog(false)); err != nil {
		return fmt.Errorf("strip header: %w", err)
	}

	e.progress("moving CSV into HDFS")
	put := fmt.Sprintf("hdfs dfs -put -f %s %s", remoteCSV, hdfsPath)
	if _, err := e.sess.RunShell(ctx, put, session.WithLog(false)); err != nil {
		return fmt.Errorf("hdfs put: %w", err)
	}

	e.progress("creating table")
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = sanitize(c) + " STRING"
	}
	create := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s) ROW FORMAT DELIMITED FIELDS TERMINATED BY ','",
		tableName, strings.Join(defs, ", "))
	if _, err := e.sess.RunSQL(ctx, create, session.WithLog(false)); err != nil {
		return fmt.Errorf("create %s: %w", tableName, err)
	}
	if _, err := e.sess.RunSQL(ctx, "TRUNCATE TABLE "+tableName, session.WithLog(false)); err != nil {
		return fmt.Errorf("truncate %s: %w", tableName, err)
	}

	e.progress("loading data")
	load := fmt.Sprintf("LOAD DATA INPATH '%s' INTO TABLE %s", hdfsPath, tableName)
	if _, err := e.sess.RunSQL(ctx, load, session.WithLog(false)); err != nil {
		return fmt.Errorf("load %s: %w", tableName, err)
	}
	return nil
}

var sizeUnits = map[string]int64{
	"KB": 1_000,
	"MB": 1_000_000,
	"GB": 1_000_000_000,
	"TB": 1_000_000_000_000,
	"PB": 1_000_000_000_000_000,
}

// Size estimates a table's size in bytes from DESCRIBE FORMATTED output.
// Zero is returned when the metadata carries no usable size field.
func (e *Exporter) Size(ctx context.Context, tableName string) (int64, error) {
	res, err := e.sess.RunSQL(ctx, "DESCRIBE FORMATTED "+tableName, session.WithLog(false))
	if err != nil {
		return 0, err
	}

	names := res.Table.Column("col_name")
	values := res.Table.Column("data_type")
	if len(values) < len(names) {
		return 0, nil
	}
	for i, name := range names {
		switch strings.TrimSpace(name) {
		case "Statistics":
			// "123456 bytes, 10 rows"
			fields := strings.Fields(values[i])
			if len(fields) > 0 {
				if n, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
					return n, nil
				}
			}
		case "Table Data Size":
			// "2.99TB"
			v := strings.TrimSpace(values[i])
			if len(v) > 2 {
				num, err := strconv.ParseFloat(v[:len(v)-2], 64)
				if err != nil {
					continue
				}
				if mult, ok := sizeUnits[strings.ToUpper(v[len(v)-2:])]; ok {
					return int64(num * float64(mult)), nil
				}
			}
		}
	}
	return 0, nil
}

// HumanSize renders a byte count like "2.99 TB".
func HumanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"bytes", "KB", "MB", "GB", "TB"} {
		if size < 1000 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1000
	}
	return fmt.Sprintf("%.2f PB", size)
}

var nonWord = regexp.MustCompile(`\W+`)

// sanitize turns arbitrary text into a safe identifier.
func sanitize(s string) string {
	return strings.ToLower(strings.Trim(nonWord.ReplaceAllString(strings.TrimSpace(s), "_"), "_"))
}

func readHeader(csvPath string) ([]string, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", csvPath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("%s is empty", csvPath)
	}
	header := strings.TrimSpace(scanner.Text())
	if header == "" {
		return nil, fmt.Errorf("%s has an empty header line", csvPath)
	}
	cols := strings.Split(header, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	return cols, nil
}

// shellQuote quotes a string for safe use in shell commands.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
