package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hiveline/hiveline/internal/export"
)

// putCmd uploads a file
var putCmd = &cobra.Command{
	Use:   "put <local> [remote]",
	Short: "Upload a file to the edge node",
	Long: `Copy a local file to the remote host over SFTP. Without a remote
path the file lands in the configured upload directory.

Examples:
  hiveline put data.csv
  hiveline put data.csv /home/analyst/uploads/data.csv`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

func runPut(cmd *cobra.Command, args []string) error {
	src := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dest := ""
	if len(args) == 2 {
		dest = args[1]
	} else {
		dest = filepath.ToSlash(filepath.Join(cfg.Transfer.RemoteDir, filepath.Base(src)))
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	conn, _, err := connect(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := conn.Connect(ctx); err != nil {
		return err
	}
	if err := conn.Upload(ctx, f, dest, 0o644); err != nil {
		return err
	}

	fmt.Printf("Uploaded %s to %s\n", src, dest)
	return nil
}

// getCmd downloads a file
var getCmd = &cobra.Command{
	Use:   "get <remote> [local]",
	Short: "Download a file from the edge node",
	Long: `Copy a remote file to the local machine over SFTP. Without a local
path the file is written to the current directory.

Examples:
  hiveline get /home/analyst/uploads/report.csv
  hiveline get /home/analyst/uploads/report.csv ./report.csv`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	src := args[0]

	dest := filepath.Base(src)
	if len(args) == 2 {
		dest = args[1]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	conn, _, err := connect(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := conn.Connect(ctx); err != nil {
		return err
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := conn.Download(ctx, src, f); err != nil {
		return err
	}

	fmt.Printf("Downloaded %s to %s\n", src, dest)
	return nil
}

// exportCmd exports a table to a local CSV
var exportCmd = &cobra.Command{
	Use:   "export <table>",
	Short: "Export a table to a local CSV file",
	Long: `Stage the table's rows to HDFS, merge them with a header line into
one CSV on the edge node, and download it.

Examples:
  hiveline export db.events
  hiveline export db.events --out ./exports`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var exportOut string

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "Local directory for the CSV file")
}

func runExport(cmd *cobra.Command, args []string) error {
	tableName := args[0]

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

	exp := export.New(cfg, sess, conn,
		export.WithLogger(newLogger()),
		export.WithProgress(out.Step))

	if size, err := exp.Size(ctx, tableName); err == nil && size > 0 {
		out.Info("Table size: %s", export.HumanSize(size))
	}

	path, err := exp.Export(ctx, tableName, exportOut)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %s to %s\n", tableName, path)
	return nil
}

// importCmd loads a local CSV into a table
var importCmd = &cobra.Command{
	Use:   "import <file.csv> <table>",
	Short: "Load a local CSV file into a table",
	Long: `Upload a CSV, strip its header, push it to HDFS, and LOAD DATA it
into the named table. The table is created from the header if missing
and truncated before loading.

Examples:
  hiveline import events.csv db.events_import`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	csvPath, tableName := args[0], args[1]

	if _, err := os.Stat(csvPath); err != nil {
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

	ctx, cancel := signalContext()
	defer cancel()

	out := newOutput()

	exp := export.New(cfg, sess, conn,
		export.WithLogger(newLogger()),
		export.WithProgress(out.Step))

	if err := exp.Import(ctx, csvPath, tableName); err != nil {
		return err
	}

	fmt.Printf("Imported %s into %s\n", csvPath, tableName)
	return nil
}
