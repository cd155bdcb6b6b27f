package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/hiveline/hiveline/internal/table"
	"github.com/hiveline/hiveline/pkg/facts"
)

// infoCmd shows edge node details
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show edge node and hadoop client details",
	Long: `Connect to the edge node and print its host facts, hadoop client
versions, and free space in the upload directory.

Examples:
  hiveline info`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
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

	gathered, err := facts.Gather(ctx, conn)
	if err != nil {
		return err
	}

	out := newOutput()

	keys := make([]string, 0, len(gathered))
	for k := range gathered {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := &table.Table{Columns: []string{"fact", "value"}}
	for _, k := range keys {
		t.Rows = append(t.Rows, []string{k, gathered[k]})
	}
	out.Table(t, "")

	if usage, err := facts.DiskUsage(ctx, conn, cfg.Transfer.RemoteDir); err == nil && usage != "" {
		out.Info("Upload dir: %s", usage)
	}

	return nil
}
