package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/law-makers/scavenger/internal/store"
	"github.com/law-makers/scavenger/internal/ui"
	"github.com/law-makers/scavenger/internal/utils/output"
)

var scrapsFilter store.Filter

var (
	exportFormat string
	exportOutput string
)

var scrapsCmd = &cobra.Command{
	Use:   "scraps",
	Short: "Inspect and export stored scraps",
}

var scrapsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored scraps",
	Args:  cobra.NoArgs,
	RunE:  runScrapsList,
}

var scrapsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored scraps as JSON, CSV or Markdown",
	Example: `  # Export every scrap as JSON to stdout
  scavenger scraps export

  # Export one target as CSV; the format follows the file extension
  scavenger scraps export --target listings -o listings.csv`,
	Args: cobra.NoArgs,
	RunE: runScrapsExport,
}

func init() {
	rootCmd.AddCommand(scrapsCmd)
	scrapsCmd.AddCommand(scrapsListCmd)
	scrapsCmd.AddCommand(scrapsExportCmd)

	pf := scrapsCmd.PersistentFlags()
	pf.StringVarP(&scrapsFilter.Target, "target", "t", "", "Only scraps of this target")
	pf.StringVarP(&scrapsFilter.Model, "model", "m", "", "Only scraps of this model")
	pf.IntVarP(&scrapsFilter.Limit, "limit", "n", 0, "Max. number of scraps (0 for all)")

	scrapsExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Export format: json, csv or markdown")
	scrapsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "File to write (default stdout)")
}

func runScrapsList(cmd *cobra.Command, _ []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	scraps, err := a.Store.List(cmd.Context(), scrapsFilter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(scraps) == 0 {
		fmt.Fprintln(out, ui.Info("No scraps stored."))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Hash", "Title", "Target", "Model", "Related", "Updated"})
	for _, sc := range scraps {
		related := ""
		if sc.Related > 0 {
			related = fmt.Sprint(sc.Related)
		}
		hash := sc.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		t.AppendRow(table.Row{sc.ID, hash, sc.Title, sc.Target, sc.Model, related, sc.UpdatedAt.Local().Format("2006-01-02 15:04")})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d scraps", len(scraps))})
	t.Render()
	return nil
}

func runScrapsExport(cmd *cobra.Command, _ []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	name := exportFormat
	if name == "" && exportOutput != "" {
		name = filepath.Ext(exportOutput)
	}
	if name == "" {
		name = string(output.FormatJSON)
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}

	scraps, err := a.Store.List(cmd.Context(), scrapsFilter)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput) //nolint:gosec // operator supplied path
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := output.Write(w, format, scraps); err != nil {
		return err
	}
	if exportOutput != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %d scraps written to %s\n", ui.Success("✔"), len(scraps), exportOutput)
	}
	return nil
}
