package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/law-makers/scavenger/internal/target"
	"github.com/law-makers/scavenger/internal/ui"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List configured targets and check their definitions",
	Example: `  # Validate every target in ./scavenger.yaml
  scavenger targets

  # Use another scavenger file
  scavenger targets --config sites.yaml`,
	Args: cobra.NoArgs,
	RunE: runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, _ []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	out := cmd.OutOrStdout()
	names := a.File.TargetNames()
	if len(names) == 0 {
		fmt.Fprintln(out, ui.Info("No targets configured."))
		return nil
	}

	builder := target.NewBuilder(nil, a.Store, a.Transforms)
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Target", "Model", "Source", "Render", "Status"})

	invalid := 0
	for _, name := range names {
		def, _ := a.File.Target(name)
		tg, err := builder.CreateFromDefinition(name, def)
		switch {
		case errors.Is(err, target.ErrExample):
			t.AppendRow(table.Row{name, "", "", "", ui.Info("example")})
		case err != nil:
			invalid++
			var ide *target.InvalidDefinitionError
			msg := err.Error()
			if errors.As(err, &ide) {
				msg = strings.Join(ide.Problems, "\n")
			}
			t.AppendRow(table.Row{name, def.String(target.KeyModel), def.String(target.KeySource), "", ui.Error(msg)})
		default:
			render := string(tg.Render())
			if render == "" {
				render = string(a.Config.Render) + " (default)"
			}
			t.AppendRow(table.Row{name, tg.Model(), tg.Source(), render, ui.Success("ok")})
		}
	}
	t.Render()

	if invalid > 0 {
		return fmt.Errorf("%d of %d targets are invalid", invalid, len(names))
	}
	return nil
}
