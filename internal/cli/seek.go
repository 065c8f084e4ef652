package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/scavenger/internal/scrapper"
	"github.com/law-makers/scavenger/internal/ui"
	"github.com/law-makers/scavenger/pkg/models"
)

const confirmQuestion = "Scavenger will scour the configured sources for scraps and make model records,\n" +
	"performing HTTP, database and file operations. Ensure your connection is stable. Ready?"

var seekFlags struct {
	keywords string
	keep     bool
	convert  bool
	yes      bool
	backoff  int
	pages    int
}

var seekCmd = &cobra.Command{
	Use:   "seek [target]",
	Short: "Crawl targets and collect scraps",
	Long: `Crawls one target, or every target in the scavenger file, and prints a
summary of the scraps found.

Scraps are kept in the database with --keep and turned into model rows with
--convert. Without either flag the run only reports what it found.`,
	Example: `  # Crawl every target, two pages each, and keep what is found
  scavenger seek -k -y

  # Crawl one target with extra search keywords and convert the results
  scavenger seek listings -w "condo,villa" -k -c

  # Walk every page, waiting five seconds between pages
  scavenger seek listings -p 0 -b 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSeek,
}

func init() {
	rootCmd.AddCommand(seekCmd)

	f := seekCmd.Flags()
	f.StringVarP(&seekFlags.keywords, "keywords", "w", "", "Comma separated search keywords")
	f.BoolVarP(&seekFlags.keep, "keep", "k", false, "Save found scraps")
	f.BoolVarP(&seekFlags.convert, "convert", "c", false, "Convert found scraps to model rows")
	f.BoolVarP(&seekFlags.yes, "yes", "y", false, "Skip confirmation")
	f.IntVarP(&seekFlags.backoff, "backoff", "b", 0, "Seconds to wait after each page")
	f.IntVarP(&seekFlags.pages, "pages", "p", 2, "Max. number of pages per pass (0 for no limit)")
}

func runSeek(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}
	if seekFlags.pages < 0 || seekFlags.backoff < 0 {
		return fmt.Errorf("pages and backoff must not be negative")
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	}
	opts := models.OptionSet{
		Save:     seekFlags.keep,
		Convert:  seekFlags.convert,
		Backoff:  time.Duration(seekFlags.backoff) * time.Second,
		Pages:    seekFlags.pages,
		Keywords: seekFlags.keywords,
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s Scavenger Seek v%s\n", ui.Success("♣♣♣"), cmd.Root().Version)
	if !seekFlags.yes && !confirm(cmd.InOrStdin(), out, confirmQuestion) {
		fmt.Fprintln(out, ui.Info("Nothing to do."))
		return nil
	}
	fmt.Fprintf(out, "%s\nT: %s\n----------\n", ui.Info("Scavenger is seeking. Output is shown below."),
		time.Now().Format(time.RFC1123))

	bars := &progress{out: cmd.ErrOrStderr()}
	s, err := a.Seeker(bars.update)
	if err != nil {
		return err
	}
	result := s.Seek(cmd.Context(), opts, name)
	bars.finish()

	for _, msg := range result.Errors() {
		fmt.Fprintf(out, "%s %s\n", ui.Error("✘"), msg)
	}
	summary, ok := result.Extra()
	if !ok {
		return nil
	}
	renderSkipped(out, summary.Skipped)
	if result.Success() {
		fmt.Fprintf(out, "----------\n%s Done. Scavenger now goes to sleep...\n\n", ui.Success("✔"))
	}
	renderSummary(out, summary, opts)
	if a.Config.Verbosity >= scrapper.VerbosityMedium {
		renderTargets(out, summary.Targets)
	}
	return nil
}

// confirm asks question on out and reads a yes/no answer from in.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s %s ", question, ui.Bold("(yes/no) [no]:"))
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// renderSkipped prints the problems of targets that were not crawled,
// indenting continuation lines.
func renderSkipped(w io.Writer, skipped []string) {
	for _, msg := range skipped {
		fmt.Fprintf(w, "%s %s\n", ui.Warning("!"), strings.ReplaceAll(msg, "\n", "\n  "))
	}
}

func renderSummary(w io.Writer, s models.Summary, opts models.OptionSet) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "Scraps Found", "New", "Saved?", "Converted?"})
	t.AppendRow(table.Row{s.Elapsed.Round(time.Millisecond), s.Total, s.New, opts.Save, opts.Convert})
	t.Render()
}

func renderTargets(w io.Writer, targets []models.TargetSummary) {
	if len(targets) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Target", "Pages", "Items", "Scraps"})
	for _, ts := range targets {
		t.AppendRow(table.Row{ts.Name, ts.Pages, ts.Items, ts.Scraps})
	}
	t.Render()
}

// progress shows one bar per save/convert stage.
type progress struct {
	out   io.Writer
	stage string
	bar   *progressbar.ProgressBar
}

func (p *progress) update(stage string, done, total int) {
	if p.bar == nil || p.stage != stage {
		p.finish()
		p.stage = stage
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(stageLabel(stage)),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(done)
}

func (p *progress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

func stageLabel(stage string) string {
	switch stage {
	case scrapper.StageSave:
		return "Saving scraps"
	case scrapper.StageConvert:
		return "Converting scraps"
	}
	return stage
}
