package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/scavenger/internal/app"
	"github.com/law-makers/scavenger/internal/config"
	"github.com/law-makers/scavenger/internal/scrapper"
	"github.com/law-makers/scavenger/internal/store"
	"github.com/law-makers/scavenger/internal/transform"
	"github.com/law-makers/scavenger/pkg/models"
)

const cliFile = `
models:
  rooms:
    columns: [title]
targets:
  rooms:
    model: rooms
    source: http://example.com/rooms
    markup:
      title: h3 a
      __item: li.room
  orphans:
    model: nowhere
    source: http://example.com/orphans
    markup:
      title: h3
      __item: li
  demo:
    example: true
`

func testApp(t *testing.T) *app.Application {
	t.Helper()
	file, err := config.ParseFile([]byte(cliFile))
	require.NoError(t, err)
	mem, err := store.NewMemory(file.Models)
	require.NoError(t, err)

	ctx := context.Background()
	for i, title := range []string{"Sunny Room", "Dark Room"} {
		require.NoError(t, mem.Save(ctx, &models.Scrap{
			Hash:   strings.Repeat(string(rune('a'+i)), 16),
			Title:  title,
			Model:  "rooms",
			Target: "rooms",
			Source: "http://example.com/rooms",
			Data:   map[string]string{"title": title},
		}))
	}

	return &app.Application{
		Config:     config.Default(),
		File:       file,
		Store:      mem,
		Transforms: transform.NewRegistry(),
	}
}

func testCmd(t *testing.T, a *app.Application) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	SetApp(cmd, a)
	return cmd, &out
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"yes\n", true},
		{"Y\n", true},
		{"  yes  \n", true},
		{"no\n", false},
		{"\n", false},
		{"", false},
		{"sure\n", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := confirm(strings.NewReader(tt.answer), &out, "Ready?")
		assert.Equal(t, tt.want, got, "answer %q", tt.answer)
		assert.Contains(t, out.String(), "Ready?")
	}
}

func TestRenderSummary(t *testing.T) {
	var out bytes.Buffer
	renderSummary(&out, models.Summary{Elapsed: 1500 * time.Millisecond, Total: 7, New: 3},
		models.OptionSet{Save: true})

	s := out.String()
	for _, want := range []string{"Time", "Scraps Found", "New", "Saved?", "Converted?", "1.5s", "7", "3", "true", "false"} {
		assert.Contains(t, s, want)
	}
}

func TestRenderTargets(t *testing.T) {
	var out bytes.Buffer
	renderTargets(&out, nil)
	assert.Empty(t, out.String())

	renderTargets(&out, []models.TargetSummary{{Name: "rooms", Pages: 2, Items: 9, Scraps: 8}})
	assert.Contains(t, out.String(), "rooms")
	assert.Contains(t, out.String(), "Scraps")
}

func TestRenderSkipped(t *testing.T) {
	var out bytes.Buffer
	renderSkipped(&out, []string{"Missing source for target (a). - Skipped", "first\nsecond"})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Missing source for target (a). - Skipped")
	assert.Contains(t, lines[1], "first")
	assert.Equal(t, "  second", lines[2])
}

func TestStageLabel(t *testing.T) {
	assert.Equal(t, "Saving scraps", stageLabel(scrapper.StageSave))
	assert.Equal(t, "Converting scraps", stageLabel(scrapper.StageConvert))
	assert.Equal(t, "other", stageLabel("other"))
}

func TestRunTargetsReportsInvalid(t *testing.T) {
	cmd, out := testCmd(t, testApp(t))

	err := runTargets(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 targets are invalid")

	s := out.String()
	assert.Contains(t, s, "rooms")
	assert.Contains(t, s, "orphans")
	assert.Contains(t, s, "example")
}

func TestRunScrapsList(t *testing.T) {
	cmd, out := testCmd(t, testApp(t))
	scrapsFilter = store.Filter{}

	require.NoError(t, runScrapsList(cmd, nil))
	assert.Contains(t, out.String(), "Sunny Room")
	assert.Contains(t, out.String(), "2 scraps")
}

func TestRunScrapsExport(t *testing.T) {
	t.Cleanup(func() {
		exportFormat, exportOutput = "", ""
		scrapsFilter = store.Filter{}
	})

	t.Run("json to stdout", func(t *testing.T) {
		cmd, out := testCmd(t, testApp(t))
		exportFormat, exportOutput = "", ""
		scrapsFilter = store.Filter{Limit: 1}

		require.NoError(t, runScrapsExport(cmd, nil))
		var got []models.Scrap
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Sunny Room", got[0].Title)
	})

	t.Run("format follows the file extension", func(t *testing.T) {
		cmd, _ := testCmd(t, testApp(t))
		exportFormat = ""
		exportOutput = filepath.Join(t.TempDir(), "rooms.csv")
		scrapsFilter = store.Filter{}

		require.NoError(t, runScrapsExport(cmd, nil))
		data, err := os.ReadFile(exportOutput)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "id,hash,title"))
	})

	t.Run("unknown format", func(t *testing.T) {
		cmd, _ := testCmd(t, testApp(t))
		exportFormat, exportOutput = "xml", ""
		assert.Error(t, runScrapsExport(cmd, nil))
	})
}

func TestCommandsNeedApp(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	assert.Error(t, runTargets(cmd, nil))
	assert.Error(t, runScrapsList(cmd, nil))
	assert.Error(t, runSeek(cmd, nil))
}
