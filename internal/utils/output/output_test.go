package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/scavenger/pkg/models"
)

func sampleScraps() []models.Scrap {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []models.Scrap{
		{ID: 1, Hash: "aaaaaaaaaaaaaaaaaaaa", Title: "Go Developer", Model: "job", Target: "jobs", Source: "http://example.com/1",
			Data: map[string]string{"title": "Go Developer", "company": "Acme"}, CreatedAt: at},
		{ID: 2, Hash: "bbbb", Model: "job", Target: "jobs", Source: "http://example.com/2", Related: 9,
			Data: map[string]string{"title": "Rust, Senior", "salary": "100k"}, CreatedAt: at},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleScraps()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	wantHeader := []string{"id", "hash", "title", "model", "target", "source", "related", "created_at", "company", "salary", "title"}
	if diff := cmp.Diff(wantHeader, rows[0]); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Acme", rows[1][8])
	assert.Equal(t, "", rows[1][9])
	assert.Equal(t, "9", rows[2][6])
	assert.Equal(t, "Rust, Senior", rows[2][10])
	assert.Equal(t, "2024-05-01T12:00:00Z", rows[1][7])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleScraps()))

	var back []models.Scrap
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	require.Len(t, back, 2)
	assert.Equal(t, "Acme", back[0].Data["company"])

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatMarkdown, sampleScraps()))
	out := buf.String()

	assert.Contains(t, out, "## Go Developer")
	assert.Contains(t, out, "## bbbb")
	assert.Contains(t, out, "- **company**: Acme")
	assert.Contains(t, out, "`aaaaaaaaaaaaaaaa`")
	assert.Equal(t, 1, strings.Count(out, "---"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(".MD")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestMarkdownResolvesLinks(t *testing.T) {
	got, err := Markdown(`<p>Apply <a href="/apply?id=3" onclick="x()">here</a></p><script>alert(1)</script>`, "http://example.com/jobs/3")
	require.NoError(t, err)
	assert.Equal(t, "Apply [here](http://example.com/apply?id=3)", got)
}

func TestCleanHTML(t *testing.T) {
	got, err := CleanHTML(`<div class="x" style="y"><img src="a.png" onerror="z" alt="A"><style>p{}</style><b>bold</b></div>`)
	require.NoError(t, err)
	assert.Equal(t, `<div><img src="a.png" alt="A"/><b>bold</b></div>`, got)
}
