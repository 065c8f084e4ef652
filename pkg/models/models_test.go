package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResultFunctionalUpdates(t *testing.T) {
	base := NewResult().WithSuccess(true)
	assert.True(t, base.Success())

	failed := base.WithError("first")
	assert.True(t, base.Success(), "original is untouched")
	assert.False(t, failed.Success())
	assert.Equal(t, []string{"first"}, failed.Errors())

	twice := failed.WithError("second")
	assert.Equal(t, []string{"first"}, failed.Errors())
	assert.Equal(t, []string{"first", "second"}, twice.Errors())

	errs := twice.Errors()
	errs[0] = "mutated"
	assert.Equal(t, "first", twice.Errors()[0])
}

func TestResultExtraIsCopied(t *testing.T) {
	s := Summary{Total: 3, New: 1, Targets: []TargetSummary{{Name: "jobs", Scraps: 3}}}
	r := NewResult().WithExtra(s)
	s.Targets[0].Name = "changed"

	extra, ok := r.Extra()
	assert.True(t, ok)
	assert.Equal(t, "jobs", extra.Targets[0].Name)

	_, ok = NewResult().Extra()
	assert.False(t, ok)
}

func TestKeywordList(t *testing.T) {
	o := OptionSet{Keywords: " php, ,golang ,"}
	assert.Equal(t, []string{"php", "golang"}, o.KeywordList())
	assert.Nil(t, OptionSet{}.KeywordList())
}

func TestDefaultOptionSet(t *testing.T) {
	o := DefaultOptionSet()
	assert.True(t, o.Save)
	assert.True(t, o.Convert)
	assert.Equal(t, 3*time.Second, o.Backoff)
	assert.Zero(t, o.Pages)
}

func TestParseRenderMode(t *testing.T) {
	for in, want := range map[string]RenderMode{"": RenderStatic, "SPA": RenderDynamic, " auto ": RenderAuto} {
		got, ok := ParseRenderMode(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseRenderMode("headless")
	assert.False(t, ok)
}
