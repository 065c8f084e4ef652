// Package store is the persistence boundary: scraps keyed by content hash
// and the destination model tables scraps are converted into.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/law-makers/scavenger/internal/config"
	"github.com/law-makers/scavenger/pkg/models"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Target string
	Model  string
	Limit  int
}

func (f Filter) match(s *models.Scrap) bool {
	if f.Target != "" && s.Target != f.Target {
		return false
	}
	if f.Model != "" && s.Model != f.Model {
		return false
	}
	return true
}

// Scraps persists scraps with upsert-by-hash semantics.
type Scraps interface {
	// FindByHash returns ErrNotFound when no scrap carries hash.
	FindByHash(ctx context.Context, hash string) (*models.Scrap, error)

	// Save inserts s or updates the scrap with the same hash, then sets
	// s.ID and the timestamps.
	Save(ctx context.Context, s *models.Scrap) error

	List(ctx context.Context, f Filter) ([]models.Scrap, error)
}

// Models holds destination model rows.
type Models interface {
	HasModel(name string) bool
	Columns(name string) []string
	Exists(ctx context.Context, model string, id int64) (bool, error)
	// Create inserts a row from attrs, ignoring attributes that are not
	// columns of model, and returns its id.
	Create(ctx context.Context, model string, attrs map[string]string) (int64, error)
}

// Store is everything the crawler persists to.
type Store interface {
	Scraps
	Models
	Close() error
}

type modelTable struct {
	table   string
	columns []string
	index   map[string]bool
}

func buildTables(defs map[string]config.ModelDef) (map[string]*modelTable, error) {
	out := make(map[string]*modelTable, len(defs))
	for name, def := range defs {
		t := &modelTable{table: def.TableName(name), index: make(map[string]bool)}
		if !identifier.MatchString(t.table) {
			return nil, fmt.Errorf("model %s: invalid table name %q", name, t.table)
		}
		if t.table == scrapsTable {
			return nil, fmt.Errorf("model %s: table name %q is reserved", name, t.table)
		}
		for _, c := range def.Columns {
			if !identifier.MatchString(c) {
				return nil, fmt.Errorf("model %s: invalid column name %q", name, c)
			}
			switch c {
			case "id", "created_at", "updated_at":
				continue
			}
			if !t.index[c] {
				t.index[c] = true
				t.columns = append(t.columns, c)
			}
		}
		out[name] = t
	}
	return out, nil
}

// pick returns the attrs that name columns, in column order.
func (t *modelTable) pick(attrs map[string]string) ([]string, []any) {
	var cols []string
	var vals []any
	for _, c := range t.columns {
		if v, ok := attrs[c]; ok {
			cols = append(cols, c)
			vals = append(vals, v)
		}
	}
	return cols, vals
}
