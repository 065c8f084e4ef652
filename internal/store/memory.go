package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/law-makers/scavenger/internal/config"
	"github.com/law-makers/scavenger/pkg/models"
)

// Memory keeps everything in process. It backs tests and dry runs.
type Memory struct {
	mu     sync.RWMutex
	scraps map[string]*models.Scrap
	nextID int64
	tables map[string]*modelTable
	rows   map[string]map[int64]map[string]string
	rowIDs map[string]int64
	now    func() time.Time
}

// NewMemory returns an empty store that knows the given models.
func NewMemory(defs map[string]config.ModelDef) (*Memory, error) {
	tables, err := buildTables(defs)
	if err != nil {
		return nil, err
	}
	rows := make(map[string]map[int64]map[string]string, len(tables))
	for name := range tables {
		rows[name] = make(map[int64]map[string]string)
	}
	return &Memory{
		scraps: make(map[string]*models.Scrap),
		tables: tables,
		rows:   rows,
		rowIDs: make(map[string]int64, len(tables)),
		now:    time.Now,
	}, nil
}

func copyScrap(s *models.Scrap) *models.Scrap {
	out := *s
	out.Data = make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		out.Data[k] = v
	}
	return &out
}

func (m *Memory) FindByHash(_ context.Context, hash string) (*models.Scrap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scraps[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return copyScrap(s), nil
}

func (m *Memory) Save(_ context.Context, s *models.Scrap) error {
	if s.Hash == "" {
		return fmt.Errorf("scrap has no hash")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	if existing, ok := m.scraps[s.Hash]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
		if s.Related == 0 {
			s.Related = existing.Related
		}
	} else {
		m.nextID++
		s.ID = m.nextID
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.scraps[s.Hash] = copyScrap(s)
	return nil
}

func (m *Memory) List(_ context.Context, f Filter) ([]models.Scrap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Scrap, 0, len(m.scraps))
	for _, s := range m.scraps {
		if f.match(s) {
			out = append(out, *copyScrap(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) HasModel(name string) bool {
	_, ok := m.tables[name]
	return ok
}

func (m *Memory) Columns(name string) []string {
	t, ok := m.tables[name]
	if !ok {
		return nil
	}
	return append([]string(nil), t.columns...)
}

func (m *Memory) Exists(_ context.Context, model string, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, ok := m.rows[model]
	if !ok {
		return false, fmt.Errorf("unknown model %q", model)
	}
	_, ok = rows[id]
	return ok, nil
}

func (m *Memory) Create(_ context.Context, model string, attrs map[string]string) (int64, error) {
	t, ok := m.tables[model]
	if !ok {
		return 0, fmt.Errorf("unknown model %q", model)
	}
	cols, vals := t.pick(attrs)
	row := make(map[string]string, len(cols))
	for i, c := range cols {
		row[c] = vals[i].(string)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rowIDs[model]++
	id := m.rowIDs[model]
	m.rows[model][id] = row
	return id, nil
}

// Row returns a copy of a model row.
func (m *Memory) Row(model string, id int64) (map[string]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[model][id]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, true
}

// Delete removes a model row.
func (m *Memory) Delete(model string, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows[model], id)
}

func (m *Memory) Close() error { return nil }
