package store

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Memory is an in-process store with the same semantics as Store.
// Index queries are answered by filtering on the index attribute.
type Memory struct {
	mu      sync.RWMutex
	schemas map[string]TableSchema
	tables  map[string]map[string]Item
}

// NewMemory creates an empty in-memory store holding the given tables.
func NewMemory(schemas ...TableSchema) *Memory {
	m := &Memory{
		schemas: make(map[string]TableSchema, len(schemas)),
		tables:  make(map[string]map[string]Item, len(schemas)),
	}
	for _, schema := range schemas {
		m.schemas[schema.Name] = schema
		m.tables[schema.Name] = make(map[string]Item)
	}
	return m
}

// Get retrieves an item by key, returning ErrNotFound if it is missing.
func (m *Memory) Get(_ context.Context, table string, key Key) (Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, err := m.table(table)
	if err != nil {
		return nil, err
	}
	item, ok := rows[key.Value]
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(item), nil
}

// Put writes an item unconditionally.
func (m *Memory) Put(_ context.Context, table string, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, err := m.table(table)
	if err != nil {
		return err
	}
	id, err := m.keyOf(table, item)
	if err != nil {
		return err
	}
	rows[id] = maps.Clone(item)
	return nil
}

// Create inserts an item only if its key is free.
func (m *Memory) Create(_ context.Context, table string, key Key, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, err := m.table(table)
	if err != nil {
		return err
	}
	if _, ok := rows[key.Value]; ok {
		return ErrAlreadyExists
	}
	rows[key.Value] = maps.Clone(item)
	return nil
}

// Update sets string attributes on an existing item.
func (m *Memory) Update(_ context.Context, table string, key Key, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, err := m.table(table)
	if err != nil {
		return err
	}
	current, ok := rows[key.Value]
	if !ok {
		return ErrNotFound
	}

	updated := maps.Clone(current)
	set := 0
	for name, value := range fields {
		if name == key.Name {
			continue
		}
		updated[name] = &types.AttributeValueMemberS{Value: value}
		set++
	}
	if set == 0 {
		return fmt.Errorf("update %s: no attributes to set", table)
	}
	rows[key.Value] = updated
	return nil
}

// QueryByIndex returns items whose index attribute equals value, ordered by key.
func (m *Memory) QueryByIndex(_ context.Context, table string, index Index, value string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, err := m.table(table)
	if err != nil {
		return nil, err
	}

	items := []Item{}
	for _, id := range sortedKeys(rows) {
		if rows[id].GetString(index.Attribute) == value {
			items = append(items, maps.Clone(rows[id]))
		}
	}
	return items, nil
}

// Scan returns every item in the table, ordered by key.
func (m *Memory) Scan(_ context.Context, table string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, err := m.table(table)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(rows))
	for _, id := range sortedKeys(rows) {
		items = append(items, maps.Clone(rows[id]))
	}
	return items, nil
}

// Len returns the number of items in a table.
func (m *Memory) Len(table string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[table])
}

func (m *Memory) table(name string) (map[string]Item, error) {
	rows, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return rows, nil
}

func (m *Memory) keyOf(table string, item Item) (string, error) {
	attr := m.schemas[table].KeyAttr
	id := item.GetString(attr)
	if id == "" {
		return "", fmt.Errorf("put %s: missing key attribute %q", table, attr)
	}
	return id, nil
}

func sortedKeys(rows map[string]Item) []string {
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
