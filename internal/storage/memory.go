package storage

import (
	"context"
	"encoding/json"
	"sync"

	"atsnet/pkg/domain"
	"atsnet/pkg/platform/sentinel"
)

// Memory keeps documents as encoded JSON guarded by one lock. It favors
// clarity over performance and is the default backend for tests and local
// runs.
type Memory struct {
	mu   sync.RWMutex
	data map[domain.Collection]map[string]memoryRecord
}

type memoryRecord struct {
	doc     []byte
	version int64
}

func NewMemory() *Memory {
	return &Memory{data: make(map[domain.Collection]map[string]memoryRecord)}
}

func (m *Memory) Insert(_ context.Context, collection domain.Collection, id string, doc any) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	records, ok := m.data[collection]
	if !ok {
		records = make(map[string]memoryRecord)
		m.data[collection] = records
	}
	if _, exists := records[id]; exists {
		return sentinel.ErrConflict
	}
	records[id] = memoryRecord{doc: encoded, version: 1}
	return nil
}

func (m *Memory) Get(_ context.Context, collection domain.Collection, id string, out any) (int64, error) {
	m.mu.RLock()
	record, ok := m.data[collection][id]
	m.mu.RUnlock()
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if err := json.Unmarshal(record.doc, out); err != nil {
		return 0, err
	}
	return record.version, nil
}

func (m *Memory) Replace(_ context.Context, collection domain.Collection, id string, doc any, expectedVersion int64) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.data[collection][id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if record.version != expectedVersion {
		return sentinel.ErrVersionMismatch
	}
	m.data[collection][id] = memoryRecord{doc: encoded, version: record.version + 1}
	return nil
}

func (m *Memory) FindByField(_ context.Context, collection domain.Collection, field string, value string, out any) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, record := range m.data[collection] {
		var doc map[string]any
		if err := json.Unmarshal(record.doc, &doc); err != nil {
			continue
		}
		if s, ok := doc[field].(string); ok && s == value {
			if err := json.Unmarshal(record.doc, out); err != nil {
				return 0, err
			}
			return record.version, nil
		}
	}
	return 0, sentinel.ErrNotFound
}

func (m *Memory) Delete(_ context.Context, collection domain.Collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[collection][id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.data[collection], id)
	return nil
}

func (m *Memory) FindByID(_ context.Context, collection domain.Collection, id string) (map[string]any, error) {
	m.mu.RLock()
	record, ok := m.data[collection][id]
	m.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	var doc map[string]any
	if err := json.Unmarshal(record.doc, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
