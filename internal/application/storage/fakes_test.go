package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jhoicas/crs-vision/internal/domain"
	"github.com/jhoicas/crs-vision/internal/domain/entity"
	"github.com/jhoicas/crs-vision/internal/domain/repository"
)

// memStore RecordStore en memoria que registra cada operación.
type memStore struct {
	mu      sync.Mutex
	data    map[repository.Collection]map[string]json.RawMessage
	ops     []string
	initErr error
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{data: map[repository.Collection]map[string]json.RawMessage{}}
}

func (m *memStore) Initialize(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initErr != nil {
		return m.initErr
	}
	for _, c := range repository.Collections {
		if m.data[c] == nil {
			m.data[c] = map[string]json.RawMessage{}
		}
	}
	return nil
}

func (m *memStore) GetAll(_ context.Context, c repository.Collection) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]json.RawMessage, 0, len(m.data[c]))
	for _, v := range m.data[c] {
		out = append(out, v)
	}
	return out, nil
}

func (m *memStore) Put(_ context.Context, c repository.Collection, id string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, fmt.Sprintf("put %s %s", c, id))
	if m.putErr != nil {
		return m.putErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.data[c] == nil {
		m.data[c] = map[string]json.RawMessage{}
	}
	m.data[c][id] = raw
	return nil
}

func (m *memStore) Delete(_ context.Context, c repository.Collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, fmt.Sprintf("delete %s %s", c, id))
	delete(m.data[c], id)
	return nil
}

func (m *memStore) Replace(_ context.Context, data map[repository.Collection][]repository.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "replace")
	for c, recs := range data {
		m.data[c] = map[string]json.RawMessage{}
		for _, r := range recs {
			raw, err := json.Marshal(r.Value)
			if err != nil {
				return err
			}
			m.data[c][r.ID] = raw
		}
	}
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) seed(c repository.Collection, id string, v any) {
	raw, _ := json.Marshal(v)
	if m.data[c] == nil {
		m.data[c] = map[string]json.RawMessage{}
	}
	m.data[c][id] = raw
}

func (m *memStore) count(c repository.Collection) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data[c])
}

func (m *memStore) has(c repository.Collection, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[c][id]
	return ok
}

func (m *memStore) operations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

// fakeMirror MirrorClient en memoria.
type fakeMirror struct {
	mu       sync.Mutex
	host     string
	snapshot entity.Dataset
	fetchErr error
	pushErr  error

	users   [][]entity.User
	orders  []entity.Order
	cliches []entity.ClicheItem
	deleted []string
	logs    []entity.ActivityLog
	calls   []string
}

func (f *fakeMirror) Enabled() bool { return f.host != "" }
func (f *fakeMirror) Host() string  { return f.host }

func (f *fakeMirror) FetchSnapshot(_ context.Context) (*entity.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.host == "" {
		return nil, domain.ErrMirrorDisabled
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	ds := f.snapshot
	return &ds, nil
}

func (f *fakeMirror) record(call string) error {
	f.calls = append(f.calls, call)
	return f.pushErr
}

func (f *fakeMirror) PushUsers(_ context.Context, users []entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, users)
	return f.record("users")
}

func (f *fakeMirror) PushOrder(_ context.Context, o entity.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, o)
	return f.record("order " + o.ID)
}

func (f *fakeMirror) PushCliche(_ context.Context, c entity.ClicheItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cliches = append(f.cliches, c)
	return f.record("cliche " + c.ID)
}

func (f *fakeMirror) DeleteOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.record("delete " + id)
}

func (f *fakeMirror) PushLog(_ context.Context, l entity.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	return f.record("log")
}

func (f *fakeMirror) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeMirror) lastUsers() []entity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.users) == 0 {
		return nil
	}
	return f.users[len(f.users)-1]
}

var errOffline = errors.New("connection refused")
