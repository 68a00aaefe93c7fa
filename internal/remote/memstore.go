package remote

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// MemStore is an in-memory Store for tests and local development without a
// running document store. Documents round-trip through bson so field names
// and tag handling match the real MongoStore.
type MemStore struct {
	mu          sync.Mutex
	nextID      int
	collections map[string]map[string]bson.M
	failErr     error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string]map[string]bson.M)}
}

// FailWith makes every subsequent call return err; pass nil to recover.
func (m *MemStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

func (m *MemStore) GenerateID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return fmt.Sprintf("mem-%06d", m.nextID)
}

func (m *MemStore) Set(_ context.Context, collection, id string, doc interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	encoded, err := toBsonM(doc)
	if err != nil {
		return err
	}
	m.coll(collection)[id] = encoded
	return nil
}

func (m *MemStore) Get(_ context.Context, collection, id string, out interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	doc, ok := m.coll(collection)[id]
	if !ok {
		return ErrNotFound
	}
	return fromBsonM(doc, out)
}

func (m *MemStore) Update(_ context.Context, collection, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	doc, ok := m.coll(collection)[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (m *MemStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	delete(m.coll(collection), id)
	return nil
}

func (m *MemStore) Find(_ context.Context, collection string, q Query, out interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}

	var matched []bson.M
	for _, doc := range m.coll(collection) {
		if !matches(doc, q) {
			continue
		}
		matched = append(matched, doc)
	}
	if q.OrderBy != "" {
		sort.Slice(matched, func(i, j int) bool {
			less := compareValues(matched[i][q.OrderBy], matched[j][q.OrderBy]) < 0
			if q.Desc {
				return !less
			}
			return less
		})
	}

	slice := reflect.ValueOf(out).Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(matched))
	elemType := slice.Type().Elem()
	for _, doc := range matched {
		var target reflect.Value
		if elemType.Kind() == reflect.Ptr {
			target = reflect.New(elemType.Elem())
		} else {
			target = reflect.New(elemType)
		}
		if err := fromBsonM(doc, target.Interface()); err != nil {
			return err
		}
		if elemType.Kind() == reflect.Ptr {
			result = reflect.Append(result, target)
		} else {
			result = reflect.Append(result, target.Elem())
		}
	}
	slice.Set(result)
	return nil
}

func (m *MemStore) AtomicIncrement(_ context.Context, collection, id, field string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	doc, ok := m.coll(collection)[id]
	if !ok {
		return ErrNotFound
	}
	current, _ := asInt64(doc[field])
	doc[field] = current + delta
	return nil
}

func (m *MemStore) AtomicSetAdd(_ context.Context, collection, id, field string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	doc, ok := m.coll(collection)[id]
	if !ok {
		return ErrNotFound
	}
	arr, _ := doc[field].(bson.A)
	for _, v := range arr {
		if v == value {
			return nil
		}
	}
	doc[field] = append(arr, value)
	return nil
}

func (m *MemStore) AtomicSetRemove(_ context.Context, collection, id, field string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	doc, ok := m.coll(collection)[id]
	if !ok {
		return ErrNotFound
	}
	arr, _ := doc[field].(bson.A)
	kept := make(bson.A, 0, len(arr))
	for _, v := range arr {
		if v != value {
			kept = append(kept, v)
		}
	}
	doc[field] = kept
	return nil
}

func (m *MemStore) coll(name string) map[string]bson.M {
	c, ok := m.collections[name]
	if !ok {
		c = make(map[string]bson.M)
		m.collections[name] = c
	}
	return c
}

func matches(doc bson.M, q Query) bool {
	for k, want := range q.Eq {
		if compareValues(doc[k], want) != 0 {
			return false
		}
	}
	for k, bound := range q.Gt {
		if compareValues(doc[k], bound) <= 0 {
			return false
		}
	}
	return true
}

// compareValues orders two bson scalars, treating all numeric widths as
// int64 so encoded and literal values compare equal.
func compareValues(a, b interface{}) int {
	an, aok := asInt64(a)
	bn, bok := asInt64(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	as := fmt.Sprintf("%v", a)
	bs := fmt.Sprintf("%v", b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func toBsonM(doc interface{}) (bson.M, error) {
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out bson.M
	if err := bson.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromBsonM(doc bson.M, out interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, out)
}
