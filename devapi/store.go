package devapi

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
)

// Object is one stored JSON document.
type Object = map[string]any

type collection struct {
	order []string
	items map[string]Object
}

// Store is an in-memory, insertion-ordered document store keyed by
// collection name, plus the profile document.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	profile     Object
}

// NewStore creates an empty collection for every name.
func NewStore(names ...string) *Store {
	s := &Store{collections: make(map[string]*collection, len(names)), profile: Object{}}
	for _, name := range names {
		s.collections[name] = &collection{items: make(map[string]Object)}
	}
	return s
}

// Has reports whether name is a known collection.
func (s *Store) Has(name string) bool {
	_, ok := s.collections[name]
	return ok
}

func (s *Store) List(name string) ([]Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	out := make([]Object, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, clone(c.items[id]))
	}
	return out, nil
}

func (s *Store) Get(name, id string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	obj, ok := c.items[id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", name, id, apperrors.ErrNotFound)
	}
	return clone(obj), nil
}

// Create stores obj under a new id and returns the stored copy.
func (s *Store) Create(name string, obj Object) (Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	stored := clone(obj)
	stored["id"] = id
	c.items[id] = stored
	c.order = append(c.order, id)
	return clone(stored), nil
}

// Update replaces the document, or merges top-level fields when partial.
func (s *Store) Update(name, id string, obj Object, partial bool) (Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	current, ok := c.items[id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", name, id, apperrors.ErrNotFound)
	}
	next := clone(obj)
	if partial {
		next = clone(current)
		for k, v := range obj {
			next[k] = v
		}
	}
	next["id"] = id
	c.items[id] = next
	return clone(next), nil
}

func (s *Store) Delete(name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.collection(name)
	if err != nil {
		return err
	}
	if _, ok := c.items[id]; !ok {
		return fmt.Errorf("%s/%s: %w", name, id, apperrors.ErrNotFound)
	}
	delete(c.items, id)
	c.order = slices.DeleteFunc(c.order, func(v string) bool { return v == id })
	return nil
}

func (s *Store) Profile() Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.profile)
}

func (s *Store) SetProfile(obj Object) Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = clone(obj)
	return clone(s.profile)
}

// collection must be called with the lock held.
func (s *Store) collection(name string) (*collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, apperrors.ErrNotFound)
	}
	return c, nil
}

// clone deep-copies through JSON so callers never share nested maps.
func clone(obj Object) Object {
	if obj == nil {
		return Object{}
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return Object{}
	}
	out := Object{}
	_ = json.Unmarshal(raw, &out)
	return out
}

// toObject converts any JSON-encodable value into an Object.
func toObject(v any) (Object, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := Object{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
