// Package memory is an in-process implementation of repository.Store.  It
// backs the demo server and the handler tests; every table shares one lock
// so reference checks across tables see a consistent view.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/admin-console/internal/repository"
)

// Table is an ordered collection of T keyed by the string returned from id.
type Table[T any] struct {
	mu     *sync.RWMutex
	rows   []T
	id     func(*T) *string
	stamps func(*T) (created, updated *time.Time)
	// inUse reports a dependent row that blocks deleting id.  It runs with
	// the lock held.
	inUse func(id string) bool
	// unique reports a clash with another row's unique column.  It runs
	// with the lock held.
	unique func(v *T) bool
	// cascade runs after id is deleted, with the lock held.
	cascade func(id string)
}

func newTable[T any](mu *sync.RWMutex, id func(*T) *string, stamps func(*T) (*time.Time, *time.Time)) *Table[T] {
	return &Table[T]{mu: mu, id: id, stamps: stamps}
}

func (t *Table[T]) index(id string) int {
	for i := range t.rows {
		if *t.id(&t.rows[i]) == id {
			return i
		}
	}
	return -1
}

// List returns a copy of every row in insertion order.
func (t *Table[T]) List(ctx context.Context) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, len(t.rows))
	copy(out, t.rows)
	return out, nil
}

func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i := t.index(id); i >= 0 {
		return t.rows[i], nil
	}
	var zero T
	return zero, repository.ErrNotFound
}

func (t *Table[T]) Create(ctx context.Context, v *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insert(v)
}

func (t *Table[T]) insert(v *T) error {
	id := t.id(v)
	if *id == "" {
		*id = uuid.NewString()
	}
	if t.index(*id) >= 0 {
		return repository.ErrConflict
	}
	if t.unique != nil && t.unique(v) {
		return repository.ErrConflict
	}
	if t.stamps != nil {
		c, u := t.stamps(v)
		now := time.Now().UTC()
		*c, *u = now, now
	}
	t.rows = append(t.rows, *v)
	return nil
}

// Update replaces the stored row, keeping its creation time.
func (t *Table[T]) Update(ctx context.Context, v *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.update(v)
}

func (t *Table[T]) update(v *T) error {
	i := t.index(*t.id(v))
	if i < 0 {
		return repository.ErrNotFound
	}
	if t.unique != nil && t.unique(v) {
		return repository.ErrConflict
	}
	if t.stamps != nil {
		oc, _ := t.stamps(&t.rows[i])
		c, u := t.stamps(v)
		*c = *oc
		*u = time.Now().UTC()
	}
	t.rows[i] = *v
	return nil
}

func (t *Table[T]) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.index(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	if t.inUse != nil && t.inUse(id) {
		return repository.ErrConflict
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	if t.cascade != nil {
		t.cascade(id)
	}
	return nil
}

// exists reports whether some row satisfies pred.  Callers hold the lock.
func (t *Table[T]) exists(pred func(*T) bool) bool {
	for i := range t.rows {
		if pred(&t.rows[i]) {
			return true
		}
	}
	return false
}
