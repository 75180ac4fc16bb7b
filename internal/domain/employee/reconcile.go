package employee

import (
	"context"

	"ems/internal/domain/apperror"
)

// Child is implemented by each owned record kind the reconciler manages.
type Child[T any] interface {
	ChildID() int64
	ChildVersion() *int64
	// WithKey returns a copy carrying the given id and expected version.
	WithKey(id, version int64) T
}

// ChildStore persists one child kind for an employee. Update must compare
// the expected version and bump it, failing with a ConcurrencyConflict kind
// when no row matches.
type ChildStore[T any] interface {
	List(ctx context.Context, employeeID int64) ([]T, error)
	Insert(ctx context.Context, employeeID int64, item T) (T, error)
	Update(ctx context.Context, employeeID int64, item T) (T, error)
	Delete(ctx context.Context, employeeID int64, ids []int64) error
}

type Diff[T any] struct {
	Inserts []T
	Updates []T
	Deletes []int64
}

func (d Diff[T]) Empty() bool {
	return len(d.Inserts) == 0 && len(d.Updates) == 0 && len(d.Deletes) == 0
}

// Plan computes the writes that turn current into incoming. Incoming items
// whose id matches a current record become updates (keeping the incoming
// version, or the current one when none is sent). Everything else is
// inserted with a fresh id and version 0. Current records not referenced by
// id are deleted.
func Plan[T Child[T]](current, incoming []T) (Diff[T], error) {
	byID := make(map[int64]T, len(current))
	for _, item := range current {
		byID[item.ChildID()] = item
	}

	var diff Diff[T]
	seen := make(map[int64]bool, len(incoming))
	for _, item := range incoming {
		id := item.ChildID()
		existing, ok := byID[id]
		if id == 0 || !ok {
			diff.Inserts = append(diff.Inserts, item.WithKey(0, 0))
			continue
		}
		if seen[id] {
			return Diff[T]{}, apperror.InvalidArgument("duplicate id %d in incoming collection", id)
		}
		seen[id] = true

		version := int64(0)
		if v := existing.ChildVersion(); v != nil {
			version = *v
		}
		if v := item.ChildVersion(); v != nil {
			version = *v
		}
		diff.Updates = append(diff.Updates, item.WithKey(id, version))
	}

	for _, item := range current {
		if id := item.ChildID(); id != 0 && !seen[id] {
			diff.Deletes = append(diff.Deletes, id)
		}
	}
	return diff, nil
}

// Reconcile replaces the employee's persisted collection with incoming and
// returns the resulting records. It must run inside the caller's
// transaction so a version conflict rolls back every kind together.
func Reconcile[T Child[T]](ctx context.Context, store ChildStore[T], employeeID int64, incoming []T) ([]T, error) {
	current, err := store.List(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	diff, err := Plan(current, incoming)
	if err != nil {
		return nil, err
	}

	if len(diff.Deletes) > 0 {
		if err := store.Delete(ctx, employeeID, diff.Deletes); err != nil {
			return nil, err
		}
	}
	out := make([]T, 0, len(diff.Updates)+len(diff.Inserts))
	for _, item := range diff.Updates {
		updated, err := store.Update(ctx, employeeID, item)
		if err != nil {
			return nil, err
		}
		out = append(out, updated)
	}
	for _, item := range diff.Inserts {
		inserted, err := store.Insert(ctx, employeeID, item)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

// InsertAll stores items as new records, ignoring any ids they carry.
func InsertAll[T Child[T]](ctx context.Context, store ChildStore[T], employeeID int64, items []T) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		inserted, err := store.Insert(ctx, employeeID, item.WithKey(0, 0))
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func versionPtr(v int64) *int64 {
	return &v
}

func (e Education) ChildID() int64       { return e.ID }
func (e Education) ChildVersion() *int64 { return e.Version }
func (e Education) WithKey(id, version int64) Education {
	e.ID, e.Version = id, versionPtr(version)
	return e
}

func (c Certification) ChildID() int64       { return c.ID }
func (c Certification) ChildVersion() *int64 { return c.Version }
func (c Certification) WithKey(id, version int64) Certification {
	c.ID, c.Version = id, versionPtr(version)
	return c
}

func (s Skill) ChildID() int64       { return s.ID }
func (s Skill) ChildVersion() *int64 { return s.Version }
func (s Skill) WithKey(id, version int64) Skill {
	s.ID, s.Version = id, versionPtr(version)
	return s
}

func (x Experience) ChildID() int64       { return x.ID }
func (x Experience) ChildVersion() *int64 { return x.Version }
func (x Experience) WithKey(id, version int64) Experience {
	x.ID, x.Version = id, versionPtr(version)
	return x
}
