package fixture

import (
	"sort"
	"sync"
	"time"
)

// Entry records one persisted fixture.
type Entry struct {
	// Model is the registry key, the entity's table name.
	Model string
	// ID is the entity's primary key rendered as a string.
	ID string
	// Value is the entity pointer as persisted.
	Value interface{}
	// CreatedAt is when the fixture was registered.
	CreatedAt time.Time
}

// Registry remembers persisted fixtures two ways: the most recently created
// entity per model, and every created entity per model and primary key.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	latest  map[string]*Entry
	created map[string]map[string]*Entry
}

// NewRegistry creates an empty fixture registry.
func NewRegistry() *Registry {
	return &Registry{
		latest:  make(map[string]*Entry),
		created: make(map[string]map[string]*Entry),
	}
}

// Put records an entity under its model and id. The entity becomes the
// model's latest; an earlier entry with the same id is replaced.
func (r *Registry) Put(model, id string, value interface{}) {
	entry := &Entry{Model: model, ID: id, Value: value, CreatedAt: time.Now()}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest[model] = entry
	byID, ok := r.created[model]
	if !ok {
		byID = make(map[string]*Entry)
		r.created[model] = byID
	}
	byID[id] = entry
}

// Latest returns the most recently created entity for the model.
func (r *Registry) Latest(model string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.latest[model]
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

// Get returns the entity created for the model under the given id.
func (r *Registry) Get(model, id string) (interface{}, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byID, ok := r.created[model]
	if !ok {
		return nil, false
	}
	entry, ok := byID[id]
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

// All returns every entry created for the model, oldest first.
func (r *Registry) All(model string) []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byID, ok := r.created[model]
	if !ok {
		return nil
	}
	entries := make([]*Entry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries
}

// Forget drops one entry. When it was the model's latest, the latest slot
// falls back to the newest remaining entry for the model.
func (r *Registry) Forget(model, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.created[model]
	if !ok {
		return
	}
	delete(byID, id)
	if len(byID) == 0 {
		delete(r.created, model)
	}

	if cur, ok := r.latest[model]; ok && cur.ID == id {
		delete(r.latest, model)
		var newest *Entry
		for _, e := range byID {
			if newest == nil || e.CreatedAt.After(newest.CreatedAt) {
				newest = e
			}
		}
		if newest != nil {
			r.latest[model] = newest
		}
	}
}

// Len returns the total number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, byID := range r.created {
		n += len(byID)
	}
	return n
}

// Models returns the model names with registered entries, sorted.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.created))
	for name := range r.created {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear drops every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = make(map[string]*Entry)
	r.created = make(map[string]map[string]*Entry)
}

// snapshot copies the registry state for Snapshot/Restore.
func (r *Registry) snapshot() registrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := registrySnapshot{
		latest:  make(map[string]*Entry, len(r.latest)),
		created: make(map[string]map[string]*Entry, len(r.created)),
	}
	for k, v := range r.latest {
		snap.latest[k] = v
	}
	for model, byID := range r.created {
		cp := make(map[string]*Entry, len(byID))
		for id, e := range byID {
			cp[id] = e
		}
		snap.created[model] = cp
	}
	return snap
}

// restore replaces the registry state with a snapshot.
func (r *Registry) restore(snap registrySnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.latest = make(map[string]*Entry, len(snap.latest))
	for k, v := range snap.latest {
		r.latest[k] = v
	}
	r.created = make(map[string]map[string]*Entry, len(snap.created))
	for model, byID := range snap.created {
		cp := make(map[string]*Entry, len(byID))
		for id, e := range byID {
			cp[id] = e
		}
		r.created[model] = cp
	}
}

type registrySnapshot struct {
	latest  map[string]*Entry
	created map[string]map[string]*Entry
}
