package presence

import (
	"sort"
	"sync"
	"time"
)

// Handle identifies one live connection. It is minted by the transport and is never reused
type Handle string

type Record struct {
	UserID      string    `json:"userId"`
	Handle      Handle    `json:"socketId"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Registry maps a user to the single connection that most recently announced itself for that user.
// Records are process-local and are lost on restart.
type Registry struct {
	mx      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func New() *Registry {
	return &Registry{
		records: map[string]Record{},
		now:     time.Now,
	}
}

// Register binds userID to handle, replacing any earlier binding for the same user.
// The replaced handle is not closed, it simply stops being reachable by lookup.
func (r *Registry) Register(userID string, handle Handle) {
	if userID == "" || handle == "" {
		return
	}

	r.mx.Lock()
	defer r.mx.Unlock()

	if cur, ok := r.records[userID]; ok && cur.Handle == handle {
		return
	}

	r.records[userID] = Record{
		UserID:      userID,
		Handle:      handle,
		ConnectedAt: r.now(),
	}
}

// Unregister removes the record whose stored handle equals handle.
// It reports the user the record belonged to and whether anything was removed.
// Use UnregisterAll when the handle may own more than one record.
func (r *Registry) Unregister(handle Handle) (string, bool) {
	ids := r.UnregisterAll(handle)
	if len(ids) == 0 {
		return "", false
	}

	return ids[0], true
}

// UnregisterAll removes every record whose stored handle equals handle and returns
// the users they belonged to in ascending order.
func (r *Registry) UnregisterAll(handle Handle) []string {
	if handle == "" {
		return nil
	}

	r.mx.Lock()
	var ids []string

	for userID, rec := range r.records {
		if rec.Handle == handle {
			delete(r.records, userID)
			ids = append(ids, userID)
		}
	}
	r.mx.Unlock()

	sort.Strings(ids)

	return ids
}

// UnregisterUser removes the record for userID only while it is still bound to handle
func (r *Registry) UnregisterUser(userID string, handle Handle) bool {
	r.mx.Lock()
	defer r.mx.Unlock()

	rec, ok := r.records[userID]
	if !ok || rec.Handle != handle {
		return false
	}

	delete(r.records, userID)

	return true
}

func (r *Registry) Lookup(userID string) (Handle, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()

	rec, ok := r.records[userID]

	return rec.Handle, ok
}

func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)

	return ok
}

// ListOnline returns the ids of every registered user in ascending order
func (r *Registry) ListOnline() []string {
	r.mx.RLock()
	ids := make([]string, 0, len(r.records))

	for id := range r.records {
		ids = append(ids, id)
	}
	r.mx.RUnlock()

	sort.Strings(ids)

	return ids
}

// Records returns a snapshot of every record ordered by user id
func (r *Registry) Records() []Record {
	r.mx.RLock()
	out := make([]Record, 0, len(r.records))

	for _, rec := range r.records {
		out = append(out, rec)
	}
	r.mx.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UserID < out[j].UserID
	})

	return out
}

func (r *Registry) Count() int {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return len(r.records)
}
