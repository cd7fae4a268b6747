package snapshot

import "github.com/snapkeep/snapkeep/pkg/snapname"

// Identity is the decoded identity of a snapshot: which subvolume it was
// taken from and when. It is recovered from the entry name alone; the
// filesystem entry is the record.
type Identity struct {
	// Source is the final path segment of the snapshotted subvolume.
	Source string

	// CreatedAt is the creation instant in Unix seconds.
	CreatedAt int64
}

// Record pairs a decoded identity with the entry it was decoded from.
type Record struct {
	Identity
	Path string
}

// Registry is the in-memory view of the snapshots discovered under one root.
// It is rebuilt from a fresh scan on every invocation and never persisted;
// the directory itself is the single source of truth.
type Registry struct {
	records []Record
	byID    map[Identity]int
}

// BuildRegistry decodes scan entries into a registry. Entries whose names do
// not decode are left out; they are foreign objects the lifecycle must never
// touch.
func BuildRegistry(entries []Entry) *Registry {
	r := &Registry{byID: make(map[Identity]int)}
	for _, e := range entries {
		source, ts, ok := snapname.Split(e.Name)
		if !ok {
			continue
		}
		id := Identity{Source: source, CreatedAt: ts}
		r.byID[id] = len(r.records)
		r.records = append(r.records, Record{Identity: id, Path: e.Path})
	}
	return r
}

// Records returns the registry contents in discovery order.
func (r *Registry) Records() []Record {
	return r.records
}

// Lookup returns the record for an identity, if present.
func (r *Registry) Lookup(id Identity) (Record, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Record{}, false
	}
	return r.records[i], true
}

// Len reports the number of recognized snapshots.
func (r *Registry) Len() int {
	return len(r.records)
}
