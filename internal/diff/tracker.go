// Package diff accumulates attribute-level mismatches between a desired
// and an active plugin state, and renders them for reporting.
package diff

// Record is one mismatch between the desired value of an attribute and the
// value currently active on the engine. Values are kept as-is; they may be
// strings, booleans, option maps or nil when the attribute is missing.
type Record struct {
	Key       string `json:"key"`
	Parameter any    `json:"parameter"`
	Active    any    `json:"active"`
}

// Tracker is an ordered collection of Records. The zero value is ready
// to use. Tracker is not safe for concurrent use.
type Tracker struct {
	records []Record
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add appends a record. Keys are not de-duplicated: adding the same key
// twice keeps both records.
func (t *Tracker) Add(key string, desired, active any) {
	t.records = append(t.records, Record{Key: key, Parameter: desired, Active: active})
}

// IsEmpty reports whether no record was added.
func (t *Tracker) IsEmpty() bool {
	return t == nil || len(t.records) == 0
}

// Len returns the number of records.
func (t *Tracker) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Merge appends all of other's records after t's own, preserving order.
func (t *Tracker) Merge(other *Tracker) {
	if other == nil {
		return
	}
	t.records = append(t.records, other.records...)
}

// BeforeAfter renders the records as two maps keyed by record key: before
// holds the active values, after the desired ones. On duplicate keys the
// last record wins.
func (t *Tracker) BeforeAfter() (before, after map[string]any) {
	before = make(map[string]any, t.Len())
	after = make(map[string]any, t.Len())
	if t == nil {
		return before, after
	}
	for _, r := range t.records {
		before[r.Key] = r.Active
		after[r.Key] = r.Parameter
	}
	return before, after
}

// Legacy returns a copy of the records, one entry per record, unmodified.
func (t *Tracker) Legacy() []Record {
	if t == nil {
		return []Record{}
	}
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}
