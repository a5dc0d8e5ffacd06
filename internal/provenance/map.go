package provenance

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// State is the logical lifecycle state of a Map.
type State int

const (
	// StateEmpty means nothing was registered and no index exists.
	StateEmpty State = iota
	// StateStaging means at least one batch is waiting to be drained.
	StateStaging
	// StateIndexed means the index exists and nothing is pending.
	StateIndexed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateStaging:
		return "staging"
	case StateIndexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time view of a Map's bookkeeping.
type Stats struct {
	State         State  `json:"-"`
	StateName     string `json:"state"`
	StagedNodes   int    `json:"staged_nodes"`
	StagedBatches int    `json:"staged_batches"`
	Indexed       int    `json:"indexed"`
	Drains        int    `json:"drains"`
}

// Map is the provenance registry. Construct one per process with New and
// pass it to producers and consumers. The zero value is not usable.
//
// Thread-safety: all methods are safe for concurrent use.
type Map struct {
	mu     sync.RWMutex
	stage  staging
	index  map[Key]*Entry
	drains int

	// Fast-path hints. Written under mu, read without it.
	built   atomic.Bool
	pending atomic.Int64

	logger *slog.Logger
}

// New creates an empty Map.
func New(opts ...Option) *Map {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Map{
		stage:  newStaging(o.nodeCapacity, o.checks),
		logger: o.logger,
	}
}

// Register stages a batch for indexing. Empty batches are ignored.
// Register never touches the index, so it is cheap enough for load-time
// initialization code.
func (m *Map) Register(b Batch) {
	if b.Empty() {
		return
	}

	m.mu.Lock()
	m.stage.push(b)
	m.pending.Add(1)
	m.mu.Unlock()
}

// needsDrain is the unsynchronized fast-path check. A stale answer only
// sends the caller to the locked path, which re-checks.
func (m *Map) needsDrain() bool {
	return !m.built.Load() || m.pending.Load() != 0
}

// drainReport summarizes one drain for logging outside the lock.
type drainReport struct {
	nodes   int
	batches int
	entries int
	indexed int
}

// drainLocked moves every staged batch into the index. Caller holds mu.
func (m *Map) drainLocked() drainReport {
	if m.index == nil {
		m.index = make(map[Key]*Entry)
		m.built.Store(true)
	}

	var r drainReport
	if m.stage.empty() {
		return r
	}

	for _, n := range m.stage.take() {
		for _, b := range n.batches {
			b.each(func(e *Entry) {
				m.index[e.Key] = e
				r.entries++
			})
			r.batches++
		}
		n.release()
		r.nodes++
	}
	m.pending.Store(0)
	m.drains++
	r.indexed = len(m.index)
	return r
}

func (m *Map) logDrain(r drainReport) {
	if r.nodes == 0 {
		return
	}
	m.logger.Debug("drained staged provenance",
		"nodes", r.nodes,
		"batches", r.batches,
		"entries", r.entries,
		"indexed", r.indexed,
	)
}

// Drain builds the index from every staged batch. It is idempotent: with
// nothing staged it leaves the index unchanged.
func (m *Map) Drain() {
	if !m.needsDrain() {
		return
	}
	m.mu.Lock()
	r := m.drainLocked()
	m.mu.Unlock()
	m.logDrain(r)
}

// Lookup returns the entry registered for k. A miss is not an error.
func (m *Map) Lookup(k Key) (*Entry, bool) {
	if m.needsDrain() {
		m.mu.Lock()
		r := m.drainLocked()
		e, ok := m.index[k]
		m.mu.Unlock()
		m.logDrain(r)
		return e, ok
	}

	m.mu.RLock()
	e, ok := m.index[k]
	m.mu.RUnlock()
	return e, ok
}

// Entries returns every indexed entry after draining, in unspecified order.
// The slice is a snapshot; the entries are shared with the Map.
func (m *Map) Entries() []*Entry {
	m.Drain()

	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]*Entry, 0, len(m.index))
	for _, e := range m.index {
		entries = append(entries, e)
	}
	return entries
}

// Traverse drains, then calls fn once per indexed entry in unspecified order
// until fn returns false. fn runs without the lock held; it may read entries
// but must not mutate them.
func (m *Map) Traverse(fn func(*Entry) bool) {
	for _, e := range m.Entries() {
		if !fn(e) {
			return
		}
	}
}

// Walk visits every registered entry, whether already indexed or still
// staged, without building the index. Indexed entries come first, then
// staged entries oldest first in registration order, so a later visit of a
// key always carries its more recent registration. A key staged after it
// was indexed is visited twice.
func (m *Map) Walk(fn func(*Entry) bool) {
	m.mu.RLock()
	entries := make([]*Entry, 0, len(m.index))
	for _, e := range m.index {
		entries = append(entries, e)
	}
	for _, n := range m.stage.chain() {
		for _, b := range n.batches {
			b.each(func(e *Entry) { entries = append(entries, e) })
		}
	}
	m.mu.RUnlock()

	for _, e := range entries {
		if !fn(e) {
			return
		}
	}
}

// Len returns the number of distinct keys after draining.
func (m *Map) Len() int {
	m.Drain()

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.index)
}

// State returns the current lifecycle state without draining.
func (m *Map) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stateLocked()
}

func (m *Map) stateLocked() State {
	switch {
	case !m.stage.empty():
		return StateStaging
	case m.index != nil:
		return StateIndexed
	default:
		return StateEmpty
	}
}

// Stats returns bookkeeping counters without draining.
func (m *Map) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.stateLocked()
	return Stats{
		State:         st,
		StateName:     st.String(),
		StagedNodes:   m.stage.nodes,
		StagedBatches: m.stage.batches,
		Indexed:       len(m.index),
		Drains:        m.drains,
	}
}
