// Package testkit provides in-memory fakes and synthetic plate data for
// exercising the analysis engines without a database.
package testkit

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"gosetl/domain/plate"
	"gosetl/ports"
)

// StoredRecord ties one plate record to the location and species it was
// observed under, mirroring one row of the settlement table.
type StoredRecord struct {
	Location string
	Species  string
	Record   plate.Record
}

// MemoryStore is an in-memory ports.RecordStore. Safe for concurrent
// readers.
type MemoryStore struct {
	mu      sync.RWMutex
	records []StoredRecord
	closed  bool
}

// NewMemoryStore builds a store over the given rows.
func NewMemoryStore(records ...StoredRecord) *MemoryStore {
	return &MemoryStore{records: records}
}

// Add appends rows to the store.
func (s *MemoryStore) Add(records ...StoredRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// PlateRecords returns records matching any of the given locations and
// species. Empty filter slices match everything, like an omitted SQL
// predicate.
func (s *MemoryStore) PlateRecords(ctx context.Context, locations, species []string) ([]plate.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("memory store is closed")
	}

	var out []plate.Record
	for _, row := range s.records {
		if !matches(row.Location, locations) || !matches(row.Species, species) {
			continue
		}
		out = append(out, row.Record)
	}
	return out, nil
}

// Close marks the store closed. Reads after Close fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func matches(value string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == value {
			return true
		}
	}
	return false
}

var _ ports.RecordStore = (*MemoryStore)(nil)

// ConcentratedPlates builds n records for one species where every plate
// has exactly the given spots positive. Useful for forcing a strong
// preference or attraction signal.
func ConcentratedPlates(location, species string, n int, spots ...int) []StoredRecord {
	out := make([]StoredRecord, 0, n)
	for i := 0; i < n; i++ {
		rec, err := plate.NewRecord(plate.PlateID(fmt.Sprintf("%s-%03d", species, i+1)), spots...)
		if err != nil {
			panic(err)
		}
		out = append(out, StoredRecord{Location: location, Species: species, Record: rec})
	}
	return out
}

// RandomPlates builds n seeded records for one species with k positive
// spots drawn uniformly per plate.
func RandomPlates(location, species string, n, k int, seed int64) []StoredRecord {
	rng := rand.New(rand.NewSource(seed))
	out := make([]StoredRecord, 0, n)
	for i := 0; i < n; i++ {
		spots := sampleSpots(rng, k)
		rec, err := plate.NewRecord(plate.PlateID(fmt.Sprintf("%s-%03d", species, i+1)), spots...)
		if err != nil {
			panic(err)
		}
		out = append(out, StoredRecord{Location: location, Species: species, Record: rec})
	}
	return out
}

// PairedPlates builds n plates shared by two species. Both species get
// the same plate IDs so an inter-specific run matches every plate; each
// species occupies the spots given for it.
func PairedPlates(location, speciesA, speciesB string, n int, spotsA, spotsB []int) []StoredRecord {
	out := make([]StoredRecord, 0, 2*n)
	for i := 0; i < n; i++ {
		id := plate.PlateID(fmt.Sprintf("plate-%03d", i+1))
		recA, err := plate.NewRecord(id, spotsA...)
		if err != nil {
			panic(err)
		}
		recB, err := plate.NewRecord(id, spotsB...)
		if err != nil {
			panic(err)
		}
		out = append(out,
			StoredRecord{Location: location, Species: speciesA, Record: recA},
			StoredRecord{Location: location, Species: speciesB, Record: recB},
		)
	}
	return out
}

func sampleSpots(rng *rand.Rand, k int) []int {
	pool := make([]int, plate.GridSpots)
	for i := range pool {
		pool[i] = i + 1
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:k]
}

// CountingProgress records progress events for assertions.
type CountingProgress struct {
	mu       sync.Mutex
	advances int
	messages []string
}

// Advance counts one unit of work.
func (p *CountingProgress) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advances++
}

// AdvanceMsg counts one unit of work and records its message.
func (p *CountingProgress) AdvanceMsg(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advances++
	p.messages = append(p.messages, msg)
}

// Advances returns the total number of events seen.
func (p *CountingProgress) Advances() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.advances
}

// Messages returns the phase messages seen, in order.
func (p *CountingProgress) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

var _ ports.ProgressSink = (*CountingProgress)(nil)
