package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smarttransit/dashboard/apps/api/models"
)

// DefaultSearchLatency is the simulated round trip of a journey search
const DefaultSearchLatency = time.Second

var (
	// ErrEmptyPickup is returned when a search is requested without a pickup point
	ErrEmptyPickup = errors.New("pickup point is required")

	// ErrSearchInProgress is returned when a planner is asked to search while a search is pending
	ErrSearchInProgress = errors.New("journey search already in progress")

	// ErrStopIndex is returned for an intermediate stop index out of range
	ErrStopIndex = errors.New("intermediate stop index out of range")
)

// StopSource provides the registries a journey search resolves against
type StopSource interface {
	Stops() []models.Stop
	ETAIndex() map[string][]models.ETAEntry
	Fallback() models.ETAEntry
}

// JourneySearch resolves a pickup point to the buses serving it
type JourneySearch struct {
	stops    []models.Stop
	etas     map[string][]models.ETAEntry
	fallback models.ETAEntry
	latency  time.Duration
}

// NewJourneySearch snapshots the stop registry and ETA index of src.
// A negative latency is treated as zero.
func NewJourneySearch(src StopSource, latency time.Duration) *JourneySearch {
	if latency < 0 {
		latency = 0
	}
	fb := src.Fallback()
	fb.IsClosest = true
	return &JourneySearch{
		stops:    src.Stops(),
		etas:     src.ETAIndex(),
		fallback: fb,
		latency:  latency,
	}
}

// Latency returns the simulated delay applied by Search
func (j *JourneySearch) Latency() time.Duration {
	return j.latency
}

// Resolve matches pickup against stop names in registry order, case-insensitively.
// The first matching stop with scheduled buses yields those entries in order;
// anything else yields the single fallback entry. Resolve does not check for an
// empty pickup.
func (j *JourneySearch) Resolve(pickup string) []models.ETAEntry {
	for _, s := range j.stops {
		if !containsFold(s.Name, pickup) {
			continue
		}
		entries := j.etas[s.ID]
		if len(entries) == 0 {
			break
		}
		out := make([]models.ETAEntry, len(entries))
		for i, e := range entries {
			e.IsClosest = false
			out[i] = e
		}
		return out
	}
	return []models.ETAEntry{j.fallback}
}

// Search waits for the simulated latency and then resolves pickup.
// It returns ErrEmptyPickup for a blank pickup and ctx.Err() if ctx is done first.
func (j *JourneySearch) Search(ctx context.Context, pickup string) ([]models.ETAEntry, error) {
	if strings.TrimSpace(pickup) == "" {
		return nil, ErrEmptyPickup
	}

	timer := time.NewTimer(j.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return j.Resolve(pickup), nil
}

// IsFallback reports whether results is the "closest available" answer
func IsFallback(results []models.ETAEntry) bool {
	return len(results) == 1 && results[0].IsClosest
}

// JourneyResult describes a finished planner search
type JourneyResult struct {
	Pickup   string            `json:"pickup"`
	Results  []models.ETAEntry `json:"results,omitempty"`
	Fallback bool              `json:"fallback"`
	Duration time.Duration     `json:"-"`
	Err      error             `json:"-"`
}

// PlannerState is a snapshot of a Planner
type PlannerState struct {
	Pickup            string            `json:"pickup"`
	Destination       string            `json:"destination"`
	IntermediateStops []string          `json:"intermediateStops"`
	Searching         bool              `json:"searching"`
	Results           []models.ETAEntry `json:"results"`
	SearchedPickup    string            `json:"searchedPickup,omitempty"`
	SearchedAt        *time.Time        `json:"searchedAt,omitempty"`
}

// Planner holds the journey form of one session and runs at most one search at a time
type Planner struct {
	search *JourneySearch

	mu             sync.Mutex
	pickup         string
	destination    string
	stops          []string
	searching      bool
	results        []models.ETAEntry
	searchedPickup string
	searchedAt     time.Time

	onDone func(JourneyResult)
}

// NewPlanner creates an empty planner. onDone, if not nil, is called after every search.
func NewPlanner(search *JourneySearch, onDone func(JourneyResult)) *Planner {
	return &Planner{
		search:  search,
		stops:   []string{},
		results: []models.ETAEntry{},
		onDone:  onDone,
	}
}

// SetPickup sets the pickup point as typed
func (p *Planner) SetPickup(pickup string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pickup = pickup
}

// SetDestination sets the destination as typed
func (p *Planner) SetDestination(destination string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destination = destination
}

// AddStop appends an intermediate stop and returns its index
func (p *Planner) AddStop(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops = append(p.stops, name)
	return len(p.stops) - 1
}

// UpdateStop replaces the intermediate stop at index i
func (p *Planner) UpdateStop(i int, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.stops) {
		return fmt.Errorf("%w: %d", ErrStopIndex, i)
	}
	p.stops[i] = name
	return nil
}

// RemoveStop deletes the intermediate stop at index i, shifting later stops down
func (p *Planner) RemoveStop(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.stops) {
		return fmt.Errorf("%w: %d", ErrStopIndex, i)
	}
	p.stops = append(p.stops[:i], p.stops[i+1:]...)
	return nil
}

// Searching reports whether a search is pending
func (p *Planner) Searching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.searching
}

// Start launches a search for the current pickup point in the background.
// The returned channel is closed once the search has finished and its results are stored.
// A blank pickup returns ErrEmptyPickup and a pending search ErrSearchInProgress;
// neither changes any state.
func (p *Planner) Start(ctx context.Context) (<-chan struct{}, error) {
	p.mu.Lock()
	if strings.TrimSpace(p.pickup) == "" {
		p.mu.Unlock()
		return nil, ErrEmptyPickup
	}
	if p.searching {
		p.mu.Unlock()
		return nil, ErrSearchInProgress
	}
	p.searching = true
	pickup := p.pickup
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)

		started := time.Now()
		results, err := p.search.Search(ctx, pickup)
		res := JourneyResult{
			Pickup:   pickup,
			Results:  results,
			Fallback: err == nil && IsFallback(results),
			Duration: time.Since(started),
			Err:      err,
		}

		p.mu.Lock()
		p.searching = false
		if err == nil {
			p.results = results
			p.searchedPickup = pickup
			p.searchedAt = time.Now().UTC()
		}
		p.mu.Unlock()

		if p.onDone != nil {
			p.onDone(res)
		}
	}()

	return done, nil
}

// Snapshot returns a copy of the planner state
func (p *Planner) Snapshot() PlannerState {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := PlannerState{
		Pickup:            p.pickup,
		Destination:       p.destination,
		IntermediateStops: append([]string{}, p.stops...),
		Searching:         p.searching,
		Results:           append([]models.ETAEntry{}, p.results...),
		SearchedPickup:    p.searchedPickup,
	}
	if !p.searchedAt.IsZero() {
		t := p.searchedAt
		st.SearchedAt = &t
	}
	return st
}
