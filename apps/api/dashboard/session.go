package dashboard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/google/uuid"

	"github.com/smarttransit/dashboard/apps/api/models"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnknownBus is returned when a selection names a bus that is not in the fleet
	ErrUnknownBus = errors.New("unknown bus")
)

// Session is one client's dashboard state
type Session struct {
	ID        string
	CreatedAt time.Time

	Selection *Selection
	Planner   *Planner

	mu          sync.RWMutex
	tab         Tab
	query       string
	routeFilter string
}

// SessionState is the JSON form of a Session
type SessionState struct {
	ID          string         `json:"id"`
	Tab         Tab            `json:"tab"`
	Query       string         `json:"query"`
	RouteFilter string         `json:"routeFilter"`
	Selection   SelectionState `json:"selection"`
	Planner     PlannerState   `json:"planner"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Tab returns the active tab
func (s *Session) Tab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tab
}

// SetTab switches the active tab
func (s *Session) SetTab(t Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab = t
}

// Filter returns the fleet search query and route filter
func (s *Session) Filter() (query, routeFilter string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query, s.routeFilter
}

// SetFilter replaces the fleet search query and route filter.
// An empty route filter means AllRoutes.
func (s *Session) SetFilter(query, routeFilter string) {
	if routeFilter == "" {
		routeFilter = AllRoutes
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.routeFilter = routeFilter
}

// State returns a snapshot of the session
func (s *Session) State() SessionState {
	s.mu.RLock()
	st := SessionState{
		ID:          s.ID,
		Tab:         s.tab,
		Query:       s.query,
		RouteFilter: s.routeFilter,
		CreatedAt:   s.CreatedAt,
	}
	s.mu.RUnlock()

	st.Selection = s.Selection.State()
	st.Planner = s.Planner.Snapshot()
	return st
}

// SessionStore keeps sessions in a bounded LRU; idle sessions expire after ttl
type SessionStore struct {
	cache gcache.Cache
}

// NewSessionStore creates a store holding at most capacity sessions
func NewSessionStore(capacity int, ttl time.Duration) *SessionStore {
	if capacity <= 0 {
		capacity = 1
	}
	b := gcache.New(capacity).LRU()
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	return &SessionStore{cache: b.Build()}
}

// Put stores s under its id
func (st *SessionStore) Put(s *Session) error {
	if err := st.cache.Set(s.ID, s); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Get returns the session with id and refreshes its expiry
func (st *SessionStore) Get(id string) (*Session, error) {
	v, err := st.cache.Get(id)
	if err != nil {
		if errors.Is(err, gcache.KeyNotFoundError) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, err
	}
	s, ok := v.(*Session)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	_ = st.cache.Set(id, s)
	return s, nil
}

// Delete removes a session; it reports whether the session existed
func (st *SessionStore) Delete(id string) bool {
	return st.cache.Remove(id)
}

// Len returns the number of live sessions
func (st *SessionStore) Len() int {
	return st.cache.Len(true)
}

// Registry is the read side of the fleet, route and stop registries
type Registry interface {
	StopSource
	Buses() []models.Bus
	Routes() []models.Route
	PopularStops() []models.PopularStop
}

// Observer is notified of session state changes
type Observer interface {
	SelectionChanged(sessionID string, t Transition)
	JourneySearched(sessionID string, r JourneyResult)
}

// Dashboard ties the registries, the journey search and the session store together
type Dashboard struct {
	registry Registry
	search   *JourneySearch
	sessions *SessionStore
	observer Observer
}

// New creates a Dashboard. observer may be nil.
func New(registry Registry, search *JourneySearch, sessions *SessionStore, observer Observer) *Dashboard {
	return &Dashboard{
		registry: registry,
		search:   search,
		sessions: sessions,
		observer: observer,
	}
}

// Search returns the shared journey search
func (d *Dashboard) Search() *JourneySearch { return d.search }

// Sessions returns the session store
func (d *Dashboard) Sessions() *SessionStore { return d.sessions }

// NewSession creates and stores a session on the dashboard tab in LIST mode
func (d *Dashboard) NewSession() (*Session, error) {
	s := &Session{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Selection:   NewSelection(),
		tab:         TabDashboard,
		routeFilter: AllRoutes,
	}
	s.Planner = NewPlanner(d.search, func(r JourneyResult) {
		if d.observer != nil {
			d.observer.JourneySearched(s.ID, r)
		}
	})

	if err := d.sessions.Put(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Session looks up a session by id
func (d *Dashboard) Session(id string) (*Session, error) {
	return d.sessions.Get(id)
}

// ViewBus opens the detail view of a bus
func (d *Dashboard) ViewBus(s *Session, busID string) (Transition, error) {
	b, err := d.bus(busID)
	if err != nil {
		return Transition{}, err
	}
	t := s.Selection.View(b)
	d.notifySelection(s, t)
	return t, nil
}

// SelectBus changes the focused bus without leaving the current mode
func (d *Dashboard) SelectBus(s *Session, busID string) (Transition, error) {
	b, err := d.bus(busID)
	if err != nil {
		return Transition{}, err
	}
	t := s.Selection.Select(b)
	d.notifySelection(s, t)
	return t, nil
}

// Back returns the session to the list view
func (d *Dashboard) Back(s *Session) Transition {
	t := s.Selection.Back()
	d.notifySelection(s, t)
	return t
}

// View renders the current view of a session: the detail view while a bus is
// open, otherwise the view of the active tab.
func (d *Dashboard) View(s *Session) View {
	if s.Selection.Mode() == ModeDetail {
		if b, ok := s.Selection.Current(); ok {
			return DetailView{Bus: b, OtherBuses: OtherBuses(d.registry.Buses(), b.ID)}
		}
	}

	switch s.Tab() {
	case TabRoutes:
		return newRoutesView(d.registry.Routes())
	case TabStops:
		return StopsView{Planner: s.Planner.Snapshot(), PopularStops: d.registry.PopularStops()}
	case TabAbout:
		return newAboutView()
	case TabSettings:
		return newSettingsView()
	default:
		query, routeFilter := s.Filter()
		var focused string
		if b, ok := s.Selection.Current(); ok {
			focused = b.ID
		}
		return newListView(d.registry.Buses(), query, routeFilter, focused)
	}
}

func (d *Dashboard) bus(id string) (models.Bus, error) {
	for _, b := range d.registry.Buses() {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Bus{}, fmt.Errorf("%w: %s", ErrUnknownBus, id)
}

func (d *Dashboard) notifySelection(s *Session, t Transition) {
	if d.observer != nil {
		d.observer.SelectionChanged(s.ID, t)
	}
}
